package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/irrigafacil/apiserver/internal/services"
	"github.com/irrigafacil/apiserver/internal/social"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

// SocialHandler runs the OAuth handshake against the configured providers
// and hands the resulting session token back to the mobile app through its
// deep link.
type SocialHandler struct {
	providers     social.Registry
	socialService *services.SocialService
	deepLink      string
	logger        *slog.Logger
}

func NewSocialHandler(providers social.Registry, socialService *services.SocialService, deepLink string, logger *slog.Logger) *SocialHandler {
	return &SocialHandler{
		providers:     providers,
		socialService: socialService,
		deepLink:      deepLink,
		logger:        logger,
	}
}

// SocialRouter registers the provider handshake routes.
func SocialRouter(r chi.Router, providers social.Registry, socialService *services.SocialService, deepLink string, logger *slog.Logger) {
	handler := NewSocialHandler(providers, socialService, deepLink, logger)

	r.Get("/{provider}", handler.Begin)
	r.Get("/{provider}/callback", handler.Callback)
}

// Begin redirects to the provider consent page with a fresh state value
// pinned in a short-lived cookie.
func (h *SocialHandler) Begin(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.providers.Lookup(chi.URLParam(r, "provider"))
	if !ok {
		writeError(w, http.StatusNotFound, "provedor desconhecido")
		return
	}

	state, err := newOAuthState()
	if err != nil {
		h.logger.ErrorContext(r.Context(), "oauth state generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// Callback completes the handshake: state check, code exchange, local
// resolution, then a redirect to the app deep link carrying the session
// token. The provider's own token is discarded after this step.
func (h *SocialHandler) Callback(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.providers.Lookup(chi.URLParam(r, "provider"))
	if !ok {
		writeError(w, http.StatusNotFound, "provedor desconhecido")
		return
	}

	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		writeError(w, http.StatusBadRequest, "estado de autenticação inválido")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "código de autorização ausente")
		return
	}

	identity, err := provider.ResolveIdentity(r.Context(), code)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "provider resolution failed", "provider", provider.Name(), "error", err)
		writeError(w, http.StatusUnauthorized, unauthenticatedMsg)
		return
	}

	user, err := h.socialService.Resolve(r.Context(), identity)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "social resolve failed", "provider", provider.Name(), "error", err)
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}

	token, err := h.socialService.IssueSessionToken(user)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "social token issue failed", "error", err)
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}

	// Clear the state cookie; the handshake is done.
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: "/auth", MaxAge: -1})

	target := fmt.Sprintf("%s?token=%s", h.deepLink, url.QueryEscape(token))
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

func newOAuthState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
