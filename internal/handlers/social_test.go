package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/irrigafacil/apiserver/internal/auth"
	"github.com/irrigafacil/apiserver/internal/services"
	"github.com/irrigafacil/apiserver/internal/social"
	"github.com/irrigafacil/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider satisfies social.Provider without any real OAuth exchange.
type stubProvider struct {
	mu       sync.Mutex
	name     string
	identity social.ExternalIdentity
	err      error
	codes    []string
}

func (p *stubProvider) Name() string {
	return p.name
}

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/authorize?state=" + url.QueryEscape(state)
}

func (p *stubProvider) ResolveIdentity(_ context.Context, code string) (social.ExternalIdentity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.codes = append(p.codes, code)
	if p.err != nil {
		return social.ExternalIdentity{}, p.err
	}
	return p.identity, nil
}

func newSocialTestRouter(t *testing.T, provider *stubProvider) (*chi.Mux, *memUserRepo, *auth.TokenService) {
	t.Helper()

	tokens, err := auth.NewTokenService("test-secret")
	require.NoError(t, err)

	users := &memUserRepo{users: map[string]types.User{}}
	socialService := services.NewSocialService(users, tokens)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	registry := social.Registry{provider.name: provider}

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		SocialRouter(r, registry, socialService, "irrigafacil://login", logger)
	})
	return router, users, tokens
}

func googleStub() *stubProvider {
	return &stubProvider{
		name: social.ProviderGoogle,
		identity: social.ExternalIdentity{
			Provider:   social.ProviderGoogle,
			ProviderID: "google-123",
			Name:       "Ana",
			Email:      "ana@gmail.com",
		},
	}
}

func TestSocialBegin_RedirectsWithState(t *testing.T) {
	router, _, _ := newSocialTestRouter(t, googleStub())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google", nil))

	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)

	var state string
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "oauth_state" {
			state = cookie.Value
		}
	}
	require.NotEmpty(t, state, "the state cookie must be set before redirecting")

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, state, location.Query().Get("state"), "redirect must carry the cookie's state")
}

func TestSocialBegin_UnknownProvider(t *testing.T) {
	router, _, _ := newSocialTestRouter(t, googleStub())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/orkut", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSocialCallback_StateMismatch(t *testing.T) {
	router, users, _ := newSocialTestRouter(t, googleStub())

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=tampered&code=ok", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "original"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, users.users, "a rejected callback must not create a user")
}

func TestSocialCallback_MissingStateCookie(t *testing.T) {
	router, _, _ := newSocialTestRouter(t, googleStub())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=abc&code=ok", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSocialCallback_UnknownProvider(t *testing.T) {
	router, _, _ := newSocialTestRouter(t, googleStub())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/orkut/callback?state=abc&code=ok", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSocialCallback_RedirectsToDeepLinkWithToken(t *testing.T) {
	provider := googleStub()
	router, users, tokens := newSocialTestRouter(t, provider)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=xyz&code=auth-code", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "xyz"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, []string{"auth-code"}, provider.codes, "the provider must see the authorization code")

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "irrigafacil", location.Scheme)

	token := location.Query().Get("token")
	require.NotEmpty(t, token, "deep link must carry the session token")

	claims, err := tokens.Verify(token)
	require.NoError(t, err)

	created, err := users.GetByID(context.Background(), claims.Subject)
	require.NoError(t, err)
	assert.Equal(t, "google-123", created.GoogleID)
	assert.Equal(t, claims.TenantID, created.TenantID)
}

func TestSocialCallback_ProviderFailure(t *testing.T) {
	provider := googleStub()
	provider.err = social.ErrInvalidCode
	router, users, _ := newSocialTestRouter(t, provider)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=xyz&code=bad", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "xyz"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, users.users)
}
