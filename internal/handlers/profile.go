package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/irrigafacil/apiserver/internal/services"
	"github.com/irrigafacil/apiserver/internal/store"
)

// ProfileHandler serves the authenticated account endpoints.
type ProfileHandler struct {
	authService *services.AuthService
	logger      *slog.Logger
}

func NewProfileHandler(authService *services.AuthService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{authService: authService, logger: logger}
}

// ProfileRouter registers the profile routes. The caller mounts it behind
// the auth middleware.
func ProfileRouter(r chi.Router, authService *services.AuthService, logger *slog.Logger) {
	handler := NewProfileHandler(authService, logger)

	r.Get("/", handler.Me)
	r.Put("/senha", handler.ChangePassword)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"senhaAtual"`
	NewPassword     string `json:"novaSenha"`
}

// Me returns the authenticated user's profile.
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, unauthenticatedMsg)
		return
	}

	user, err := h.authService.GetUser(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, unauthenticatedMsg)
			return
		}
		h.logger.ErrorContext(r.Context(), "profile load failed", "error", err)
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}

	writeJSON(w, http.StatusOK, profileOf(user))
}

// ChangePassword updates the password of the logged-in user after verifying
// the current one.
func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, unauthenticatedMsg)
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "requisição inválida")
		return
	}

	if missing := missingFields(map[string]string{
		"senhaAtual": req.CurrentPassword,
		"novaSenha":  req.NewPassword,
	}); missing != "" {
		writeError(w, http.StatusBadRequest, missing)
		return
	}
	if len(req.NewPassword) < minPasswordLen {
		writeError(w, http.StatusBadRequest, "a senha deve ter pelo menos 6 caracteres")
		return
	}

	if err := h.authService.ChangePassword(r.Context(), identity.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "senha atual incorreta")
			return
		}
		h.logger.ErrorContext(r.Context(), "password change failed", "error", err)
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "senha alterada com sucesso"})
}
