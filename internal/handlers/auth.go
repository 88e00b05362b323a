package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/irrigafacil/apiserver/internal/services"
	"github.com/irrigafacil/apiserver/types"
)

const minPasswordLen = 6

// AuthHandler serves the public authentication endpoints: login, signup and
// the password-reset pair.
type AuthHandler struct {
	authService *services.AuthService
	logger      *slog.Logger
}

func NewAuthHandler(authService *services.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

// AuthRouter registers the public auth routes on the given router.
func AuthRouter(r chi.Router, authService *services.AuthService, logger *slog.Logger) {
	handler := NewAuthHandler(authService, logger)

	r.Post("/login", handler.Login)
	r.Post("/signup", handler.Signup)
	r.Post("/recuperar-senha", handler.RecoverPassword)
	r.Post("/redefinir-senha", handler.ResetPassword)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"senha"`
}

type LoginResponse struct {
	Token string        `json:"token"`
	User  types.Profile `json:"usuario"`
}

type SignupRequest struct {
	Name     string `json:"nome"`
	Email    string `json:"email"`
	Password string `json:"senha"`
}

type SignupResponse struct {
	Message string        `json:"message"`
	Data    types.Profile `json:"data"`
}

type RecoverPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"novaSenha"`
}

// Login verifies credentials and returns a session token with the user
// profile. Unknown email and wrong password answer identically.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "requisição inválida")
		return
	}

	if missing := missingFields(map[string]string{
		"email": req.Email,
		"senha": req.Password,
	}); missing != "" {
		writeError(w, http.StatusBadRequest, missing)
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "email ou senha inválidos")
			return
		}
		h.logger.ErrorContext(r.Context(), "login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token, User: profileOf(user)})
}

// Signup registers a local account, creating its tenant in the same
// operation. The response carries no token; the client logs in afterwards.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "requisição inválida")
		return
	}

	if missing := missingFields(map[string]string{
		"nome":  req.Name,
		"email": req.Email,
		"senha": req.Password,
	}); missing != "" {
		writeError(w, http.StatusBadRequest, missing)
		return
	}
	if len(req.Password) < minPasswordLen {
		writeError(w, http.StatusBadRequest, "a senha deve ter pelo menos 6 caracteres")
		return
	}

	user, err := h.authService.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "email já cadastrado")
			return
		}
		h.logger.ErrorContext(r.Context(), "signup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}

	writeJSON(w, http.StatusCreated, SignupResponse{
		Message: "usuário criado com sucesso",
		Data:    profileOf(user),
	})
}

// RecoverPassword starts the reset flow. The response is the same whether or
// not the email is registered.
func (h *AuthHandler) RecoverPassword(w http.ResponseWriter, r *http.Request) {
	var req RecoverPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "requisição inválida")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "campo obrigatório: email")
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.logger.ErrorContext(r.Context(), "password reset request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{
		Message: "se o email estiver cadastrado, enviaremos as instruções de recuperação",
	})
}

// ResetPassword redeems a reset token. Absent and expired tokens answer
// identically.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "requisição inválida")
		return
	}

	if missing := missingFields(map[string]string{
		"token":     req.Token,
		"novaSenha": req.Password,
	}); missing != "" {
		writeError(w, http.StatusBadRequest, missing)
		return
	}
	if len(req.Password) < minPasswordLen {
		writeError(w, http.StatusBadRequest, "a senha deve ter pelo menos 6 caracteres")
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		if errors.Is(err, services.ErrResetTokenInvalid) || errors.Is(err, services.ErrResetTokenExpired) {
			writeError(w, http.StatusBadRequest, "token inválido ou expirado")
			return
		}
		h.logger.ErrorContext(r.Context(), "password reset failed", "error", err)
		writeError(w, http.StatusInternalServerError, "erro interno")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "senha redefinida com sucesso"})
}

func profileOf(user types.User) types.Profile {
	return types.Profile{
		ID:       user.ID,
		Name:     user.Name,
		Email:    user.Email,
		TenantID: user.TenantID,
	}
}

// missingFields returns a field-level validation message, or "" when every
// field is present.
func missingFields(fields map[string]string) string {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return ""
	}
	sort.Strings(missing)
	if len(missing) == 1 {
		return "campo obrigatório: " + missing[0]
	}
	return "campos obrigatórios: " + strings.Join(missing, ", ")
}
