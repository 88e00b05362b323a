package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/irrigafacil/apiserver/internal/auth"
)

const unauthenticatedMsg = "não autenticado"

// RequireAuth builds the middleware guarding authenticated routes. A missing
// or malformed Authorization header fails before the verifier is consulted;
// every failure class gets the same generic 401.
func RequireAuth(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, unauthenticatedMsg)
				return
			}

			claims, err := tokens.Verify(tokenString)
			if err != nil {
				writeError(w, http.StatusUnauthorized, unauthenticatedMsg)
				return
			}

			identity := Identity{UserID: claims.Subject, TenantID: claims.TenantID}
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
