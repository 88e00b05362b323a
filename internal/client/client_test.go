package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/irrigafacil/apiserver/internal/client/session"
	"github.com/irrigafacil/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, ttl time.Duration) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *session.Store) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store, err := session.Open(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	return New(server.URL, store), store
}

func TestClient_LoginPersistsSession(t *testing.T) {
	token := signedToken(t, time.Hour)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ana@x.com", body["email"])
		assert.Equal(t, "senha123", body["senha"])

		_ = json.NewEncoder(w).Encode(types.Session{
			Token: token,
			Profile: types.Profile{
				ID: "user-1", Name: "Ana", Email: "ana@x.com", TenantID: "tenant-1",
			},
		})
	})

	client, store := newTestClient(t, mux)
	ctx := context.Background()

	result, err := client.Login(ctx, "ana@x.com", "senha123")
	require.NoError(t, err)
	assert.Equal(t, token, result.Token)

	stored, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, token, stored.Token)
	assert.Equal(t, "Ana", stored.Profile.Name)
	assert.True(t, client.IsAuthenticated(ctx))
}

func TestClient_FailedLoginLeavesSessionUntouched(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"msg": "email ou senha inválidos"})
	})

	client, store := newTestClient(t, mux)
	ctx := context.Background()

	prior := types.Profile{ID: "user-0", Name: "Antiga", TenantID: "tenant-0"}
	require.NoError(t, store.Save(ctx, "prior-token", prior))

	_, err := client.Login(ctx, "ana@x.com", "errada")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	stored, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok, "failed login must not clear the prior session")
	assert.Equal(t, "prior-token", stored.Token)
}

func TestClient_ProfileClearsSessionOn401(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /perfil", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"msg": "não autenticado"})
	})

	client, store := newTestClient(t, mux)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, signedToken(t, time.Hour), types.Profile{ID: "user-1"}))

	_, err := client.Profile(ctx)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "an observed 401 must log the device out")
}

func TestClient_CompleteSocialLogin(t *testing.T) {
	token := signedToken(t, 7*24*time.Hour)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /perfil", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(types.Profile{
			ID: "user-2", Name: "Bia", TenantID: "tenant-2",
		})
	})

	client, store := newTestClient(t, mux)
	ctx := context.Background()

	result, err := client.CompleteSocialLogin(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-2", result.Profile.ID)

	stored, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, token, stored.Token)
}

func TestClient_LogoutClearsSession(t *testing.T) {
	client, store := newTestClient(t, http.NewServeMux())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, signedToken(t, time.Hour), types.Profile{ID: "user-1"}))
	require.NoError(t, client.Logout(ctx))

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, client.IsAuthenticated(ctx))
}

func TestClient_IsAuthenticatedExpiredToken(t *testing.T) {
	client, store := newTestClient(t, http.NewServeMux())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, signedToken(t, -time.Minute), types.Profile{ID: "user-1"}))
	assert.False(t, client.IsAuthenticated(ctx), "locally expired token reads as logged out")
}

func TestClient_SignupReturnsProfile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /signup", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(signupResponse{
			Message: "usuário criado com sucesso",
			Data:    types.Profile{ID: "user-1", Name: "Ana", TenantID: "tenant-1"},
		})
	})

	client, store := newTestClient(t, mux)
	ctx := context.Background()

	profile, err := client.Signup(ctx, "Ana", "ana@x.com", "senha123")
	require.NoError(t, err)
	assert.Equal(t, "user-1", profile.ID)

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "signup alone must not create a local session")
}
