// Package client is the device-side SDK for the IrrigaFácil API. It wraps
// the wire contract and keeps the local session store in sync with what the
// server says: a successful login writes the session, any failure leaves the
// previous state untouched, and an observed 401 logs the device out.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/irrigafacil/apiserver/internal/client/session"
	"github.com/irrigafacil/apiserver/types"
)

var (
	// ErrUnauthenticated is returned when the server rejects the stored
	// session token. The local session is cleared before it is returned.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNoSession is returned by authenticated calls when no session is
	// stored on the device.
	ErrNoSession = errors.New("no session stored")
)

// APIError carries the server's error message and status for non-2xx
// responses the SDK does not translate to a sentinel.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client talks to the API server on behalf of one device.
type Client struct {
	baseURL  string
	http     *http.Client
	sessions *session.Store
}

func New(baseURL string, sessions *session.Store) *Client {
	return &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: 15 * time.Second},
		sessions: sessions,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"senha"`
}

type signupRequest struct {
	Name     string `json:"nome"`
	Email    string `json:"email"`
	Password string `json:"senha"`
}

type signupResponse struct {
	Message string        `json:"message"`
	Data    types.Profile `json:"data"`
}

type recoverRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Token    string `json:"token"`
	Password string `json:"novaSenha"`
}

// Login authenticates and persists the returned session. On any failure the
// previously stored session, if any, is left as it was.
func (c *Client) Login(ctx context.Context, email, password string) (types.Session, error) {
	var result types.Session
	if err := c.postJSON(ctx, "/login", loginRequest{Email: email, Password: password}, &result); err != nil {
		return types.Session{}, err
	}
	if err := c.sessions.Save(ctx, result.Token, result.Profile); err != nil {
		return types.Session{}, fmt.Errorf("persist session: %w", err)
	}
	return result, nil
}

// Signup registers a new account. It does not log the device in; callers
// follow up with Login.
func (c *Client) Signup(ctx context.Context, name, email, password string) (types.Profile, error) {
	var result signupResponse
	if err := c.postJSON(ctx, "/signup", signupRequest{Name: name, Email: email, Password: password}, &result); err != nil {
		return types.Profile{}, err
	}
	return result.Data, nil
}

// RequestPasswordReset asks the server to email reset instructions.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.postJSON(ctx, "/recuperar-senha", recoverRequest{Email: email}, nil)
}

// ResetPassword redeems an emailed reset token.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	return c.postJSON(ctx, "/redefinir-senha", resetRequest{Token: token, Password: newPassword}, nil)
}

// CompleteSocialLogin finishes a deep-link social login: it validates the
// received token against the server by loading the profile, then persists
// the session pair.
func (c *Client) CompleteSocialLogin(ctx context.Context, token string) (types.Session, error) {
	profile, err := c.fetchProfile(ctx, token)
	if err != nil {
		return types.Session{}, err
	}
	if err := c.sessions.Save(ctx, token, profile); err != nil {
		return types.Session{}, fmt.Errorf("persist session: %w", err)
	}
	return types.Session{Token: token, Profile: profile}, nil
}

// Logout clears the stored session.
func (c *Client) Logout(ctx context.Context) error {
	return c.sessions.Clear(ctx)
}

// Current returns the stored session, when one exists.
func (c *Client) Current(ctx context.Context) (types.Session, bool, error) {
	return c.sessions.Load(ctx)
}

// IsAuthenticated reports whether a session is stored and not locally
// expired. The local expiry check is an optimization; the server's auth
// gateway remains the arbiter.
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	stored, ok, err := c.sessions.Load(ctx)
	if err != nil || !ok {
		return false
	}
	return !session.TokenExpired(stored.Token, time.Now())
}

// Profile fetches the authenticated profile with the stored token. A 401
// clears the session and returns ErrUnauthenticated, moving the device to
// the logged-out state.
func (c *Client) Profile(ctx context.Context) (types.Profile, error) {
	stored, ok, err := c.sessions.Load(ctx)
	if err != nil {
		return types.Profile{}, err
	}
	if !ok {
		return types.Profile{}, ErrNoSession
	}

	profile, err := c.fetchProfile(ctx, stored.Token)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			_ = c.sessions.Clear(ctx)
		}
		return types.Profile{}, err
	}
	return profile, nil
}

func (c *Client) fetchProfile(ctx context.Context, token string) (types.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/perfil", nil)
	if err != nil {
		return types.Profile{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return types.Profile{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return types.Profile{}, ErrUnauthenticated
	}
	if resp.StatusCode != http.StatusOK {
		return types.Profile{}, decodeAPIError(resp)
	}

	var profile types.Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return types.Profile{}, err
	}
	return profile, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized {
			return ErrUnauthenticated
		}
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeAPIError(resp *http.Response) error {
	var payload struct {
		Message string `json:"msg"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	if payload.Message == "" {
		payload.Message = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: payload.Message}
}
