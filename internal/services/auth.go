package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/irrigafacil/apiserver/internal/auth"
	"github.com/irrigafacil/apiserver/internal/notify"
	"github.com/irrigafacil/apiserver/internal/store"
	"github.com/irrigafacil/apiserver/types"
)

// Session token lifetimes per issuance context.
const (
	LoginTokenTTL  = 2 * time.Hour
	SocialTokenTTL = 7 * 24 * time.Hour

	// resetTokenTTL bounds the emailed reset token.
	resetTokenTTL = time.Hour

	// resetTokenBytes of entropy per reset token, base64url-encoded.
	resetTokenBytes = 32
)

var (
	// ErrInvalidCredentials covers unknown email and wrong password alike;
	// the response never reveals which check failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken is returned when signup hits an already-registered email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrResetTokenInvalid is returned for absent or already-consumed reset
	// tokens.
	ErrResetTokenInvalid = errors.New("reset token is invalid")

	// ErrResetTokenExpired is returned for reset tokens past their expiry.
	// The HTTP boundary answers it identically to ErrResetTokenInvalid.
	ErrResetTokenExpired = errors.New("reset token is expired")
)

// UserRepository defines the credential-store operations auth needs.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByProvider(ctx context.Context, provider, providerID string) (types.User, error)
	CreateWithTenant(ctx context.Context, user types.User, tenantName string) (types.User, error)
	LinkProvider(ctx context.Context, userID, provider, providerID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// ResetTokenRepository defines persistence for password-reset tokens.
type ResetTokenRepository interface {
	Create(ctx context.Context, token types.ResetToken) error
	Get(ctx context.Context, token string) (types.ResetToken, error)
	Consume(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// AuthService implements credential verification, signup, and the
// password-reset lifecycle. It holds no per-request state and is safe for
// concurrent use.
type AuthService struct {
	users       UserRepository
	resetTokens ResetTokenRepository
	tokens      *auth.TokenService
	notifier    notify.Notifier
	logger      *slog.Logger

	// resetLinkBase is the page the emailed redemption link points at.
	resetLinkBase string
}

func NewAuthService(
	users UserRepository,
	resetTokens ResetTokenRepository,
	tokens *auth.TokenService,
	notifier notify.Notifier,
	logger *slog.Logger,
	resetLinkBase string,
) *AuthService {
	return &AuthService{
		users:         users,
		resetTokens:   resetTokens,
		tokens:        tokens,
		notifier:      notifier,
		logger:        logger,
		resetLinkBase: resetLinkBase,
	}
}

// Login verifies the email/password pair and mints a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (types.User, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, "", ErrInvalidCredentials
		}
		return types.User{}, "", fmt.Errorf("lookup user: %w", err)
	}

	if !user.HasPassword() || !auth.VerifyPassword(password, user.PasswordHash) {
		return types.User{}, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.TenantID, LoginTokenTTL)
	if err != nil {
		return types.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// Signup registers a local account. A new tenant is created in the same
// logical operation so the user's resources have an owner from the start.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (types.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateWithTenant(ctx, types.User{
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
	}, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return types.User{}, ErrEmailTaken
		}
		return types.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// RequestPasswordReset creates a reset token and hands it to the notifier.
// It succeeds whether or not the email is registered: the caller must not be
// able to tell the difference (anti-enumeration).
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	raw, err := newResetTokenValue()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	now := time.Now()
	token := types.ResetToken{
		Token:     raw,
		UserID:    user.ID,
		ExpiresAt: now.Add(resetTokenTTL),
		CreatedAt: now,
	}
	if err := s.resetTokens.Create(ctx, token); err != nil {
		return fmt.Errorf("persist reset token: %w", err)
	}

	event := notify.PasswordResetEvent{
		To:        user.Email,
		Name:      user.Name,
		Link:      s.resetLink(raw),
		ExpiresAt: token.ExpiresAt,
	}
	if err := s.notifier.PasswordResetRequested(ctx, event); err != nil {
		// Swallowed so the response stays indistinguishable from the
		// unknown-email case; the token row stays valid for a retry.
		s.logger.ErrorContext(ctx, "failed to dispatch reset email", "user_id", user.ID, "error", err)
	}
	return nil
}

// ResetPassword redeems a reset token. The token is consumed with a
// conditional delete before the password is written, so of two concurrent
// redemptions exactly one can succeed.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	record, err := s.resetTokens.Get(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("lookup reset token: %w", err)
	}

	if record.Expired(time.Now()) {
		// Remove the stale row so later attempts fail fast.
		if err := s.resetTokens.Consume(ctx, token); err != nil && !errors.Is(err, store.ErrNotFound) {
			s.logger.ErrorContext(ctx, "failed to delete expired reset token", "error", err)
		}
		return ErrResetTokenExpired
	}

	// Past this point the token is burned: if the password write below
	// fails, the user must request a fresh link.
	if err := s.resetTokens.Consume(ctx, token); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, record.UserID, hash); err != nil {
		s.logger.ErrorContext(ctx, "password update failed after reset token consume", "user_id", record.UserID, "error", err)
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// ChangePassword is the logged-in variant of a password update: it requires
// the current password before accepting the new one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if !user.HasPassword() || !auth.VerifyPassword(currentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// GetUser loads a user by id, for the profile endpoint.
func (s *AuthService) GetUser(ctx context.Context, userID string) (types.User, error) {
	return s.users.GetByID(ctx, userID)
}

// SweepExpiredResetTokens deletes every reset token past its expiry.
func (s *AuthService) SweepExpiredResetTokens(ctx context.Context) (int64, error) {
	return s.resetTokens.DeleteExpired(ctx, time.Now())
}

func (s *AuthService) resetLink(token string) string {
	return fmt.Sprintf("%s?token=%s", s.resetLinkBase, url.QueryEscape(token))
}

func newResetTokenValue() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
