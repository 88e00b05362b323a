package types

import "time"

// ResetToken authorizes exactly one password change. It is persisted on
// reset request and deleted on first successful redemption; expired rows are
// unusable and removed on read or by the background sweep.
type ResetToken struct {
	// Token is the random high-entropy value embedded in the reset link.
	Token string `json:"-" db:"token"`

	// UserID is the owner of the token.
	UserID string `json:"-" db:"user_id"`

	// ExpiresAt is the instant after which the token must be rejected.
	ExpiresAt time.Time `json:"-" db:"expires_at"`

	CreatedAt time.Time `json:"-" db:"created_at"`
}

// Expired reports whether the token is past its expiry at the given instant.
func (t ResetToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
