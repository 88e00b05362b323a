package types

import "time"

// User represents an account in the system. A user authenticates either with
// an email/password pair or through an external identity provider; social-only
// accounts carry no password hash.
type User struct {
	// ID is the opaque unique identifier of the user.
	ID string `json:"id" db:"id"`

	// Name is the user's display name.
	Name string `json:"nome" db:"name"`

	// Email is the user's email address, stored lowercased.
	// Empty for social accounts whose provider withheld it.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// Empty for social-only accounts. Never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// GoogleID is the Google subject identifier, when linked.
	GoogleID string `json:"-" db:"google_id"`

	// FacebookID is the Facebook user identifier, when linked.
	FacebookID string `json:"-" db:"facebook_id"`

	// TenantID groups the resources owned by this user.
	TenantID string `json:"tenantId" db:"tenant_id"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasPassword reports whether the account can authenticate with a password.
func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}
