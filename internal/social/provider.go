// Package social exchanges third-party OAuth proofs of identity for a
// normalized ExternalIdentity. Each provider adapter hides its protocol
// details; the rest of the system only ever sees ExternalIdentity.
package social

import (
	"context"
	"errors"
)

// Provider names. These also select the user column the identity maps to.
const (
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

// ErrInvalidCode is returned when the authorization code exchange fails.
var ErrInvalidCode = errors.New("authorization code is invalid")

// ExternalIdentity is the normalized shape of a provider profile.
// Email may be empty when the provider withholds it; accounts created from
// such identities carry an empty email until the user fills one in.
type ExternalIdentity struct {
	Provider   string
	ProviderID string
	Name       string
	Email      string
}

// Provider abstracts one OAuth identity provider.
type Provider interface {
	// Name returns the stable provider identifier ("google", "facebook").
	Name() string

	// AuthCodeURL builds the provider consent URL for the given state.
	AuthCodeURL(state string) string

	// ResolveIdentity exchanges an authorization code for the provider's
	// profile and normalizes it. Returns ErrInvalidCode when the exchange
	// is rejected.
	ResolveIdentity(ctx context.Context, code string) (ExternalIdentity, error)
}

// Registry holds the configured providers keyed by name.
type Registry map[string]Provider

// Lookup returns the named provider, or false when it is not configured.
func (r Registry) Lookup(name string) (Provider, bool) {
	p, ok := r[name]
	return p, ok
}
