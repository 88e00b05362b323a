package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/irrigafacil/apiserver/internal/auth"
	"github.com/irrigafacil/apiserver/internal/social"
	"github.com/irrigafacil/apiserver/internal/store"
	"github.com/irrigafacil/apiserver/types"
)

// SocialService maps external identities onto local credential-store records
// and mints local session tokens for them. The provider's own token is never
// reused past the one resolution step.
type SocialService struct {
	users  UserRepository
	tokens *auth.TokenService
}

func NewSocialService(users UserRepository, tokens *auth.TokenService) *SocialService {
	return &SocialService{users: users, tokens: tokens}
}

// Resolve returns the local user for an external identity, creating one with
// a fresh tenant on first sight. Resolution is idempotent: the same provider
// id always lands on the same user.
func (s *SocialService) Resolve(ctx context.Context, identity social.ExternalIdentity) (types.User, error) {
	user, err := s.users.GetByProvider(ctx, identity.Provider, identity.ProviderID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, fmt.Errorf("lookup by provider: %w", err)
	}

	candidate := types.User{
		Name:  identity.Name,
		Email: identity.Email,
	}
	switch identity.Provider {
	case social.ProviderGoogle:
		candidate.GoogleID = identity.ProviderID
	case social.ProviderFacebook:
		candidate.FacebookID = identity.ProviderID
	default:
		return types.User{}, store.ErrUnknownProvider
	}

	created, err := s.users.CreateWithTenant(ctx, candidate, identity.Name)
	if err == nil {
		return created, nil
	}

	// Two first-sight callbacks can race on the same provider id; the loser
	// hits a uniqueness violation and picks up the winner's record.
	if existing, lookupErr := s.users.GetByProvider(ctx, identity.Provider, identity.ProviderID); lookupErr == nil {
		return existing, nil
	}

	// The email already belongs to a local account with no link for this
	// provider yet. Attach the provider id to that account so password and
	// social login land on the same user.
	if errors.Is(err, store.ErrDuplicateEmail) && identity.Email != "" {
		return s.linkExisting(ctx, identity)
	}
	return types.User{}, fmt.Errorf("create social user: %w", err)
}

func (s *SocialService) linkExisting(ctx context.Context, identity social.ExternalIdentity) (types.User, error) {
	existing, err := s.users.GetByEmail(ctx, strings.ToLower(identity.Email))
	if err != nil {
		return types.User{}, fmt.Errorf("lookup by email: %w", err)
	}
	if err := s.users.LinkProvider(ctx, existing.ID, identity.Provider, identity.ProviderID); err != nil {
		return types.User{}, fmt.Errorf("link provider: %w", err)
	}
	linked, err := s.users.GetByID(ctx, existing.ID)
	if err != nil {
		return types.User{}, fmt.Errorf("reload linked user: %w", err)
	}
	return linked, nil
}

// IssueSessionToken mints the long-lived session token social logins get.
func (s *SocialService) IssueSessionToken(user types.User) (string, error) {
	return s.tokens.Issue(user.ID, user.TenantID, SocialTokenTTL)
}
