package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/irrigafacil/apiserver/internal/notify"
	"github.com/irrigafacil/apiserver/internal/store"
	"github.com/irrigafacil/apiserver/types"
)

// fakeUserRepo is an in-memory UserRepository for service tests.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]types.User{}}
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) GetByProvider(_ context.Context, provider, providerID string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		switch provider {
		case "google":
			if user.GoogleID == providerID && providerID != "" {
				return user, nil
			}
		case "facebook":
			if user.FacebookID == providerID && providerID != "" {
				return user, nil
			}
		default:
			return types.User{}, store.ErrUnknownProvider
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) CreateWithTenant(_ context.Context, user types.User, _ string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email && user.Email != "" {
			return types.User{}, store.ErrDuplicateEmail
		}
	}
	now := time.Now()
	user.ID = uuid.NewString()
	user.TenantID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) LinkProvider(_ context.Context, userID, provider, providerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	switch provider {
	case "google":
		if user.GoogleID != "" {
			return store.ErrNotFound
		}
		user.GoogleID = providerID
	case "facebook":
		if user.FacebookID != "" {
			return store.ErrNotFound
		}
		user.FacebookID = providerID
	default:
		return store.ErrUnknownProvider
	}
	user.UpdatedAt = time.Now()
	f.users[userID] = user
	return nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now()
	f.users[userID] = user
	return nil
}

// fakeResetRepo is an in-memory ResetTokenRepository.
type fakeResetRepo struct {
	mu     sync.Mutex
	tokens map[string]types.ResetToken
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: map[string]types.ResetToken{}}
}

func (f *fakeResetRepo) Create(_ context.Context, token types.ResetToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeResetRepo) Get(_ context.Context, token string) (types.ResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.tokens[token]
	if !ok {
		return types.ResetToken{}, store.ErrNotFound
	}
	return record, nil
}

func (f *fakeResetRepo) Consume(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tokens[token]; !ok {
		return store.ErrNotFound
	}
	delete(f.tokens, token)
	return nil
}

func (f *fakeResetRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	for value, record := range f.tokens {
		if record.Expired(now) {
			delete(f.tokens, value)
			removed++
		}
	}
	return removed, nil
}

// fakeNotifier records dispatched reset events.
type fakeNotifier struct {
	mu     sync.Mutex
	events []notify.PasswordResetEvent
	err    error
}

func (f *fakeNotifier) PasswordResetRequested(_ context.Context, event notify.PasswordResetEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeNotifier) sent() []notify.PasswordResetEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notify.PasswordResetEvent(nil), f.events...)
}
