package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/irrigafacil/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func testProfile() types.Profile {
	return types.Profile{
		ID:       "user-1",
		Name:     "Ana",
		Email:    "ana@x.com",
		TenantID: "tenant-1",
	}
}

func TestStore_SaveLoadClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "fresh store must be empty")

	require.NoError(t, store.Save(ctx, "token-abc", testProfile()))

	loaded, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "token-abc", loaded.Token)
	assert.Equal(t, testProfile(), loaded.Profile)

	require.NoError(t, store.Clear(ctx))

	_, ok, err = store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "cleared store must read as empty")
}

func TestStore_SaveOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "first", testProfile()))

	updated := testProfile()
	updated.Name = "Ana Clara"
	require.NoError(t, store.Save(ctx, "second", updated))

	loaded, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", loaded.Token)
	assert.Equal(t, "Ana Clara", loaded.Profile.Name)
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	ctx := context.Background()

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "token-abc", testProfile()))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, ok, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok, "session must survive app restarts")
	assert.Equal(t, "token-abc", loaded.Token)
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()

	signed := func(exp time.Time) string {
		claims := jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(exp),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("any-secret"))
		require.NoError(t, err)
		return token
	}

	assert.False(t, TokenExpired(signed(now.Add(time.Hour)), now))
	assert.True(t, TokenExpired(signed(now.Add(-time.Minute)), now))
	assert.True(t, TokenExpired("not-a-jwt", now), "unparseable tokens count as expired")
}
