// Package session persists the device-local session: the last-issued token
// and a snapshot of the user profile. The pair is written and cleared
// atomically; a reader never observes one half without the other.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/irrigafacil/apiserver/types"
	_ "github.com/mattn/go-sqlite3"
)

const (
	keyToken   = "token"
	keyProfile = "profile"
)

// Store keeps the session in a local sqlite database, the same storage the
// rest of the app's offline cache lives in.
type Store struct {
	db *sql.DB
}

// Open opens (and initializes, when needed) the session database at path.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS session (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`
	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &Store{db: conn}, nil
}

// Save writes token and profile as one transaction.
func (s *Store) Save(ctx context.Context, token string, profile types.Profile) error {
	encoded, err := json.Marshal(profile)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const upsert = `
		INSERT INTO session (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`
	if _, err := tx.ExecContext(ctx, upsert, keyProfile, string(encoded)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, upsert, keyToken, token); err != nil {
		return err
	}
	return tx.Commit()
}

// Load returns the stored session. Both keys are read inside one
// transaction, so a concurrent Save or Clear can never produce a torn
// pair. The second return is false when no complete session exists.
func (s *Store) Load(ctx context.Context) (types.Session, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Session{}, false, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	token, err := get(ctx, tx, keyToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Session{}, false, nil
		}
		return types.Session{}, false, err
	}

	encoded, err := get(ctx, tx, keyProfile)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Session{}, false, nil
		}
		return types.Session{}, false, err
	}

	if err := tx.Commit(); err != nil {
		return types.Session{}, false, err
	}

	var profile types.Profile
	if err := json.Unmarshal([]byte(encoded), &profile); err != nil {
		return types.Session{}, false, err
	}
	return types.Session{Token: token, Profile: profile}, true, nil
}

// Clear removes both halves of the session in one transaction.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM session WHERE key IN ($1, $2)`, keyToken, keyProfile); err != nil {
		return err
	}
	return tx.Commit()
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func get(ctx context.Context, tx *sql.Tx, key string) (string, error) {
	var value string
	err := tx.QueryRowContext(ctx, `SELECT value FROM session WHERE key = $1`, key).Scan(&value)
	return value, err
}

// TokenExpired inspects the token's exp claim locally, without verifying the
// signature. This is an optimization for is-authenticated checks only; the
// server remains the real arbiter.
func TokenExpired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.Time.After(now)
}
