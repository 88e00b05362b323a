package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/irrigafacil/apiserver/types"
)

// ResetTokenRepository handles persistence for password-reset tokens.
type ResetTokenRepository struct {
	db *sql.DB
}

func NewResetTokenRepository(db *sql.DB) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

func (r *ResetTokenRepository) Create(ctx context.Context, token types.ResetToken) error {
	const query = `
		INSERT INTO reset_tokens (token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, token.Token, token.UserID, token.ExpiresAt, token.CreatedAt)
	return err
}

func (r *ResetTokenRepository) Get(ctx context.Context, token string) (types.ResetToken, error) {
	const query = `
		SELECT token, user_id, expires_at, created_at
		FROM reset_tokens
		WHERE token = $1`
	var rt types.ResetToken
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&rt.Token,
		&rt.UserID,
		&rt.ExpiresAt,
		&rt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.ResetToken{}, ErrNotFound
		}
		return types.ResetToken{}, err
	}
	return rt, nil
}

// Consume deletes the token row, returning ErrNotFound when the row was
// already gone. Of two concurrent redemptions only one observes a deletion,
// which keeps the token usable at most once.
func (r *ResetTokenRepository) Consume(ctx context.Context, token string) error {
	const query = `DELETE FROM reset_tokens WHERE token = $1`
	result, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpired removes every token past its expiry and reports how many
// rows went away. Invoked by the background sweep.
func (r *ResetTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM reset_tokens WHERE expires_at <= $1`
	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
