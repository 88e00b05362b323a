package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/irrigafacil/apiserver/types"
)

const userColumns = `id, name, email, COALESCE(password_hash, ''), COALESCE(google_id, ''), COALESCE(facebook_id, ''), tenant_id, created_at, updated_at`

// providerColumns maps an identity provider name to the user column holding
// its subject identifier. Only listed providers are queryable.
var providerColumns = map[string]string{
	"google":   "google_id",
	"facebook": "facebook_id",
}

// UserRepository handles persistence for users and their tenants.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return r.queryUser(ctx, query, id)
}

// GetByEmail looks a user up by case-normalized email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = lower($1)`, userColumns)
	return r.queryUser(ctx, query, email)
}

// GetByProvider looks a user up by an external provider's subject id.
func (r *UserRepository) GetByProvider(ctx context.Context, provider, providerID string) (types.User, error) {
	column, ok := providerColumns[provider]
	if !ok {
		return types.User{}, ErrUnknownProvider
	}
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, column)
	return r.queryUser(ctx, query, providerID)
}

// CreateWithTenant inserts a new tenant and its owning user in a single
// transaction, so signup never leaves one without the other.
func (r *UserRepository) CreateWithTenant(ctx context.Context, user types.User, tenantName string) (types.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.User{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	user.ID = uuid.NewString()
	user.TenantID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	const tenantQuery = `
		INSERT INTO tenants (id, name, created_at)
		VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, tenantQuery, user.TenantID, tenantName, now); err != nil {
		return types.User{}, err
	}

	const userQuery = `
		INSERT INTO users (id, name, email, password_hash, google_id, facebook_id, tenant_id, created_at, updated_at)
		VALUES ($1, $2, lower($3), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9)`
	if _, err := tx.ExecContext(
		ctx,
		userQuery,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.GoogleID,
		user.FacebookID,
		user.TenantID,
		user.CreatedAt,
		user.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return types.User{}, ErrDuplicateEmail
		}
		return types.User{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.User{}, err
	}
	return user, nil
}

// LinkProvider attaches an external provider's subject id to an existing
// user. Only an empty slot is written; a user already linked to another
// subject for the same provider is reported as ErrNotFound.
func (r *UserRepository) LinkProvider(ctx context.Context, userID, provider, providerID string) error {
	column, ok := providerColumns[provider]
	if !ok {
		return ErrUnknownProvider
	}
	query := fmt.Sprintf(`
		UPDATE users
		SET %s = $1,
			updated_at = $2
		WHERE id = $3 AND %s IS NULL`, column, column)
	result, err := r.db.ExecContext(ctx, query, providerID, time.Now(), userID)
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

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	const query = `
		UPDATE users
		SET password_hash = $1,
			updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, passwordHash, time.Now(), userID)
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

func (r *UserRepository) queryUser(ctx context.Context, query string, arg any) (types.User, error) {
	var user types.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.GoogleID,
		&user.FacebookID,
		&user.TenantID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}
