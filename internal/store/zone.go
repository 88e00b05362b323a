package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/irrigafacil/apiserver/types"
)

// ZoneRepository handles persistence for irrigation zones. Every query is
// tenant-scoped: a zone is only visible to the tenant that owns it.
type ZoneRepository struct {
	db *sql.DB
}

func NewZoneRepository(db *sql.DB) *ZoneRepository {
	return &ZoneRepository{db: db}
}

func (r *ZoneRepository) ListByTenant(ctx context.Context, tenantID string) ([]types.Zone, error) {
	const query = `
		SELECT id, tenant_id, name, active, created_at, updated_at
		FROM zones
		WHERE tenant_id = $1
		ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	zones := []types.Zone{}
	for rows.Next() {
		var zone types.Zone
		if err := rows.Scan(
			&zone.ID,
			&zone.TenantID,
			&zone.Name,
			&zone.Active,
			&zone.CreatedAt,
			&zone.UpdatedAt,
		); err != nil {
			return nil, err
		}
		zones = append(zones, zone)
	}
	return zones, rows.Err()
}

func (r *ZoneRepository) GetByID(ctx context.Context, tenantID, id string) (types.Zone, error) {
	const query = `
		SELECT id, tenant_id, name, active, created_at, updated_at
		FROM zones
		WHERE id = $1 AND tenant_id = $2`
	var zone types.Zone
	err := r.db.QueryRowContext(ctx, query, id, tenantID).Scan(
		&zone.ID,
		&zone.TenantID,
		&zone.Name,
		&zone.Active,
		&zone.CreatedAt,
		&zone.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Zone{}, ErrNotFound
		}
		return types.Zone{}, err
	}
	return zone, nil
}

func (r *ZoneRepository) Create(ctx context.Context, zone types.Zone) (types.Zone, error) {
	now := time.Now()
	zone.ID = uuid.NewString()
	zone.CreatedAt = now
	zone.UpdatedAt = now

	const query = `
		INSERT INTO zones (id, tenant_id, name, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		zone.ID,
		zone.TenantID,
		zone.Name,
		zone.Active,
		zone.CreatedAt,
		zone.UpdatedAt,
	); err != nil {
		return types.Zone{}, err
	}
	return zone, nil
}

func (r *ZoneRepository) Delete(ctx context.Context, tenantID, id string) error {
	const query = `DELETE FROM zones WHERE id = $1 AND tenant_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, tenantID)
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
