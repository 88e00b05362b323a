package services

import (
	"context"

	"github.com/irrigafacil/apiserver/types"
)

// ZoneRepository defines persistence operations for irrigation zones.
type ZoneRepository interface {
	ListByTenant(ctx context.Context, tenantID string) ([]types.Zone, error)
	GetByID(ctx context.Context, tenantID, id string) (types.Zone, error)
	Create(ctx context.Context, zone types.Zone) (types.Zone, error)
	Delete(ctx context.Context, tenantID, id string) error
}

// ZoneService encapsulates zone use-cases. Every operation is scoped to the
// caller's tenant; cross-tenant access reads as not-found.
type ZoneService struct {
	repo ZoneRepository
}

func NewZoneService(repo ZoneRepository) *ZoneService {
	return &ZoneService{repo: repo}
}

func (s *ZoneService) List(ctx context.Context, tenantID string) ([]types.Zone, error) {
	return s.repo.ListByTenant(ctx, tenantID)
}

func (s *ZoneService) Get(ctx context.Context, tenantID, id string) (types.Zone, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *ZoneService) Create(ctx context.Context, tenantID, name string, active bool) (types.Zone, error) {
	return s.repo.Create(ctx, types.Zone{
		TenantID: tenantID,
		Name:     name,
		Active:   active,
	})
}

func (s *ZoneService) Delete(ctx context.Context, tenantID, id string) error {
	return s.repo.Delete(ctx, tenantID, id)
}
