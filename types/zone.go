package types

import "time"

// Zone is an irrigation zone owned by a tenant. Only the fields the API
// surface needs are modeled; scheduling logic lives outside this service.
type Zone struct {
	ID        string    `json:"id" db:"id"`
	TenantID  string    `json:"tenantId" db:"tenant_id"`
	Name      string    `json:"nome" db:"name"`
	Active    bool      `json:"ativa" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
