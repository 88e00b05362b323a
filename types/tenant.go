package types

import "time"

// Tenant is the isolation boundary grouping a user's owned resources
// (zones, schedules, history). One tenant is created per local signup.
type Tenant struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"nome" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
