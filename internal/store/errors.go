package store

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail is returned when a user insert violates the email
	// uniqueness constraint.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrUnknownProvider is returned for a provider name with no mapped
	// identifier column.
	ErrUnknownProvider = errors.New("unknown identity provider")
)

// uniqueViolation is the Postgres error code for unique constraint failures.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}
