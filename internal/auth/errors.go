package auth

import "errors"

var (
	// ErrMissingSecret is returned when a token service is constructed
	// without a signing secret. This is a fatal misconfiguration.
	ErrMissingSecret = errors.New("signing secret is required")

	// ErrTokenMalformed is returned for tokens that are not structurally
	// valid JWTs.
	ErrTokenMalformed = errors.New("token is malformed")

	// ErrTokenSignature is returned for tokens whose signature does not
	// verify against the server secret.
	ErrTokenSignature = errors.New("token signature is invalid")

	// ErrTokenExpired is returned for well-formed, correctly signed tokens
	// that are past their expiry.
	ErrTokenExpired = errors.New("token is expired")
)
