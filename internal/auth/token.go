package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the identity facts embedded in a session token: the subject
// user id (registered "sub" claim) plus the tenant the user belongs to.
// Every token this service issues includes the tenant id.
type Claims struct {
	TenantID string `json:"tenantId"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 session tokens. It is TTL-agnostic:
// each call site picks the lifetime appropriate to its flow. Verification is
// pure and safe for concurrent use.
type TokenService struct {
	secret []byte
}

// NewTokenService constructs a TokenService. The secret must be non-empty;
// an unsigned or default-signed token is never acceptable.
func NewTokenService(secret string) (*TokenService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// Issue mints a signed token for the given user and tenant, valid for ttl.
func (s *TokenService) Issue(userID, tenantID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks signature integrity before inspecting claims, then expiry.
// Failures map to ErrTokenMalformed, ErrTokenSignature or ErrTokenExpired;
// the HTTP boundary must collapse all three into one generic response.
func (s *TokenService) Verify(tokenString string) (Claims, error) {
	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenSignature
		}
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrTokenSignature
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, ErrTokenMalformed
		default:
			return Claims{}, ErrTokenSignature
		}
	}
	if !token.Valid {
		return Claims{}, ErrTokenSignature
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, ErrTokenMalformed
	}
	return claims, nil
}
