// Package jwtx issues and verifies the HS256 session tokens used by the
// owner and admin API surface.
package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is the lifetime of a login session token.
const DefaultSessionTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("jwtx: invalid token")

// Claims are the session-token claims. Role mirrors domain.Role so the
// authorization middleware can gate routes without a database lookup.
type Claims struct {
	jwt.RegisteredClaims

	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
}

// Signer signs and verifies session tokens with a single shared secret.
type Signer struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// Sign mints a session token for the given profile.
func (s *Signer) Sign(profileID, email, role string, now time.Time) (string, error) {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.Issuer,
			Subject:   profileID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:  role,
		Email: email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token, returning its claims.
func (s *Signer) Verify(raw string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.Secret, nil
	}, jwt.WithIssuer(s.Issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
