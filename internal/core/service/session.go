package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/JoyBrar2001/advanced-auth/internal/core/domain"
)

// defaultSessionTTL matches the cookie lifetime handed to clients.
const defaultSessionTTL = 7 * 24 * time.Hour

// SessionIssuer mints and validates the stateless session credential: an
// HS256-signed JWT asserting a user id. There is no server-side session
// table; validity is computed from signature and expiry alone, so a token
// stays cryptographically valid until it expires even after logout.
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionIssuer(secret string, ttl time.Duration) *SessionIssuer {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionIssuer{secret: []byte(secret), ttl: ttl}
}

// TTL returns the lifetime of issued credentials; the cookie carrier uses it
// for its max-age.
func (s *SessionIssuer) TTL() time.Duration { return s.ttl }

// Issue signs a session credential bound to userID.
func (s *SessionIssuer) Issue(userID string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

// Validate verifies signature and expiry and returns the asserted user id.
// It fails closed: any malformed, expired, or tampered credential yields
// domain.ErrUnauthenticated.
func (s *SessionIssuer) Validate(credential string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(credential, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", domain.ErrUnauthenticated
	}
	return claims.Subject, nil
}
