// Package token implements the session token service: issuing and verifying
// signed HS256 JWTs that carry identity and authorization claims. The
// signing secret is injected at construction so tests can run distinct
// secrets per scenario without cross-test leakage.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for every verification failure. Malformed,
// unsigned, tampered and expired tokens fail identically so callers cannot
// be used as an oracle by forgery attempts.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the payload embedded in every session token. Claims are visible
// (not encrypted) but tamper-evident through the HMAC signature.
type Claims struct {
	UserID      string   `json:"id"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	Rank        int      `json:"rank"`
	CompanyID   string   `json:"company_id,omitempty"`
	jwt.RegisteredClaims
}

// HasAnyPermission reports whether the identity holds at least one of the
// given permission names (logical OR).
func (c *Claims) HasAnyPermission(required ...string) bool {
	for _, want := range required {
		for _, have := range c.Permissions {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Service issues and verifies session tokens. Verification is pure and
// stateless; any process holding the same secret can verify tokens issued by
// any other instance.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService builds a Service from the shared signing secret and the token
// lifetime.
func NewService(secret string, ttl time.Duration) *Service {
	return &Service{secret: []byte(secret), ttl: ttl}
}

// Issue signs a fresh token embedding the user's id, role name, permission
// list, privilege rank and tenant id. It returns the serialized JWT and its
// expiry time.
func (s *Service) Issue(userID, role string, permissions []string, rank int, companyID string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(s.ttl)
	claims := &Claims{
		UserID:      userID,
		Role:        role,
		Permissions: permissions,
		Rank:        rank,
		CompanyID:   companyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify validates the signature and expiry of a serialized token and
// returns its claims. Every failure mode collapses into ErrInvalidToken.
func (s *Service) Verify(raw string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything but HMAC; an attacker must not
		// be able to downgrade the algorithm.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
