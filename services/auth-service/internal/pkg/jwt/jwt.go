package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken wraps every verification failure. Callers should surface
// it as a plain "unauthorized" and keep the wrapped reason for logs.
var ErrInvalidToken = errors.New("invalid token")

// TokenClaims is the session payload: the user as subject plus the business
// the session is scoped to.
type TokenClaims struct {
	TenantID string `json:"tenant_id"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HS256 session tokens with a single secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

type Option func(*Manager)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(secret string, ttl time.Duration, issuer string, opts ...Option) *Manager {
	m := &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for subject within tenantID and returns it with its expiry.
func (m *Manager) Issue(subject, tenantID, email string) (string, time.Time, error) {
	if subject == "" || tenantID == "" {
		return "", time.Time{}, fmt.Errorf("subject and tenant are required")
	}

	now := m.now().UTC()
	expiresAt := now.Add(m.ttl)
	claims := &TokenClaims{
		TenantID: tenantID,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return token, claims.ExpiresAt.Time, nil
}

// Verify accepts only HS256 tokens signed with the manager's secret that are
// unexpired and carry both subject and tenant. It never panics on malformed
// input; every failure wraps ErrInvalidToken.
func (m *Manager) Verify(token string) (*TokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.TenantID == "" {
		return nil, fmt.Errorf("%w: missing subject or tenant", ErrInvalidToken)
	}

	return claims, nil
}
