package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DemoTokenPrefix marks credentials minted by a DemoIssuer.
const DemoTokenPrefix = "demo-"

const demoSubject = "demo-session"

// ErrInvalidDemoToken is returned for demo credentials this service did not mint.
var ErrInvalidDemoToken = errors.New("invalid demo token")

// IsDemoToken reports whether token claims to be a demo credential.
func IsDemoToken(token string) bool {
	return strings.HasPrefix(token, DemoTokenPrefix)
}

// DemoIssuer mints and verifies signed demo credentials.
type DemoIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewDemoIssuer creates a DemoIssuer signing with secretKey. Tokens expire
// after ttl.
func NewDemoIssuer(secretKey string, ttl time.Duration) *DemoIssuer {
	return &DemoIssuer{key: []byte(secretKey), ttl: ttl, now: time.Now}
}

// Issue returns a new demo credential.
func (d *DemoIssuer) Issue() (string, error) {
	now := d.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   demoSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(d.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(d.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign demo token: %w", err)
	}
	return DemoTokenPrefix + signed, nil
}

// Verify checks that token was minted by this issuer and has not expired.
func (d *DemoIssuer) Verify(token string) error {
	if !IsDemoToken(token) {
		return ErrInvalidDemoToken
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(strings.TrimPrefix(token, DemoTokenPrefix), &claims, func(t *jwt.Token) (interface{}, error) {
		return d.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithSubject(demoSubject),
		jwt.WithTimeFunc(d.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDemoToken, err)
	}
	return nil
}
