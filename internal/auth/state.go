package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// StateTTL bounds the time between /login and /callback.
const StateTTL = 10 * time.Minute

// ErrInvalidState is returned when the callback state does not match the
// state issued at login.
var ErrInvalidState = errors.New("invalid OAuth state")

// StateIssuer mints anti-forgery state values for the authorization flow.
// The nonce travels to the provider in the state parameter; a signed token
// carrying the same nonce is kept in a cookie and checked on return.
type StateIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewStateIssuer creates a StateIssuer signing with secretKey.
func NewStateIssuer(secretKey string) *StateIssuer {
	return &StateIssuer{key: []byte(secretKey), ttl: StateTTL, now: time.Now}
}

// TTL is the lifetime of issued state tokens.
func (s *StateIssuer) TTL() time.Duration {
	return s.ttl
}

// Issue returns a fresh nonce and the signed token to store in the cookie.
func (s *StateIssuer) Issue() (nonce, signed string, err error) {
	nonce = uuid.NewString()
	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        nonce,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	signed, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign state: %w", err)
	}
	return nonce, signed, nil
}

// Verify checks that signed is a valid, unexpired state token for nonce.
func (s *StateIssuer) Verify(signed, nonce string) error {
	if signed == "" || nonce == "" {
		return ErrInvalidState
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(signed, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if claims.ID != nonce {
		return ErrInvalidState
	}
	return nil
}
