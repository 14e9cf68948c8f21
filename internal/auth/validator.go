package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/DiplomWorkHushchin/Server/internal/config"
)

// Validator decodes access tokens. Lenient mode recovers identity from an
// expired token during refresh; strict mode backs the request-authentication
// boundary.
type Validator struct {
	key []byte
	now func() time.Time
}

// ValidatorOption configures Validator behavior.
type ValidatorOption func(*Validator)

// WithValidatorClock overrides the time source (useful for tests).
func WithValidatorClock(fn func() time.Time) ValidatorOption {
	return func(v *Validator) {
		if fn != nil {
			v.now = fn
		}
	}
}

// NewValidator constructs a Validator sharing the issuer's signing key and
// clock domain.
func NewValidator(key []byte, opts ...ValidatorOption) (*Validator, error) {
	if len(key) < config.MinTokenKeyLength {
		return nil, fmt.Errorf("%w: signing key must be at least %d bytes",
			config.ErrShortTokenKey, config.MinTokenKeyLength)
	}
	v := &Validator{key: key, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

func (v *Validator) keyFunc(t *jwt.Token) (any, error) {
	if t.Method != jwt.SigningMethodHS512 {
		return nil, ErrInvalidToken
	}
	return v.key, nil
}

// ValidateLenient checks signature, structure and signing algorithm identity
// but deliberately skips expiry and issuer/audience checks. It returns nil
// on any malformed or mis-signed input: that is an expected outcome during
// refresh, not a fault.
func (v *Validator) ValidateLenient(token string) *Principal {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	parsed, err := parser.ParseWithClaims(token, &Claims{}, v.keyFunc)
	if err != nil {
		return nil
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil
	}
	return &Principal{Username: claims.Subject, Roles: claims.Roles}
}

// ValidateStrict is ValidateLenient plus expiry: expired or otherwise
// invalid tokens fail with ErrInvalidToken.
func (v *Validator) ValidateStrict(token string) (*Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	)
	parsed, err := parser.ParseWithClaims(token, &Claims{}, v.keyFunc)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	return &Principal{Username: claims.Subject, Roles: claims.Roles}, nil
}
