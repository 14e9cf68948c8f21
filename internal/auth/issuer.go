package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/DiplomWorkHushchin/Server/internal/config"
	"github.com/DiplomWorkHushchin/Server/internal/directory"
	"github.com/DiplomWorkHushchin/Server/internal/ids"
	"github.com/DiplomWorkHushchin/Server/internal/obs"
)

const refreshValueBytes = 32

// Claims is the access token claim set: subject is the username, plus one
// role entry per current membership.
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Issuer builds signed access tokens and opaque refresh credentials, and
// owns rotation. The signing key is immutable after construction.
type Issuer struct {
	key        []byte
	directory  directory.Directory
	sessions   SessionStore
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// IssuerOption configures Issuer behavior.
type IssuerOption func(*Issuer)

// WithIssuerClock overrides the time source (useful for tests).
func WithIssuerClock(fn func() time.Time) IssuerOption {
	return func(i *Issuer) {
		if fn != nil {
			i.now = fn
		}
	}
}

// NewIssuer constructs an Issuer. A missing or undersized signing key is a
// boot-time configuration error; the process must not serve requests.
func NewIssuer(cfg config.Config, dir directory.Directory, sessions SessionStore, opts ...IssuerOption) (*Issuer, error) {
	if len(cfg.TokenKey) < config.MinTokenKeyLength {
		return nil, fmt.Errorf("%w: signing key must be at least %d bytes",
			config.ErrShortTokenKey, config.MinTokenKeyLength)
	}
	if dir == nil || sessions == nil {
		return nil, fmt.Errorf("%w: directory and session store are required", ErrInvalidInput)
	}
	i := &Issuer{
		key:        cfg.TokenKey,
		directory:  dir,
		sessions:   sessions,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// IssuePair signs a fresh HS512 access token for the user and rotates their
// refresh credential: every prior credential is superseded before the new
// one becomes visible. The access token is never stored.
func (i *Issuer) IssuePair(ctx context.Context, user *directory.User) (string, *RefreshCredential, error) {
	roles, err := i.directory.Roles(ctx, user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("load roles: %w", err)
	}

	now := i.now().UTC()
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(i.key)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	value, err := generateRefreshValue()
	if err != nil {
		return "", nil, err
	}
	rec := &RefreshCredential{
		ID:        ids.New(),
		Value:     value,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(i.refreshTTL),
	}
	if err := i.sessions.Rotate(ctx, rec); err != nil {
		return "", nil, fmt.Errorf("rotate refresh credential: %w", err)
	}
	obs.ObserveRotation()
	return signed, rec, nil
}

func generateRefreshValue() (string, error) {
	buf := make([]byte, refreshValueBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh value: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
