package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	envAddr       = "SERVER_ADDR"
	envPGDSN      = "SERVER_PG_DSN"
	envTokenKey   = "SERVER_TOKEN_KEY"
	envAccessTTL  = "SERVER_ACCESS_TTL"
	envRefreshTTL = "SERVER_REFRESH_TTL"

	defaultAddr       = ":8080"
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour

	// MinTokenKeyLength is the minimum byte length of the HS512 signing key.
	MinTokenKeyLength = 64
)

var (
	// ErrMissingTokenKey indicates the signing key is not configured. The
	// process must not serve requests in that state.
	ErrMissingTokenKey = errors.New("config: token key is not configured")
	// ErrShortTokenKey indicates the configured signing key is below the
	// required minimum length.
	ErrShortTokenKey = errors.New("config: token key is too short")
)

// Config holds the immutable process configuration. It is built once at
// startup and passed explicitly to the components that need it; there is no
// ambient/global access and no runtime mutation.
type Config struct {
	Addr       string
	PGDSN      string
	TokenKey   []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Load reads configuration from the environment and validates it. A missing
// or undersized token key is a boot-time error, never a per-request one.
func Load() (Config, error) {
	cfg := Config{
		Addr:       envOrDefault(envAddr, defaultAddr),
		PGDSN:      strings.TrimSpace(os.Getenv(envPGDSN)),
		AccessTTL:  defaultAccessTTL,
		RefreshTTL: defaultRefreshTTL,
	}

	key := os.Getenv(envTokenKey)
	if strings.TrimSpace(key) == "" {
		return Config{}, ErrMissingTokenKey
	}
	if len(key) < MinTokenKeyLength {
		return Config{}, fmt.Errorf("%w: got %d bytes, need at least %d",
			ErrShortTokenKey, len(key), MinTokenKeyLength)
	}
	cfg.TokenKey = []byte(key)

	if raw := strings.TrimSpace(os.Getenv(envAccessTTL)); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return Config{}, fmt.Errorf("config: invalid %s: %q", envAccessTTL, raw)
		}
		cfg.AccessTTL = ttl
	}
	if raw := strings.TrimSpace(os.Getenv(envRefreshTTL)); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return Config{}, fmt.Errorf("config: invalid %s: %q", envRefreshTTL, raw)
		}
		cfg.RefreshTTL = ttl
	}

	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}
