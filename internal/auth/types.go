package auth

import (
	"time"

	"github.com/DiplomWorkHushchin/Server/internal/directory"
)

// RefreshCredential is the persisted half of a session: a long-lived opaque
// secret exchanged for a new access token and rotated on each use. At most
// one live credential exists per user.
type RefreshCredential struct {
	ID        string
	Value     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Live reports whether the credential has not yet expired at the given time.
func (c *RefreshCredential) Live(now time.Time) bool {
	return now.Before(c.ExpiresAt)
}

// Principal is the identity recovered from an access token.
type Principal struct {
	Username string
	Roles    []string
}

// Session is the view returned to the HTTP boundary after a successful
// login, registration or refresh.
type Session struct {
	AccessToken string
	Refresh     *RefreshCredential
	User        *directory.User
	Roles       []string
}
