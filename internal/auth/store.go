package auth

import "context"

// SessionStore persists refresh credentials, one record per issued
// credential keyed by owning user. Absence is reported as ErrNotFound.
type SessionStore interface {
	Insert(ctx context.Context, rec *RefreshCredential) error

	// FindLiveByUser returns the user's unexpired credential, if any.
	FindLiveByUser(ctx context.Context, userID string) (*RefreshCredential, error)
	FindByValue(ctx context.Context, value string) (*RefreshCredential, error)

	DeleteAllForUser(ctx context.Context, userID string) error
	Delete(ctx context.Context, id string) error

	// Rotate deletes every credential owned by the user and inserts rec as
	// a single logical unit.
	Rotate(ctx context.Context, rec *RefreshCredential) error

	// Consume atomically deletes the live credential whose value matches and
	// reports whether this caller removed it. Of two concurrent refreshes
	// presenting the same value, exactly one observes true.
	Consume(ctx context.Context, userID, value string) (bool, error)
}
