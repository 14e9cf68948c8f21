package directory

import "context"

// Directory confirms credentials and owns user, role and group records. The
// auth core consults it but never mutates users except through CreateUser
// during registration.
type Directory interface {
	CreateUser(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Roles returns the user's current role memberships, queried fresh.
	Roles(ctx context.Context, userID string) ([]string, error)
	AssignRole(ctx context.Context, userID, role string) error

	// EnsureGroup resolves a group by name, creating it when absent.
	EnsureGroup(ctx context.Context, name string) (*Group, error)
}
