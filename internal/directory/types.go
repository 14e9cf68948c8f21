package directory

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("directory: not found")
	ErrAlreadyExists = errors.New("directory: already exists")
	ErrInvalidInput  = errors.New("directory: invalid input")
)

// Role names form a closed enumeration; registration rejects anything else.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// ValidRole reports whether name is one of the known role names.
func ValidRole(name string) bool {
	switch name {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// User is an account record owned by the directory. Username and Email are
// stored lower-cased; lookups are case-insensitive.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	FatherName   string
	GroupID      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Group is a named student cohort a user may belong to.
type Group struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
