package course

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("course: not found")
	ErrInvalidInput = errors.New("course: invalid input")
	ErrConflict     = errors.New("course: resource conflict")
)

// AccessLevel names one standing check against a course grant. Owner tests
// the ownership flag; every other level tests its own capability flag and is
// not implied by ownership.
type AccessLevel string

const (
	LevelOwner             AccessLevel = "owner"
	LevelCreateAssignments AccessLevel = "create_assignments"
	LevelModifyAssignments AccessLevel = "modify_assignments"
	LevelGradeStudents     AccessLevel = "grade_students"
	LevelManageUsers       AccessLevel = "manage_users"
)

// Valid reports whether the level is one of the known checks.
func (l AccessLevel) Valid() bool {
	switch l {
	case LevelOwner, LevelCreateAssignments, LevelModifyAssignments,
		LevelGradeStudents, LevelManageUsers:
		return true
	}
	return false
}

// Course is the resource grants attach to. Code is stored upper-cased and
// looked up case-insensitively.
type Course struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Grant records one user's standing on one course: the ownership flag plus
// an independent capability set. Composite key (course id, user id).
type Grant struct {
	CourseID             string `json:"course_id"`
	UserID               string `json:"user_id"`
	Owner                bool   `json:"owner"`
	CanCreateAssignments bool   `json:"can_create_assignments"`
	CanModifyAssignments bool   `json:"can_modify_assignments"`
	CanGradeStudents     bool   `json:"can_grade_students"`
	CanManageUsers       bool   `json:"can_manage_users"`
}
