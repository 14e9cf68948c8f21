package course

import "context"

// Store persists courses and grants. Absence is reported as ErrNotFound.
type Store interface {
	CreateCourse(ctx context.Context, c *Course) error
	FindCourseByCode(ctx context.Context, code string) (*Course, error)
	DeleteCourse(ctx context.Context, id string) error

	InsertGrant(ctx context.Context, g *Grant) error
	FindGrant(ctx context.Context, courseID, userID string) (*Grant, error)
	UpdateGrant(ctx context.Context, g *Grant) error
	DeleteGrant(ctx context.Context, courseID, userID string) error
}
