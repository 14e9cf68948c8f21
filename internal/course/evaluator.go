package course

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Service resolves whether a user holds sufficient standing on a course and
// owns the grant lifecycle around course membership.
type Service struct {
	store Store
}

func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("course: store is required")
	}
	return &Service{store: store}, nil
}

// CanManage reports whether the user meets the required level on the course
// identified by code. An absent course or grant fails with ErrNotFound —
// callers only invoke this for participants, so absence is an anomaly, not
// a negative answer.
func (s *Service) CanManage(ctx context.Context, courseCode, userID string, level AccessLevel) (bool, error) {
	courseCode = strings.TrimSpace(courseCode)
	userID = strings.TrimSpace(userID)
	if courseCode == "" || userID == "" {
		return false, fmt.Errorf("%w: course code and user id are required", ErrInvalidInput)
	}
	if !level.Valid() {
		return false, fmt.Errorf("%w: unknown access level %q", ErrInvalidInput, level)
	}

	c, err := s.store.FindCourseByCode(ctx, courseCode)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, fmt.Errorf("%w: course %s", ErrNotFound, strings.ToUpper(courseCode))
		}
		return false, err
	}
	grant, err := s.store.FindGrant(ctx, c.ID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, fmt.Errorf("%w: no grant on course %s", ErrNotFound, c.Code)
		}
		return false, err
	}

	// Each level reads its own flag verbatim. Ownership does not imply any
	// capability; course creation compensates by setting every flag on the
	// owner grant.
	switch level {
	case LevelOwner:
		return grant.Owner, nil
	case LevelCreateAssignments:
		return grant.CanCreateAssignments, nil
	case LevelModifyAssignments:
		return grant.CanModifyAssignments, nil
	case LevelGradeStudents:
		return grant.CanGradeStudents, nil
	case LevelManageUsers:
		return grant.CanManageUsers, nil
	}
	return false, nil
}

// CreateCourse registers the course and writes the owner grant with the full
// capability set.
func (s *Service) CreateCourse(ctx context.Context, c *Course, ownerID string) error {
	if c == nil || strings.TrimSpace(c.Code) == "" || strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("%w: course code and title are required", ErrInvalidInput)
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return fmt.Errorf("%w: owner id is required", ErrInvalidInput)
	}
	if err := s.store.CreateCourse(ctx, c); err != nil {
		return err
	}
	grant := &Grant{
		CourseID:             c.ID,
		UserID:               ownerID,
		Owner:                true,
		CanCreateAssignments: true,
		CanModifyAssignments: true,
		CanGradeStudents:     true,
		CanManageUsers:       true,
	}
	return s.store.InsertGrant(ctx, grant)
}

// AddInstructor attaches a user to the course with an empty capability set.
func (s *Service) AddInstructor(ctx context.Context, courseCode, userID string) (*Grant, error) {
	c, err := s.findCourse(ctx, courseCode)
	if err != nil {
		return nil, err
	}
	grant := &Grant{CourseID: c.ID, UserID: strings.TrimSpace(userID)}
	if grant.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if err := s.store.InsertGrant(ctx, grant); err != nil {
		return nil, err
	}
	return grant, nil
}

// UpdateGrant replaces the capability set of an existing grant.
func (s *Service) UpdateGrant(ctx context.Context, courseCode string, g *Grant) error {
	c, err := s.findCourse(ctx, courseCode)
	if err != nil {
		return err
	}
	g.CourseID = c.ID
	return s.store.UpdateGrant(ctx, g)
}

// RemoveInstructor deletes the user's grant on the course.
func (s *Service) RemoveInstructor(ctx context.Context, courseCode, userID string) error {
	c, err := s.findCourse(ctx, courseCode)
	if err != nil {
		return err
	}
	return s.store.DeleteGrant(ctx, c.ID, strings.TrimSpace(userID))
}

func (s *Service) findCourse(ctx context.Context, code string) (*Course, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: course code is required", ErrInvalidInput)
	}
	c, err := s.store.FindCourseByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: course %s", ErrNotFound, strings.ToUpper(code))
		}
		return nil, err
	}
	return c, nil
}
