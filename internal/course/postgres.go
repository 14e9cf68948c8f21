package course

import (
	"context"
	"database/sql"
	"strings"

	"github.com/DiplomWorkHushchin/Server/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) CreateCourse(ctx context.Context, c *Course) error {
	if c.ID == "" {
		c.ID = ids.New()
	}
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	_, err := s.db.ExecContext(ctx,
		`insert into courses(id, code, title, description, category)
		 values($1,$2,$3,$4,$5)`,
		c.ID, c.Code, c.Title, c.Description, c.Category,
	)
	return err
}

func (s *PGStore) FindCourseByCode(ctx context.Context, code string) (*Course, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, code, title, description, category, created_at
		 from courses where code=upper($1)`, strings.TrimSpace(code))
	var c Course
	err := row.Scan(&c.ID, &c.Code, &c.Title, &c.Description, &c.Category, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *PGStore) DeleteCourse(ctx context.Context, id string) error {
	// course_grants rows go with the course via the FK cascade
	_, err := s.db.ExecContext(ctx, `delete from courses where id=$1`, id)
	return err
}

func (s *PGStore) InsertGrant(ctx context.Context, g *Grant) error {
	_, err := s.db.ExecContext(ctx,
		`insert into course_grants(course_id, user_id, owner, can_create_assignments,
		   can_modify_assignments, can_grade_students, can_manage_users)
		 values($1,$2,$3,$4,$5,$6,$7)`,
		g.CourseID, g.UserID, g.Owner, g.CanCreateAssignments,
		g.CanModifyAssignments, g.CanGradeStudents, g.CanManageUsers,
	)
	return err
}

func (s *PGStore) FindGrant(ctx context.Context, courseID, userID string) (*Grant, error) {
	row := s.db.QueryRowContext(ctx,
		`select course_id, user_id, owner, can_create_assignments,
		   can_modify_assignments, can_grade_students, can_manage_users
		 from course_grants where course_id=$1 and user_id=$2`, courseID, userID)
	var g Grant
	err := row.Scan(&g.CourseID, &g.UserID, &g.Owner, &g.CanCreateAssignments,
		&g.CanModifyAssignments, &g.CanGradeStudents, &g.CanManageUsers)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (s *PGStore) UpdateGrant(ctx context.Context, g *Grant) error {
	res, err := s.db.ExecContext(ctx,
		`update course_grants set owner=$3, can_create_assignments=$4,
		   can_modify_assignments=$5, can_grade_students=$6, can_manage_users=$7
		 where course_id=$1 and user_id=$2`,
		g.CourseID, g.UserID, g.Owner, g.CanCreateAssignments,
		g.CanModifyAssignments, g.CanGradeStudents, g.CanManageUsers,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) DeleteGrant(ctx context.Context, courseID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`delete from course_grants where course_id=$1 and user_id=$2`, courseID, userID)
	return err
}
