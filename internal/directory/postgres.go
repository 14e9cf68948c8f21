package directory

import (
	"context"
	"database/sql"
	"strings"

	"github.com/DiplomWorkHushchin/Server/internal/ids"
)

var _ Directory = (*PGDirectory)(nil)

// PGDirectory implements Directory using PostgreSQL.
type PGDirectory struct {
	db *sql.DB
}

func NewPGDirectory(db *sql.DB) *PGDirectory {
	return &PGDirectory{db: db}
}

const userColumns = `id, username, email, password_hash, first_name, last_name, father_name, group_id, created_at, updated_at`

func (d *PGDirectory) CreateUser(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	var groupID any
	if u.GroupID != "" {
		groupID = u.GroupID
	}
	_, err := d.db.ExecContext(ctx,
		`insert into users(id, username, email, password_hash, first_name, last_name, father_name, group_id)
		 values($1,$2,$3,$4,$5,$6,$7,$8)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.FatherName, groupID,
	)
	return err
}

func (d *PGDirectory) FindByID(ctx context.Context, id string) (*User, error) {
	row := d.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id=$1`, id)
	return scanUser(row)
}

func (d *PGDirectory) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := d.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where username=lower($1)`, strings.TrimSpace(username))
	return scanUser(row)
}

func (d *PGDirectory) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := d.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where email=lower($1)`, strings.TrimSpace(email))
	return scanUser(row)
}

func (d *PGDirectory) Roles(ctx context.Context, userID string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`select role from user_roles where user_id=$1 order by role`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (d *PGDirectory) AssignRole(ctx context.Context, userID, role string) error {
	_, err := d.db.ExecContext(ctx,
		`insert into user_roles(user_id, role) values($1,$2) on conflict do nothing`,
		userID, role,
	)
	return err
}

func (d *PGDirectory) EnsureGroup(ctx context.Context, name string) (*Group, error) {
	name = strings.TrimSpace(name)
	row := d.db.QueryRowContext(ctx,
		`select id, name, created_at from groups where name=$1`, name)
	var g Group
	err := row.Scan(&g.ID, &g.Name, &g.CreatedAt)
	if err == nil {
		return &g, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}
	g = Group{ID: ids.New(), Name: name}
	if _, err := d.db.ExecContext(ctx,
		`insert into groups(id, name) values($1,$2)`, g.ID, g.Name); err != nil {
		return nil, err
	}
	return &g, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u       User
		groupID sql.NullString
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &u.FatherName, &groupID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if groupID.Valid {
		u.GroupID = groupID.String
	}
	return &u, nil
}
