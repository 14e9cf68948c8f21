package auth

import (
	"context"
	"database/sql"
)

var _ SessionStore = (*PGSessionStore)(nil)

// PGSessionStore implements SessionStore using PostgreSQL.
type PGSessionStore struct {
	db *sql.DB
}

func NewPGSessionStore(db *sql.DB) *PGSessionStore {
	return &PGSessionStore{db: db}
}

const refreshColumns = `id, user_id, value, created_at, expires_at`

func (s *PGSessionStore) Insert(ctx context.Context, rec *RefreshCredential) error {
	_, err := s.db.ExecContext(ctx,
		`insert into refresh_tokens(id, user_id, value, created_at, expires_at)
		 values($1,$2,$3,$4,$5)`,
		rec.ID, rec.UserID, rec.Value, rec.CreatedAt, rec.ExpiresAt,
	)
	return err
}

func (s *PGSessionStore) FindLiveByUser(ctx context.Context, userID string) (*RefreshCredential, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+refreshColumns+` from refresh_tokens
		 where user_id=$1 and expires_at > now()
		 order by created_at desc limit 1`, userID)
	return scanRefresh(row)
}

func (s *PGSessionStore) FindByValue(ctx context.Context, value string) (*RefreshCredential, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+refreshColumns+` from refresh_tokens where value=$1`, value)
	return scanRefresh(row)
}

func (s *PGSessionStore) DeleteAllForUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `delete from refresh_tokens where user_id=$1`, userID)
	return err
}

func (s *PGSessionStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `delete from refresh_tokens where id=$1`, id)
	return err
}

// Rotate supersedes every credential owned by the user before the new one
// becomes visible, in one transaction.
func (s *PGSessionStore) Rotate(ctx context.Context, rec *RefreshCredential) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`delete from refresh_tokens where user_id=$1`, rec.UserID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`insert into refresh_tokens(id, user_id, value, created_at, expires_at)
		 values($1,$2,$3,$4,$5)`,
		rec.ID, rec.UserID, rec.Value, rec.CreatedAt, rec.ExpiresAt); err != nil {
		return err
	}
	return tx.Commit()
}

// Consume deletes the matching live credential; the affected-row count tells
// concurrent callers apart.
func (s *PGSessionStore) Consume(ctx context.Context, userID, value string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`delete from refresh_tokens where user_id=$1 and value=$2 and expires_at > now()`,
		userID, value)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func scanRefresh(row *sql.Row) (*RefreshCredential, error) {
	var rec RefreshCredential
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Value, &rec.CreatedAt, &rec.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}
