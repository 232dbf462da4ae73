package identity

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists user accounts in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const pgUniqueViolation = "23505"

// Create inserts a new account. Duplicate matric number, username or email
// surfaces as a ConflictError naming the offending field.
func (r *Repository) Create(ctx context.Context, u *User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, matric_no, username, email, password_hash, faculty, department, role)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, u.ID, u.MatricNo, u.Username, u.Email, u.PasswordHash, u.Faculty, u.Department, u.Role)
	if err != nil {
		if field, ok := conflictField(err); ok {
			return &ConflictError{Field: field}
		}
		return err
	}
	return nil
}

func conflictField(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return "", false
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "matric"):
		return "matric number", true
	case strings.Contains(pgErr.ConstraintName, "username"):
		return "username", true
	case strings.Contains(pgErr.ConstraintName, "email"):
		return "email", true
	}
	return "account", true
}

const userColumns = `id, matric_no, username, email, password_hash, faculty, department, role, created_at`

// FindByID returns a user with their voted set loaded.
func (r *Repository) FindByID(ctx context.Context, id string) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByMatric returns a user by matric number with their voted set loaded.
func (r *Repository) FindByMatric(ctx context.Context, matricNo string) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE matric_no = $1`, matricNo)
}

func (r *Repository) findOne(ctx context.Context, query string, arg any) (*User, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	var u User
	err := row.Scan(&u.ID, &u.MatricNo, &u.Username, &u.Email, &u.PasswordHash,
		&u.Faculty, &u.Department, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	voted, err := r.votedSet(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.VotedElections = voted
	return &u, nil
}

func (r *Repository) votedSet(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT election_id FROM voted_elections WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdatePassword replaces the stored password hash.
func (r *Repository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $2 WHERE id = $1
	`, userID, passwordHash)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
