package election

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists elections and their candidate lists in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const (
	pgUniqueViolation = "23505"
	pgFKViolation     = "23503"
)

// Create inserts an election with its candidates in one transaction.
// A voting link token collision surfaces as ErrDuplicateToken so the caller
// can regenerate and retry.
func (r *Repository) Create(ctx context.Context, e *Election) error {
	depts, err := json.Marshal(nonNil(e.DepartmentRestrictions))
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		INSERT INTO elections (id, title, description, start_date, end_date, is_active,
			faculty_restriction, department_restrictions, voting_link_token)
		VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,''),$8,$9)
		RETURNING created_at
	`, e.ID, e.Title, e.Description, e.StartDate, e.EndDate, e.IsActive,
		e.FacultyRestriction, depts, e.VotingLinkToken)
	if err := row.Scan(&e.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation &&
			strings.Contains(pgErr.ConstraintName, "voting_link_token") {
			return ErrDuplicateToken
		}
		return err
	}

	for _, c := range e.Candidates {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO candidates (id, election_id, name, votes, position)
			VALUES ($1,$2,$3,$4,$5)
		`, c.ID, e.ID, c.Name, c.Votes, c.Position); err != nil {
			return err
		}
	}

	return tx.Commit()
}

const electionColumns = `id, title, description, start_date, end_date, is_active,
	COALESCE(faculty_restriction, ''), department_restrictions, voting_link_token, created_at`

// Get returns an election by id with candidates loaded.
func (r *Repository) Get(ctx context.Context, id string) (*Election, error) {
	return r.findOne(ctx, `SELECT `+electionColumns+` FROM elections WHERE id = $1`, id)
}

// GetByToken resolves a public voting link token to its election.
func (r *Repository) GetByToken(ctx context.Context, token string) (*Election, error) {
	return r.findOne(ctx, `SELECT `+electionColumns+` FROM elections WHERE voting_link_token = $1`, token)
}

func (r *Repository) findOne(ctx context.Context, query string, arg any) (*Election, error) {
	e, err := scanElection(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, err
	}
	e.Candidates, err = r.loadCandidates(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	return e, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanElection(row rowScanner) (*Election, error) {
	var e Election
	var depts []byte
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.StartDate, &e.EndDate, &e.IsActive,
		&e.FacultyRestriction, &depts, &e.VotingLinkToken, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(depts) > 0 {
		if err := json.Unmarshal(depts, &e.DepartmentRestrictions); err != nil {
			return nil, err
		}
	}
	return &e, nil
}

func (r *Repository) loadCandidates(ctx context.Context, electionID string) ([]Candidate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, votes, position FROM candidates
		WHERE election_id = $1 ORDER BY position
	`, electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.ID, &c.Name, &c.Votes, &c.Position); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// List returns all elections newest-first.
func (r *Repository) List(ctx context.Context) ([]Election, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+electionColumns+` FROM elections ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Election
	for rows.Next() {
		e, err := scanElection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Candidates, err = r.loadCandidates(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Update rewrites the election row and reconciles its candidate list.
// Existing candidates keep their vote counters: the upsert never touches
// the votes column of a row that already exists.
func (r *Repository) Update(ctx context.Context, e *Election) error {
	depts, err := json.Marshal(nonNil(e.DepartmentRestrictions))
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE elections SET title = $2, description = $3, start_date = $4, end_date = $5,
			is_active = $6, faculty_restriction = NULLIF($7,''), department_restrictions = $8
		WHERE id = $1
	`, e.ID, e.Title, e.Description, e.StartDate, e.EndDate, e.IsActive,
		e.FacultyRestriction, depts)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	retained := make([]any, 0, len(e.Candidates)+1)
	retained = append(retained, e.ID)
	placeholders := make([]string, 0, len(e.Candidates))
	for i, c := range e.Candidates {
		retained = append(retained, c.ID)
		placeholders = append(placeholders, "$"+strconv.Itoa(i+2))
	}
	del := `DELETE FROM candidates WHERE election_id = $1`
	if len(placeholders) > 0 {
		del += ` AND id NOT IN (` + strings.Join(placeholders, ",") + `)`
	}
	if _, err := tx.ExecContext(ctx, del, retained...); err != nil {
		// Ledger entries reference candidates without a cascade, so a
		// candidate with recorded votes cannot leave the ballot.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgFKViolation {
			return fmt.Errorf("%w: cannot remove a candidate that already has votes", ErrValidation)
		}
		return err
	}

	for _, c := range e.Candidates {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO candidates (id, election_id, name, votes, position)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, position = EXCLUDED.position
		`, c.ID, e.ID, c.Name, c.Votes, c.Position); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// EndNow deactivates the election and closes its window immediately.
func (r *Repository) EndNow(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE elections SET is_active = FALSE, end_date = $2 WHERE id = $1
	`, id, at)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an election and cascades: its ledger entries, its rows in
// every user's voted set, its candidates, then the election itself.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM votes WHERE election_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM voted_elections WHERE election_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM candidates WHERE election_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM elections WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
