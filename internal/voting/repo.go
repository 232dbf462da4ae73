package voting

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists the vote ledger in Postgres and applies vote casts
// transactionally across the ledger, the tally and the voted set.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const pgUniqueViolation = "23505"

// Apply records a vote as a single transaction: append the ledger entry,
// increment the candidate tally by one, add the election to the voter's
// voted set. The ledger insert goes first so the UNIQUE(voter, election)
// constraint decides the winner of concurrent casts; the loser rolls back
// with ErrAlreadyVoted and no tally change.
func (r *Repository) Apply(ctx context.Context, v *Vote) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		INSERT INTO votes (id, voter_id, election_id, candidate_id)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, v.ID, v.VoterID, v.ElectionID, v.CandidateID)
	if err := row.Scan(&v.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrAlreadyVoted
		}
		return err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE candidates SET votes = votes + 1
		WHERE id = $1 AND election_id = $2
	`, v.CandidateID, v.ElectionID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrCandidateMissing
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO voted_elections (user_id, election_id)
		VALUES ($1,$2)
		ON CONFLICT DO NOTHING
	`, v.VoterID, v.ElectionID); err != nil {
		return err
	}

	return tx.Commit()
}

// ListByElection returns the election's ledger entries for audit, newest last.
func (r *Repository) ListByElection(ctx context.Context, electionID string) ([]Vote, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, voter_id, election_id, candidate_id, created_at
		FROM votes WHERE election_id = $1
		ORDER BY created_at
	`, electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Vote
	for rows.Next() {
		var v Vote
		if err := rows.Scan(&v.ID, &v.VoterID, &v.ElectionID, &v.CandidateID, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Remove deletes a ledger entry with full compensation: the candidate's
// tally goes back down and the election leaves the voter's voted set, in
// the same transaction. A bare row delete would break the tally/ledger
// consistency invariant.
func (r *Repository) Remove(ctx context.Context, voteID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v Vote
	err = tx.QueryRowContext(ctx, `
		SELECT voter_id, election_id, candidate_id FROM votes WHERE id = $1
	`, voteID).Scan(&v.VoterID, &v.ElectionID, &v.CandidateID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM votes WHERE id = $1`, voteID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE candidates SET votes = GREATEST(votes - 1, 0)
		WHERE id = $1 AND election_id = $2
	`, v.CandidateID, v.ElectionID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM voted_elections WHERE user_id = $1 AND election_id = $2
	`, v.VoterID, v.ElectionID); err != nil {
		return err
	}

	return tx.Commit()
}

// CountByElection returns the number of ledger entries for an election.
func (r *Repository) CountByElection(ctx context.Context, electionID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM votes WHERE election_id = $1
	`, electionID).Scan(&n)
	return n, err
}
