package election

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

// Delete must remove the ledger, the voted-set rows and the candidates
// before the election, all inside one transaction.
func TestDeleteCascades(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM votes WHERE election_id`).
		WithArgs("e5").
		WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectExec(`DELETE FROM voted_elections WHERE election_id`).
		WithArgs("e5").
		WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectExec(`DELETE FROM candidates WHERE election_id`).
		WithArgs("e5").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM elections WHERE id`).
		WithArgs("e5").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewRepository(db)
	if err := repo.Delete(context.Background(), "e5"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteMissingElection(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM votes WHERE election_id`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM voted_elections WHERE election_id`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM candidates WHERE election_id`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM elections WHERE id`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	repo := NewRepository(db)
	if err := repo.Delete(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

// Replacing a candidate who already has ledger entries trips the FK from
// votes to candidates; that must surface as a validation error, not a
// raw database failure.
func TestUpdateRejectsRemovingVotedCandidate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE elections SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM candidates WHERE election_id`).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "votes_candidate_id_fkey"})
	mock.ExpectRollback()

	repo := NewRepository(db)
	e := &Election{
		ID:    "e1",
		Title: "SUG President",
		Candidates: []Candidate{
			{ID: "c2", Name: "Bisi"},
			{ID: "c9", Name: "Chidi"},
		},
	}
	err = repo.Update(context.Background(), e)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateMapsTokenCollision(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO elections`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "elections_voting_link_token_key"})
	mock.ExpectRollback()

	repo := NewRepository(db)
	e := &Election{
		ID:              "e1",
		Title:           "SUG President",
		VotingLinkToken: "tok",
		Candidates:      []Candidate{{ID: "c1", Name: "Ada"}, {ID: "c2", Name: "Bisi"}},
	}
	if err := repo.Create(context.Background(), e); !errors.Is(err, ErrDuplicateToken) {
		t.Fatalf("expected ErrDuplicateToken, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
