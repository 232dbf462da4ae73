package voting

import (
	"errors"
	"time"
)

// Vote is one append-only ledger entry. At most one exists per
// (voter, election) pair; the pair is unique at the storage level.
type Vote struct {
	ID          string    `json:"id"`
	VoterID     string    `json:"voterId"`
	ElectionID  string    `json:"electionId"`
	CandidateID string    `json:"candidateId"`
	CreatedAt   time.Time `json:"createdAt"`
}

var (
	// ErrAlreadyVoted is the authoritative duplicate signal: the ledger
	// refused a second entry for the same (voter, election) pair.
	ErrAlreadyVoted = errors.New("vote already recorded for this election")

	// ErrNotFound indicates an unknown ledger entry.
	ErrNotFound = errors.New("vote not found")

	// ErrCandidateMissing indicates the tally update matched no candidate row.
	ErrCandidateMissing = errors.New("candidate not found in election")

	// ErrNotEnded gates results until the voting window has closed.
	ErrNotEnded = errors.New("election has not yet ended")
)

// IneligibleError carries the human-readable reason a vote was refused.
type IneligibleError struct {
	Reason string
}

func (e *IneligibleError) Error() string { return e.Reason }
