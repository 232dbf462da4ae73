package voting

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Godszeal/votting-sub000/internal/election"
	"github.com/Godszeal/votting-sub000/internal/identity"
)

// UserStore is the identity lookup the workflow needs.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*identity.User, error)
}

// ElectionStore is the election lookup the workflow needs.
type ElectionStore interface {
	Get(ctx context.Context, id string) (*election.Election, error)
	List(ctx context.Context) ([]election.Election, error)
}

// Ledger is the vote persistence the workflow needs.
type Ledger interface {
	Apply(ctx context.Context, v *Vote) error
	ListByElection(ctx context.Context, electionID string) ([]Vote, error)
	Remove(ctx context.Context, voteID string) error
}

// Service orchestrates the voting workflow: eligibility, candidate
// resolution and the exactly-once application of a vote.
type Service struct {
	users     UserStore
	elections ElectionStore
	ledger    Ledger
	now       func() time.Time
}

// NewService creates a workflow service.
func NewService(users UserStore, elections ElectionStore, ledger Ledger) *Service {
	return &Service{
		users:     users,
		elections: elections,
		ledger:    ledger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CastVote applies one vote for the authenticated user. On success it
// returns the election with the updated tally. Retrying an identical
// request yields ErrAlreadyVoted, never a second count.
func (s *Service) CastVote(ctx context.Context, userID, electionID, candidateID string) (*election.Election, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	e, err := s.elections.Get(ctx, electionID)
	if err != nil {
		return nil, err
	}

	if v := Evaluate(u, e, s.now()); !v.Eligible {
		return nil, &IneligibleError{Reason: v.Reason}
	}
	if _, ok := e.CandidateByID(candidateID); !ok {
		return nil, &IneligibleError{Reason: "unknown candidate"}
	}

	vote := &Vote{
		ID:          uuid.NewString(),
		VoterID:     u.ID,
		ElectionID:  e.ID,
		CandidateID: candidateID,
	}
	if err := s.ledger.Apply(ctx, vote); err != nil {
		return nil, err
	}

	// Reload so the summary reflects the committed tally.
	return s.elections.Get(ctx, electionID)
}

// CheckEligibility answers the "can I vote" pre-check with the same logic
// that guards CastVote.
func (s *Service) CheckEligibility(ctx context.Context, userID, electionID string) (Verdict, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return Verdict{}, err
	}
	e, err := s.elections.Get(ctx, electionID)
	if err != nil {
		return Verdict{}, err
	}
	return Evaluate(u, e, s.now()), nil
}

// EligibleElections lists the elections the user may currently vote in.
func (s *Service) EligibleElections(ctx context.Context, userID string) ([]election.Election, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	all, err := s.elections.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	eligible := make([]election.Election, 0, len(all))
	for _, e := range all {
		if Evaluate(u, &e, now).Eligible {
			eligible = append(eligible, e)
		}
	}
	return eligible, nil
}

// Results returns the final tallies. Until the election has ended it
// returns ErrNotEnded.
func (s *Service) Results(ctx context.Context, electionID string) (*election.Election, error) {
	e, err := s.elections.Get(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if !e.HasEnded(s.now()) {
		return nil, ErrNotEnded
	}
	return e, nil
}

// VotesFor returns the election's ledger for audit.
func (s *Service) VotesFor(ctx context.Context, electionID string) ([]Vote, error) {
	if _, err := s.elections.Get(ctx, electionID); err != nil {
		return nil, err
	}
	return s.ledger.ListByElection(ctx, electionID)
}

// RemoveVote is the admin correction path; the ledger compensates the
// tally and the voted set so the consistency invariant holds.
func (s *Service) RemoveVote(ctx context.Context, voteID string) error {
	return s.ledger.Remove(ctx, voteID)
}
