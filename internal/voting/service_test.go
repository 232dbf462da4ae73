package voting

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Godszeal/votting-sub000/internal/election"
	"github.com/Godszeal/votting-sub000/internal/identity"
)

type fakeUsers struct {
	mu   sync.Mutex
	byID map[string]*identity.User
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (*identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	cp := *u
	cp.VotedElections = append([]string(nil), u.VotedElections...)
	return &cp, nil
}

type fakeElections struct {
	mu   sync.Mutex
	byID map[string]*election.Election
}

func (f *fakeElections) Get(_ context.Context, id string) (*election.Election, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return nil, election.ErrNotFound
	}
	cp := *e
	cp.Candidates = append([]election.Candidate(nil), e.Candidates...)
	return &cp, nil
}

func (f *fakeElections) List(_ context.Context) ([]election.Election, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []election.Election
	for _, e := range f.byID {
		cp := *e
		cp.Candidates = append([]election.Candidate(nil), e.Candidates...)
		out = append(out, cp)
	}
	return out, nil
}

// memLedger mirrors the storage-level behavior: the (voter, election) pair
// is unique, and a successful append atomically moves the tally and the
// voted set with it.
type memLedger struct {
	mu        sync.Mutex
	pairs     map[[2]string]bool
	votes     []Vote
	users     *fakeUsers
	elections *fakeElections
}

func (m *memLedger) Apply(_ context.Context, v *Vote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]string{v.VoterID, v.ElectionID}
	if m.pairs[key] {
		return ErrAlreadyVoted
	}

	m.elections.mu.Lock()
	e := m.elections.byID[v.ElectionID]
	applied := false
	for i := range e.Candidates {
		if e.Candidates[i].ID == v.CandidateID {
			e.Candidates[i].Votes++
			applied = true
		}
	}
	m.elections.mu.Unlock()
	if !applied {
		return ErrCandidateMissing
	}

	m.users.mu.Lock()
	u := m.users.byID[v.VoterID]
	u.VotedElections = append(u.VotedElections, v.ElectionID)
	m.users.mu.Unlock()

	m.pairs[key] = true
	v.CreatedAt = time.Now()
	m.votes = append(m.votes, *v)
	return nil
}

func (m *memLedger) ListByElection(_ context.Context, electionID string) ([]Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Vote
	for _, v := range m.votes {
		if v.ElectionID == electionID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memLedger) Remove(_ context.Context, voteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, v := range m.votes {
		if v.ID == voteID {
			m.votes = append(m.votes[:i], m.votes[i+1:]...)
			delete(m.pairs, [2]string{v.VoterID, v.ElectionID})
			return nil
		}
	}
	return ErrNotFound
}

type fixture struct {
	users     *fakeUsers
	elections *fakeElections
	ledger    *memLedger
	svc       *Service
}

func newFixture(now time.Time) *fixture {
	users := &fakeUsers{byID: map[string]*identity.User{
		"u1": {ID: "u1", Faculty: "Engineering", Department: "Computer Engineering"},
		"u2": {ID: "u2", Faculty: "Science", Department: "Physics"},
	}}
	elections := &fakeElections{byID: map[string]*election.Election{
		"e1": {
			ID:       "e1",
			Title:    "SUG President",
			IsActive: true,
			Candidates: []election.Candidate{
				{ID: "c1", Name: "Ada"},
				{ID: "c2", Name: "Bisi"},
			},
			StartDate: now.Add(-time.Hour),
			EndDate:   now.Add(time.Hour),
		},
	}}
	ledger := &memLedger{pairs: make(map[[2]string]bool), users: users, elections: elections}
	svc := NewService(users, elections, ledger)
	svc.now = func() time.Time { return now }
	return &fixture{users: users, elections: elections, ledger: ledger, svc: svc}
}

var svcNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestCastVoteSuccess(t *testing.T) {
	f := newFixture(svcNow)
	e, err := f.svc.CastVote(context.Background(), "u1", "e1", "c1")
	if err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	if got := e.Candidates[0].Votes; got != 1 {
		t.Fatalf("tally = %d, want 1", got)
	}
	if len(f.ledger.votes) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(f.ledger.votes))
	}
	if !f.users.byID["u1"].HasVoted("e1") {
		t.Fatal("election missing from voter's voted set")
	}
}

func TestCastVoteRetryIsRejectedOnce(t *testing.T) {
	f := newFixture(svcNow)
	if _, err := f.svc.CastVote(context.Background(), "u1", "e1", "c1"); err != nil {
		t.Fatalf("first cast: %v", err)
	}
	_, err := f.svc.CastVote(context.Background(), "u1", "e1", "c1")
	var ineligible *IneligibleError
	if !errors.As(err, &ineligible) || ineligible.Reason != ReasonAlreadyVoted {
		t.Fatalf("expected already-voted rejection, got %v", err)
	}
	if got := f.elections.byID["e1"].Candidates[0].Votes; got != 1 {
		t.Fatalf("tally = %d after retry, want 1", got)
	}
	if len(f.ledger.votes) != 1 {
		t.Fatalf("ledger entries = %d after retry, want 1", len(f.ledger.votes))
	}
}

func TestCastVoteUnknownCandidate(t *testing.T) {
	f := newFixture(svcNow)
	_, err := f.svc.CastVote(context.Background(), "u1", "e1", "ghost")
	var ineligible *IneligibleError
	if !errors.As(err, &ineligible) || ineligible.Reason != "unknown candidate" {
		t.Fatalf("expected unknown candidate rejection, got %v", err)
	}
	if len(f.ledger.votes) != 0 {
		t.Fatal("no ledger entry expected")
	}
}

func TestCastVoteNotFound(t *testing.T) {
	f := newFixture(svcNow)
	if _, err := f.svc.CastVote(context.Background(), "ghost", "e1", "c1"); !errors.Is(err, identity.ErrNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
	if _, err := f.svc.CastVote(context.Background(), "u1", "ghost", "c1"); !errors.Is(err, election.ErrNotFound) {
		t.Fatalf("expected election not found, got %v", err)
	}
}

func TestCastVoteFacultyRestricted(t *testing.T) {
	f := newFixture(svcNow)
	f.elections.byID["e1"].FacultyRestriction = "Engineering"

	_, err := f.svc.CastVote(context.Background(), "u2", "e1", "c1")
	var ineligible *IneligibleError
	if !errors.As(err, &ineligible) || ineligible.Reason != "restricted to Engineering faculty" {
		t.Fatalf("expected faculty rejection, got %v", err)
	}
	if _, err := f.svc.CastVote(context.Background(), "u1", "e1", "c1"); err != nil {
		t.Fatalf("matching faculty must be allowed: %v", err)
	}
}

// Two concurrent casts for the same (user, election): exactly one commits
// and the tally rises by exactly one.
func TestCastVoteConcurrentSamePair(t *testing.T) {
	f := newFixture(svcNow)

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.CastVote(context.Background(), "u1", "e1", "c1")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var ineligible *IneligibleError
		if !errors.Is(err, ErrAlreadyVoted) && !errors.As(err, &ineligible) {
			t.Fatalf("unexpected error kind: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("successful casts = %d, want exactly 1", succeeded)
	}
	if got := f.elections.byID["e1"].Candidates[0].Votes; got != 1 {
		t.Fatalf("tally = %d, want 1", got)
	}
	if len(f.ledger.votes) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(f.ledger.votes))
	}
}

// Sum of tallies always equals the ledger size for the election.
func TestTallyLedgerConsistency(t *testing.T) {
	f := newFixture(svcNow)
	if _, err := f.svc.CastVote(context.Background(), "u1", "e1", "c1"); err != nil {
		t.Fatalf("cast u1: %v", err)
	}
	if _, err := f.svc.CastVote(context.Background(), "u2", "e1", "c2"); err != nil {
		t.Fatalf("cast u2: %v", err)
	}

	sum := 0
	for _, c := range f.elections.byID["e1"].Candidates {
		sum += c.Votes
	}
	entries, _ := f.svc.VotesFor(context.Background(), "e1")
	if sum != len(entries) {
		t.Fatalf("tally sum %d != ledger entries %d", sum, len(entries))
	}
}

func TestEligibleElectionsFilters(t *testing.T) {
	f := newFixture(svcNow)
	f.elections.byID["e2"] = &election.Election{
		ID: "e2", Title: "Closed", IsActive: false,
		StartDate: svcNow.Add(-time.Hour), EndDate: svcNow.Add(time.Hour),
		Candidates: []election.Candidate{{ID: "x", Name: "X"}, {ID: "y", Name: "Y"}},
	}

	list, err := f.svc.EligibleElections(context.Background(), "u1")
	if err != nil {
		t.Fatalf("EligibleElections: %v", err)
	}
	if len(list) != 1 || list[0].ID != "e1" {
		t.Fatalf("eligible = %+v, want only e1", list)
	}

	// After voting, e1 disappears from the listing.
	if _, err := f.svc.CastVote(context.Background(), "u1", "e1", "c1"); err != nil {
		t.Fatalf("cast: %v", err)
	}
	list, err = f.svc.EligibleElections(context.Background(), "u1")
	if err != nil {
		t.Fatalf("EligibleElections: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("eligible after voting = %+v, want none", list)
	}
}

func TestResultsGatedUntilEnded(t *testing.T) {
	f := newFixture(svcNow)
	if _, err := f.svc.Results(context.Background(), "e1"); !errors.Is(err, ErrNotEnded) {
		t.Fatalf("expected ErrNotEnded, got %v", err)
	}

	f.elections.byID["e1"].EndDate = svcNow.Add(-time.Minute)
	if _, err := f.svc.Results(context.Background(), "e1"); err != nil {
		t.Fatalf("Results after end: %v", err)
	}
}

func TestCheckEligibilityMatchesWorkflow(t *testing.T) {
	f := newFixture(svcNow)
	f.elections.byID["e1"].FacultyRestriction = "Engineering"

	v, err := f.svc.CheckEligibility(context.Background(), "u2", "e1")
	if err != nil {
		t.Fatalf("CheckEligibility: %v", err)
	}
	if v.Eligible || v.Reason != "restricted to Engineering faculty" {
		t.Fatalf("verdict = %+v", v)
	}
}
