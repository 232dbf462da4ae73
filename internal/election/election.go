package election

import (
	"crypto/rand"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
)

// Candidate is one entry on an election's ballot. Votes is the running tally.
type Candidate struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Votes    int    `json:"votes"`
	Position int    `json:"-"`
}

// Election is an admin-managed poll with an activity window and optional
// faculty/department eligibility restrictions. The voting link token is an
// opaque public identifier generated once at creation and never changed.
type Election struct {
	ID                     string      `json:"id"`
	Title                  string      `json:"title"`
	Description            string      `json:"description"`
	Candidates             []Candidate `json:"candidates"`
	StartDate              time.Time   `json:"startDate"`
	EndDate                time.Time   `json:"endDate"`
	IsActive               bool        `json:"isActive"`
	FacultyRestriction     string      `json:"facultyRestriction,omitempty"`
	DepartmentRestrictions []string    `json:"departmentRestrictions,omitempty"`
	VotingLinkToken        string      `json:"votingLinkToken"`
	CreatedAt              time.Time   `json:"createdAt"`
}

// CandidateByID resolves a candidate within the election's list.
func (e *Election) CandidateByID(id string) (*Candidate, bool) {
	for i := range e.Candidates {
		if e.Candidates[i].ID == id {
			return &e.Candidates[i], true
		}
	}
	return nil, false
}

// HasStarted reports whether voting has begun.
func (e *Election) HasStarted(now time.Time) bool {
	return !now.Before(e.StartDate)
}

// HasEnded reports whether the voting window has closed.
func (e *Election) HasEnded(now time.Time) bool {
	return now.After(e.EndDate)
}

// InWindow reports whether now falls inside [StartDate, EndDate].
func (e *Election) InWindow(now time.Time) bool {
	return e.HasStarted(now) && !e.HasEnded(now)
}

var (
	ErrNotFound       = errors.New("election not found")
	ErrValidation     = errors.New("invalid election")
	ErrDuplicateToken = errors.New("voting link token already in use")
)

// NewLinkToken mints an opaque shareable token for an election.
func NewLinkToken() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
