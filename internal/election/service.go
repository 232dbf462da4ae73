package election

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store describes the persistence operations the manager needs.
type Store interface {
	Create(ctx context.Context, e *Election) error
	Get(ctx context.Context, id string) (*Election, error)
	GetByToken(ctx context.Context, token string) (*Election, error)
	List(ctx context.Context) ([]Election, error)
	Update(ctx context.Context, e *Election) error
	EndNow(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// Manager enforces election lifecycle and structural invariants for admins.
type Manager struct {
	store Store
	now   func() time.Time
}

// NewManager creates a manager backed by a store.
func NewManager(store Store) *Manager {
	return &Manager{store: store, now: func() time.Time { return time.Now().UTC() }}
}

const tokenRetries = 3

// CreateInput carries a new election definition. Candidate entries are names;
// ids are assigned here and counters start at zero.
type CreateInput struct {
	Title                  string
	Description            string
	Candidates             []string
	StartDate              time.Time
	EndDate                time.Time
	IsActive               bool
	FacultyRestriction     string
	DepartmentRestrictions []string
}

// Create validates and persists a new election. The voting link token is
// generated here and regenerated on the rare collision.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*Election, error) {
	now := m.now()
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if in.EndDate.IsZero() {
		return nil, fmt.Errorf("%w: end date is required", ErrValidation)
	}
	if in.StartDate.IsZero() {
		in.StartDate = now
	}
	if !in.EndDate.After(in.StartDate) {
		return nil, fmt.Errorf("%w: end date must be after start date", ErrValidation)
	}
	candidates, err := buildCandidates(in.Candidates)
	if err != nil {
		return nil, err
	}

	e := &Election{
		ID:                     uuid.NewString(),
		Title:                  strings.TrimSpace(in.Title),
		Description:            in.Description,
		Candidates:             candidates,
		StartDate:              in.StartDate,
		EndDate:                in.EndDate,
		IsActive:               in.IsActive,
		FacultyRestriction:     in.FacultyRestriction,
		DepartmentRestrictions: in.DepartmentRestrictions,
	}

	for attempt := 0; attempt < tokenRetries; attempt++ {
		e.VotingLinkToken = NewLinkToken()
		err = m.store.Create(ctx, e)
		if !errors.Is(err, ErrDuplicateToken) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func buildCandidates(names []string) ([]Candidate, error) {
	if len(names) < 2 {
		return nil, fmt.Errorf("%w: at least 2 candidates are required", ErrValidation)
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]Candidate, 0, len(names))
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%w: candidate name cannot be empty", ErrValidation)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: duplicate candidate name %q", ErrValidation, name)
		}
		seen[name] = struct{}{}
		out = append(out, Candidate{ID: uuid.NewString(), Name: name, Position: i})
	}
	return out, nil
}

// UpdateInput carries a partial election update. Nil fields are unchanged.
// A non-nil Candidates slice replaces the candidate list wholesale; entries
// matching an existing candidate by name keep that candidate's id and tally.
type UpdateInput struct {
	Title                  *string
	Description            *string
	StartDate              *time.Time
	EndDate                *time.Time
	IsActive               *bool
	FacultyRestriction     *string
	DepartmentRestrictions *[]string
	Candidates             []string
}

// Update applies an admin update. Once voting has started the candidate
// count is frozen; the link token is immutable regardless.
func (m *Manager) Update(ctx context.Context, id string, in UpdateInput) (*Election, error) {
	now := m.now()
	e, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, fmt.Errorf("%w: title is required", ErrValidation)
		}
		e.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.StartDate != nil {
		e.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		e.EndDate = *in.EndDate
	}
	if !e.EndDate.After(e.StartDate) {
		return nil, fmt.Errorf("%w: end date must be after start date", ErrValidation)
	}
	if in.IsActive != nil {
		e.IsActive = *in.IsActive
	}
	if in.FacultyRestriction != nil {
		e.FacultyRestriction = *in.FacultyRestriction
	}
	if in.DepartmentRestrictions != nil {
		e.DepartmentRestrictions = *in.DepartmentRestrictions
	}

	if in.Candidates != nil {
		if e.HasStarted(now) && len(in.Candidates) != len(e.Candidates) {
			return nil, fmt.Errorf("%w: candidate count cannot change after voting has started", ErrValidation)
		}
		merged, err := mergeCandidates(e.Candidates, in.Candidates)
		if err != nil {
			return nil, err
		}
		e.Candidates = merged
	}

	if err := m.store.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// mergeCandidates replaces the candidate list with the given names.
// A name already on the ballot keeps its id and vote counter; a new name
// joins with a fresh id and zero votes.
func mergeCandidates(existing []Candidate, names []string) ([]Candidate, error) {
	byName := make(map[string]Candidate, len(existing))
	for _, c := range existing {
		byName[c.Name] = c
	}

	fresh, err := buildCandidates(names)
	if err != nil {
		return nil, err
	}
	for i := range fresh {
		if prev, ok := byName[fresh[i].Name]; ok {
			fresh[i].ID = prev.ID
			fresh[i].Votes = prev.Votes
		}
	}
	return fresh, nil
}

// EndNow deactivates the election and sets its end date to the present.
func (m *Manager) EndNow(ctx context.Context, id string) error {
	return m.store.EndNow(ctx, id, m.now())
}

// Delete removes an election and all derived records.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}

// Get returns a single election by id.
func (m *Manager) Get(ctx context.Context, id string) (*Election, error) {
	return m.store.Get(ctx, id)
}

// GetByToken resolves a public voting link token.
func (m *Manager) GetByToken(ctx context.Context, token string) (*Election, error) {
	return m.store.GetByToken(ctx, token)
}

// List returns all elections newest-first.
func (m *Manager) List(ctx context.Context) ([]Election, error) {
	return m.store.List(ctx)
}
