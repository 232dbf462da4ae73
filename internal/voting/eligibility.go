package voting

import (
	"fmt"
	"time"

	"github.com/Godszeal/votting-sub000/internal/election"
	"github.com/Godszeal/votting-sub000/internal/identity"
)

// Ineligibility reasons, returned verbatim to the caller.
const (
	ReasonAlreadyVoted = "already voted"
	ReasonNotActive    = "not currently active"
	ReasonDepartment   = "restricted to specific departments"
)

// Verdict is the outcome of an eligibility check.
type Verdict struct {
	Eligible bool
	Reason   string
}

func ineligible(reason string) Verdict { return Verdict{Reason: reason} }

// Evaluate decides whether a user may vote in an election at the given
// instant. It has no side effects and the first matching reason wins:
// already voted, then activity window, then faculty, then department.
// Faculty and department checks are exact string matches.
func Evaluate(u *identity.User, e *election.Election, now time.Time) Verdict {
	if u.HasVoted(e.ID) {
		return ineligible(ReasonAlreadyVoted)
	}
	if !e.IsActive || !e.InWindow(now) {
		return ineligible(ReasonNotActive)
	}
	if e.FacultyRestriction != "" && u.Faculty != e.FacultyRestriction {
		return ineligible(fmt.Sprintf("restricted to %s faculty", e.FacultyRestriction))
	}
	if len(e.DepartmentRestrictions) > 0 && !containsString(e.DepartmentRestrictions, u.Department) {
		return ineligible(ReasonDepartment)
	}
	return Verdict{Eligible: true}
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
