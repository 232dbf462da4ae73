package identity

import (
	"errors"
	"fmt"
	"time"
)

// Roles assignable to an account.
const (
	RoleVoter = "voter"
	RoleAdmin = "admin"
)

// User is a registered account. Matric number, username and email are all
// unique across the system.
type User struct {
	ID             string    `json:"id"`
	MatricNo       string    `json:"matricNumber"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Faculty        string    `json:"faculty"`
	Department     string    `json:"department"`
	Role           string    `json:"role"`
	VotedElections []string  `json:"votedElections"`
	CreatedAt      time.Time `json:"createdAt"`
}

// HasVoted reports whether the user's voted set contains the election.
func (u *User) HasVoted(electionID string) bool {
	for _, id := range u.VotedElections {
		if id == electionID {
			return true
		}
	}
	return false
}

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid matric number or password")
	ErrValidation         = errors.New("invalid input")
)

// ConflictError reports which unique registration field already exists.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already registered", e.Field)
}
