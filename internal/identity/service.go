package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/Godszeal/votting-sub000/internal/auth"
)

var matricPattern = regexp.MustCompile(`^\d{10}$`)

// Store describes the persistence operations the service needs.
type Store interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByMatric(ctx context.Context, matricNo string) (*User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// Service handles registration, login and account maintenance.
type Service struct {
	store Store
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// RegisterInput carries a registration request.
type RegisterInput struct {
	MatricNo   string
	Username   string
	Email      string
	Password   string
	Faculty    string
	Department string
}

// Register creates a voter account. Passwords are bcrypt-hashed before
// persistence and never stored in plaintext.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	in.MatricNo = strings.TrimSpace(in.MatricNo)
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	if !matricPattern.MatchString(in.MatricNo) {
		return nil, fmt.Errorf("%w: matric number must be exactly 10 digits", ErrValidation)
	}
	if in.Email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if len(in.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}
	if in.Faculty == "" || in.Department == "" {
		return nil, fmt.Errorf("%w: faculty and department are required", ErrValidation)
	}
	if in.Username == "" {
		in.Username = in.MatricNo
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.NewString(),
		MatricNo:     in.MatricNo,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Faculty:      in.Faculty,
		Department:   in.Department,
		Role:         RoleVoter,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials. The error is identical whether the account is
// absent or the password mismatches, to avoid account enumeration.
func (s *Service) Login(ctx context.Context, matricNo, password string) (*User, error) {
	u, err := s.store.FindByMatric(ctx, strings.TrimSpace(matricNo))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.VerifyPassword(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.store.FindByID(ctx, id)
}

// EnsureAdmin creates the seeded admin account if it does not exist yet.
// Used at startup so a fresh deployment has an election manager.
func (s *Service) EnsureAdmin(ctx context.Context, matricNo, email, password string) error {
	if _, err := s.store.FindByMatric(ctx, matricNo); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return s.store.Create(ctx, &User{
		ID:           uuid.NewString(),
		MatricNo:     matricNo,
		Username:     "admin",
		Email:        email,
		PasswordHash: hash,
		Faculty:      "Administration",
		Department:   "Administration",
		Role:         RoleAdmin,
	})
}

// ChangePassword verifies the current password before replacing it.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.VerifyPassword(u.PasswordHash, current); err != nil {
		return ErrInvalidCredentials
	}
	if len(next) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, userID, hash)
}
