package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/Godszeal/votting-sub000/internal/auth"
)

type fakeStore struct {
	byMatric map[string]*User
	created  []*User
}

func newFakeStore() *fakeStore {
	return &fakeStore{byMatric: make(map[string]*User)}
}

func (f *fakeStore) Create(_ context.Context, u *User) error {
	if _, ok := f.byMatric[u.MatricNo]; ok {
		return &ConflictError{Field: "matric number"}
	}
	f.byMatric[u.MatricNo] = u
	f.created = append(f.created, u)
	return nil
}

func (f *fakeStore) FindByID(_ context.Context, id string) (*User, error) {
	for _, u := range f.byMatric {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) FindByMatric(_ context.Context, matricNo string) (*User, error) {
	u, ok := f.byMatric[matricNo]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) UpdatePassword(_ context.Context, userID, hash string) error {
	for _, u := range f.byMatric {
		if u.ID == userID {
			u.PasswordHash = hash
			return nil
		}
	}
	return ErrNotFound
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()

	valid := RegisterInput{
		MatricNo:   "2019123456",
		Email:      "ada@uni.edu",
		Password:   "hunter22",
		Faculty:    "Engineering",
		Department: "Computer Engineering",
	}

	cases := []struct {
		name   string
		mutate func(in *RegisterInput)
		wantOK bool
	}{
		{"valid", func(in *RegisterInput) {}, true},
		{"matric too short", func(in *RegisterInput) { in.MatricNo = "12345" }, false},
		{"matric with letters", func(in *RegisterInput) { in.MatricNo = "20191234ab" }, false},
		{"matric too long", func(in *RegisterInput) { in.MatricNo = "20191234567" }, false},
		{"missing email", func(in *RegisterInput) { in.Email = "" }, false},
		{"short password", func(in *RegisterInput) { in.Password = "abc" }, false},
		{"missing faculty", func(in *RegisterInput) { in.Faculty = "" }, false},
	}

	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			in.MatricNo = valid.MatricNo[:9] + string(rune('0'+i)) // unique per case
			tc.mutate(&in)
			_, err := NewService(newFakeStore()).Register(ctx, in)
			if tc.wantOK && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.wantOK && !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestRegisterDefaultsUsernameAndHashesPassword(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	u, err := svc.Register(context.Background(), RegisterInput{
		MatricNo:   "2019000001",
		Email:      "ada@uni.edu",
		Password:   "hunter22",
		Faculty:    "Engineering",
		Department: "Computer Engineering",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Username != "2019000001" {
		t.Fatalf("username defaulted to %q, want matric number", u.Username)
	}
	if u.Role != RoleVoter {
		t.Fatalf("role = %q, want voter", u.Role)
	}
	if u.PasswordHash == "hunter22" || u.PasswordHash == "" {
		t.Fatal("password must be stored hashed")
	}
	if err := auth.VerifyPassword(u.PasswordHash, "hunter22"); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestRegisterDuplicateMatric(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	in := RegisterInput{
		MatricNo:   "2019000002",
		Email:      "one@uni.edu",
		Password:   "hunter22",
		Faculty:    "Science",
		Department: "Physics",
	}
	if _, err := svc.Register(context.Background(), in); err != nil {
		t.Fatalf("first register: %v", err)
	}
	in.Email = "two@uni.edu"
	_, err := svc.Register(context.Background(), in)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.Field != "matric number" {
		t.Fatalf("conflict field = %q", conflict.Field)
	}
}

func TestLoginUniformError(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	if _, err := svc.Register(context.Background(), RegisterInput{
		MatricNo:   "2019000003",
		Email:      "ada@uni.edu",
		Password:   "hunter22",
		Faculty:    "Engineering",
		Department: "Mechatronics",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(context.Background(), "2019000003", "hunter22"); err != nil {
		t.Fatalf("login: %v", err)
	}

	_, errWrongPass := svc.Login(context.Background(), "2019000003", "nope")
	_, errNoAccount := svc.Login(context.Background(), "2019999999", "nope")
	if !errors.Is(errWrongPass, ErrInvalidCredentials) || !errors.Is(errNoAccount, ErrInvalidCredentials) {
		t.Fatalf("expected uniform ErrInvalidCredentials, got %v / %v", errWrongPass, errNoAccount)
	}
	if errWrongPass.Error() != errNoAccount.Error() {
		t.Fatal("error message must not distinguish missing account from bad password")
	}
}

func TestChangePassword(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	u, err := svc.Register(context.Background(), RegisterInput{
		MatricNo:   "2019000004",
		Email:      "ada@uni.edu",
		Password:   "hunter22",
		Faculty:    "Engineering",
		Department: "Civil Engineering",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.ChangePassword(context.Background(), u.ID, "wrong", "newpassword"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := svc.ChangePassword(context.Background(), u.ID, "hunter22", "newpassword"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := svc.Login(context.Background(), "2019000004", "newpassword"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

var _ Store = (*fakeStore)(nil)
