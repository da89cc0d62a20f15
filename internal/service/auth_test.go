package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"tush00nka/captionchat/internal/pkg/auth"
)

func TestRegisterDefaultsDisplayNameFromEmail(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	session, err := e.auth.Register(ctx, " John.Doe@Example.com ", "secret", "")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if session.User.Email != "john.doe@example.com" {
		t.Errorf("Email = %q, want normalized", session.User.Email)
	}
	if session.User.DisplayName != "john doe" {
		t.Errorf("DisplayName = %q, want %q", session.User.DisplayName, "john doe")
	}

	user, err := e.auth.LoggedInUser(ctx, session.Token)
	if err != nil {
		t.Fatalf("LoggedInUser() error = %v", err)
	}
	if user.ID != session.User.ID {
		t.Errorf("LoggedInUser().ID = %q, want %q", user.ID, session.User.ID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	if _, err := e.auth.Register(ctx, "ann@example.com", "secret", "Ann"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	_, err := e.auth.Register(ctx, "ANN@example.com", "other", "")
	if !errors.Is(err, ErrEmailInUse) {
		t.Fatalf("Register() error = %v, want ErrEmailInUse", err)
	}
	if err.Error() != "This email is already in use" {
		t.Errorf("error text = %q", err.Error())
	}
}

func TestLogIn(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	if _, err := e.auth.Register(ctx, "ann@example.com", "secret", "Ann"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid", email: "ann@example.com", password: "secret"},
		{name: "wrong password", email: "ann@example.com", password: "nope", wantErr: ErrInvalidCredentials},
		{name: "unknown email", email: "bob@example.com", password: "secret", wantErr: ErrInvalidCredentials},
		{name: "empty", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := e.auth.LogIn(ctx, tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("LogIn() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && session.User.DisplayName != "Ann" {
				t.Errorf("DisplayName = %q, want Ann", session.User.DisplayName)
			}
		})
	}
}

func TestLogOutClearsSession(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	session, err := e.auth.Register(ctx, "ann@example.com", "secret", "Ann")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	e.auth.LogOut(ctx, session.Token)
	e.auth.LogOut(ctx, session.Token)

	if _, err := e.auth.LoggedInUser(ctx, session.Token); !errors.Is(err, ErrNoSession) {
		t.Errorf("LoggedInUser() error = %v, want ErrNoSession", err)
	}
	if _, err := e.auth.Authenticate(ctx, session.Token); !errors.Is(err, ErrNoSession) {
		t.Errorf("Authenticate() error = %v, want ErrNoSession", err)
	}
}

func TestUpdateDisplayName(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	session, err := e.auth.Register(ctx, "ann@example.com", "secret", "Ann")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	user, err := e.auth.UpdateDisplayName(ctx, session.Token, "  Annie ")
	if err != nil {
		t.Fatalf("UpdateDisplayName() error = %v", err)
	}
	if user.DisplayName != "Annie" {
		t.Errorf("DisplayName = %q, want Annie", user.DisplayName)
	}

	mirror, _ := e.auth.LoggedInUser(ctx, session.Token)
	if mirror.DisplayName != "Annie" {
		t.Errorf("session mirror DisplayName = %q, want Annie", mirror.DisplayName)
	}
	stored, _ := e.users.FindByID(ctx, session.User.ID)
	if stored.DisplayName != "Annie" {
		t.Errorf("stored DisplayName = %q, want Annie", stored.DisplayName)
	}

	if _, err := e.auth.UpdateDisplayName(ctx, "missing", "X"); !errors.Is(err, ErrUpdateDisplayName) {
		t.Errorf("UpdateDisplayName(no session) error = %v, want ErrUpdateDisplayName", err)
	}
}

func TestAuthenticate(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	session, err := e.auth.Register(ctx, "ann@example.com", "secret", "Ann")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got, err := e.auth.Authenticate(ctx, session.Token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if got.User.ID != session.User.ID {
		t.Errorf("Authenticate().User.ID = %q, want %q", got.User.ID, session.User.ID)
	}

	if _, err := e.auth.Authenticate(ctx, "not-a-jwt"); !errors.Is(err, ErrNoSession) {
		t.Errorf("Authenticate(garbage) error = %v, want ErrNoSession", err)
	}

	foreign, _, err := auth.NewTokenManager("other-key", time.Hour).GenerateToken(session.User.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.auth.Authenticate(ctx, foreign); !errors.Is(err, ErrNoSession) {
		t.Errorf("Authenticate(foreign key) error = %v, want ErrNoSession", err)
	}
}
