package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"tush00nka/captionchat/internal/model"
	"tush00nka/captionchat/internal/pkg/auth"
	"tush00nka/captionchat/internal/repository"

	"github.com/google/uuid"
)

type authService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokens   *auth.TokenManager
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	tokens *auth.TokenManager,
) AuthService {
	return &authService{users: users, sessions: sessions, tokens: tokens}
}

func (s *authService) Register(ctx context.Context, email, password, displayName string) (*model.Session, error) {
	email = repository.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Printf("register: failed to hash password: %v", err)
		return nil, ErrUnknown
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	user.EnsureDisplayName()

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrEmailInUse
		}
		log.Printf("register: failed to create user %s: %v", email, err)
		return nil, ErrUnknown
	}

	return s.openSession(ctx, user)
}

func (s *authService) LogIn(ctx context.Context, email, password string) (*model.Session, error) {
	email = repository.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		log.Printf("login: failed to find user %s: %v", email, err)
		return nil, ErrUnknown
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.openSession(ctx, user)
}

// LogOut удаляет зеркало сессии; ошибки только логируются.
func (s *authService) LogOut(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		log.Printf("logout: failed to delete session: %v", err)
	}
}

func (s *authService) UpdateDisplayName(ctx context.Context, token, name string) (*model.SessionUser, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrUpdateDisplayName
	}

	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		log.Printf("update display name: no session: %v", err)
		return nil, ErrUpdateDisplayName
	}

	if err := s.users.UpdateDisplayName(ctx, session.User.ID, name); err != nil {
		log.Printf("update display name: user %s: %v", session.User.ID, err)
		return nil, ErrUpdateDisplayName
	}

	session.User.DisplayName = name
	if err := s.sessions.Save(ctx, session, time.Until(session.ExpiresAt)); err != nil {
		log.Printf("update display name: failed to refresh session: %v", err)
		return nil, ErrUpdateDisplayName
	}

	return &session.User, nil
}

func (s *authService) LoggedInUser(ctx context.Context, token string) (*model.SessionUser, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	session, err := s.sessions.Get(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		log.Printf("failed to read session: %v", err)
		return nil, ErrNoSession
	}
	return &session.User, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*model.Session, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, ErrNoSession
	}

	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, ErrNoSession
	}
	if session.User.ID != claims.UserID {
		return nil, ErrNoSession
	}
	return session, nil
}

func (s *authService) openSession(ctx context.Context, user *model.User) (*model.Session, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		log.Printf("failed to generate token: %v", err)
		return nil, ErrUnknown
	}

	session := &model.Session{
		Token:     token,
		User:      user.Public(),
		ExpiresAt: expiresAt,
	}
	if err := s.sessions.Save(ctx, session, s.tokens.TTL()); err != nil {
		log.Printf("failed to save session: %v", err)
		return nil, ErrUnknown
	}
	return session, nil
}
