package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/itzzjb/notes-api/internal/apperror"
	"github.com/itzzjb/notes-api/internal/crypto"
	"github.com/itzzjb/notes-api/internal/model"
	"github.com/itzzjb/notes-api/internal/repository"
	"github.com/itzzjb/notes-api/internal/session"
)

const (
	msgParametersMissing  = "Parameters missing"
	msgUsernameTaken      = "username taken"
	msgEmailInUse         = "email in use"
	msgInvalidCredentials = "invalid credentials"
	msgNotAuthenticated   = "not authenticated"
	msgPasswordTooLong    = "password too long"
)

// UserDirectory looks up and stores accounts.
type UserDirectory interface {
	FindByID(ctx context.Context, id string, vis model.Visibility) (*model.User, error)
	FindByUsername(ctx context.Context, username string, vis model.Visibility) (*model.User, error)
	FindByEmail(ctx context.Context, email string, vis model.Visibility) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
}

// Hasher produces and checks password digests.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// AuthService handles signup, login and session resolution.
type AuthService struct {
	users    UserDirectory
	sessions session.Store
	hasher   Hasher
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserDirectory, sessions session.Store, hasher Hasher) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
	}
}

// Signup creates an account and starts a session for it. The returned user
// has its hidden fields cleared.
func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest) (model.User, string, error) {
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return model.User{}, "", apperror.NewValidationError(msgParametersMissing)
	}

	// Best effort only; the unique indexes decide races at insert time.
	if _, err := s.users.FindByUsername(ctx, req.Username, model.PublicFields); err == nil {
		return model.User{}, "", apperror.NewConflictError(msgUsernameTaken, nil)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return model.User{}, "", apperror.NewInternalError("looking up username", err)
	}
	if _, err := s.users.FindByEmail(ctx, req.Email, model.PublicFields); err == nil {
		return model.User{}, "", apperror.NewConflictError(msgEmailInUse, nil)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return model.User{}, "", apperror.NewInternalError("looking up email", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, crypto.ErrPasswordTooLong) {
			return model.User{}, "", apperror.NewValidationError(msgPasswordTooLong)
		}
		return model.User{}, "", apperror.NewInternalError("hashing password", err)
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateUsername):
			return model.User{}, "", apperror.NewConflictError(msgUsernameTaken, err)
		case errors.Is(err, repository.ErrDuplicateEmail):
			return model.User{}, "", apperror.NewConflictError(msgEmailInUse, err)
		}
		return model.User{}, "", apperror.NewInternalError("creating user", err)
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return model.User{}, "", apperror.NewInternalError("creating session", err)
	}

	slog.Info("user signed up", "user_id", user.ID)
	return user.Public(), token, nil
}

// Login checks the credentials and starts a new session. Unknown usernames
// and wrong passwords fail with the same error.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.User, string, error) {
	if req.Username == "" || req.Password == "" {
		return model.User{}, "", apperror.NewValidationError(msgParametersMissing)
	}

	user, err := s.users.FindByUsername(ctx, req.Username, model.WithCredentials)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.User{}, "", apperror.NewAuthError(msgInvalidCredentials)
		}
		return model.User{}, "", apperror.NewInternalError("looking up user", err)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return model.User{}, "", apperror.NewAuthError(msgInvalidCredentials)
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return model.User{}, "", apperror.NewInternalError("creating session", err)
	}

	return user.Public(), token, nil
}

// Logout ends the session. It never fails.
func (s *AuthService) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := s.sessions.Destroy(ctx, token); err != nil {
		slog.Warn("destroying session", "error", err)
	}
}

// Authenticate resolves a session token to its user id and extends the
// session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", apperror.NewAuthError(msgNotAuthenticated)
	}

	userID, ok, err := s.sessions.Get(ctx, token)
	if err != nil {
		return "", apperror.NewInternalError("loading session", err)
	}
	if !ok {
		return "", apperror.NewAuthError(msgNotAuthenticated)
	}

	return userID, nil
}

// GetAuthenticatedUser returns the public view of the session's user.
func (s *AuthService) GetAuthenticatedUser(ctx context.Context, token string) (model.User, error) {
	userID, err := s.Authenticate(ctx, token)
	if err != nil {
		return model.User{}, err
	}

	user, err := s.users.FindByID(ctx, userID, model.PublicFields)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.User{}, apperror.NewAuthError(msgNotAuthenticated)
		}
		return model.User{}, apperror.NewInternalError("loading user", err)
	}

	return user.Public(), nil
}
