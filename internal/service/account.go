package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/folio/folio/internal/auth"
	"github.com/folio/folio/internal/model"
	"github.com/folio/folio/internal/repository"
)

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(user *model.User) (string, *model.Caller, error)
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// AccountService handles registration, login and identity lookup.
type AccountService struct {
	users  UserStore
	issuer TokenIssuer
	logger *slog.Logger

	hash   func(password string) (string, error)
	verify func(password, encoded string) (bool, error)

	// dummyHash is verified against when the username is unknown so both
	// failure paths cost one argon2 evaluation.
	dummyHash string
}

// NewAccountService creates a new AccountService.
func NewAccountService(users UserStore, issuer TokenIssuer, logger *slog.Logger) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &AccountService{
		users:  users,
		issuer: issuer,
		logger: logger.With("component", "service.account"),
		hash:   auth.HashPassword,
		verify: auth.VerifyPassword,
	}
	if dummy, err := s.hash(uuid.NewString()); err == nil {
		s.dummyHash = dummy
	}
	return s
}

// Register creates an account and signs a token for it.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	valid, err := ValidateRegisterInput(input)
	if err != nil {
		return nil, err
	}

	hash, err := s.hash(valid.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Username:     valid.Username,
		Email:        valid.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrUsernameExists):
			verr := &ValidationError{}
			verr.addConflict("username", msgUsernameTaken, user.Username, ErrUsernameTaken)
			return nil, verr
		case errors.Is(err, repository.ErrEmailExists):
			verr := &ValidationError{}
			verr.addConflict("email", msgEmailTaken, user.Email, ErrEmailTaken)
			return nil, verr
		default:
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	}

	s.logger.Info("user_registered", "user_id", user.ID, "username", user.Username)
	return s.issue(user)
}

// Login verifies credentials and signs a token.
func (s *AccountService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	creds, err := validateLoginInput(input)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			if s.dummyHash != "" {
				_, _ = s.verify(creds.Password, s.dummyHash)
			}
			s.logger.Warn("login_failed", "reason", "unknown_user")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	ok, err := s.verify(creds.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.logger.Warn("login_failed", "reason", "bad_password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	if auth.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, creds.Password)
	}

	s.logger.Info("user_logged_in", "user_id", user.ID)
	return s.issue(user)
}

// Me returns the account behind the caller.
func (s *AccountService) Me(ctx context.Context, caller *model.Caller) (*model.User, error) {
	if caller == nil {
		return nil, &auth.AuthenticationError{Reason: auth.ReasonMissing}
	}

	user, err := s.users.GetUserByID(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *AccountService) issue(user *model.User) (*AuthResult, error) {
	token, caller, err := s.issuer.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResult{Token: token, ExpiresAt: caller.ExpiresAt, User: user}, nil
}

// rehash upgrades a hash made with outdated parameters. Failure leaves the
// old hash in place.
func (s *AccountService) rehash(ctx context.Context, user *model.User, password string) {
	hash, err := s.hash(password)
	if err != nil {
		s.logger.Warn("password_rehash_failed", "user_id", user.ID, "error", err)
		return
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		s.logger.Warn("password_rehash_failed", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = hash
	s.logger.Info("password_rehashed", "user_id", user.ID)
}
