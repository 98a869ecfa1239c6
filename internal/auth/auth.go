package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"
)

// userStore is the persistence surface Service needs.
type userStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
}

// Session is the result of a successful register or login.
type Session struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// Service implements registration and login on top of a user store and
// a token issuer.
type Service struct {
	store  userStore
	issuer *TokenIssuer
	logger *slog.Logger
}

// NewService creates an auth Service.
func NewService(store userStore, issuer *TokenIssuer, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if issuer == nil {
		return nil, fmt.Errorf("issuer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, issuer: issuer, logger: logger}, nil
}

// validateCredentials checks length constraints before any database work.
func validateCredentials(username, password string) error {
	switch n := utf8.RuneCountInString(username); {
	case n < MinUsernameLength:
		return ErrUsernameTooShort
	case n > MaxUsernameLength:
		return ErrUsernameTooLong
	}
	switch n := len(password); {
	case n < MinPasswordLength:
		return ErrPasswordTooShort
	case n > MaxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}

// Register creates a new account and returns a signed session token.
func (s *Service) Register(ctx context.Context, username, password string) (*Session, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, username, hash)
	if err != nil {
		return nil, err
	}

	token, err := s.issuer.Issue(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	s.logger.Info("registered user", "user_id", user.ID, "username", user.Username)
	return &Session{UserID: user.ID, Username: user.Username, Token: token}, nil
}

// Login verifies credentials and returns a signed session token.
// Unknown usernames and wrong passwords both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return &Session{UserID: user.ID, Username: user.Username, Token: token}, nil
}

// VerifyToken validates a bearer token and returns the user ID and username.
func (s *Service) VerifyToken(token string) (int64, string, error) {
	return s.issuer.Verify(token)
}
