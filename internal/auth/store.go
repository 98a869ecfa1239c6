// Package auth implements account registration, login, and bearer token
// handling for the HTTP API. Passwords are stored as bcrypt hashes and
// tokens are HS256 JWTs.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is the common interface satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// uniqueViolation is the PostgreSQL error code for unique constraint breaks.
const uniqueViolation = "23505"

// User is a registered account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Store persists users in PostgreSQL.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db     querier
	logger *slog.Logger
}

// NewStore creates a user Store.
func NewStore(db querier, logger *slog.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}, nil
}

// CreateUser inserts a new account. Returns ErrUsernameTaken when the
// username is already registered.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*User, error) {
	const sql = `INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, username, password_hash, created_at`

	var u User
	err := s.db.QueryRow(ctx, sql, username, passwordHash).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Debug("created user", "id", u.ID, "username", u.Username)
	return &u, nil
}

// GetUserByUsername fetches an account by username.
// Returns ErrUserNotFound when no such account exists.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	const sql = `SELECT id, username, password_hash, created_at
		FROM users WHERE username = $1`

	var u User
	err := s.db.QueryRow(ctx, sql, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("fetching user by username: %w", err)
	}
	return &u, nil
}

// GetUserByID fetches an account by ID.
// Returns ErrUserNotFound when no such account exists.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*User, error) {
	const sql = `SELECT id, username, password_hash, created_at
		FROM users WHERE id = $1`

	var u User
	err := s.db.QueryRow(ctx, sql, id).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("fetching user by id: %w", err)
	}
	return &u, nil
}
