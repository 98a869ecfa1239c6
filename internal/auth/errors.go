package auth

import "errors"

// Credential constraints enforced at registration.
const (
	// MinUsernameLength is the minimum username length.
	MinUsernameLength = 3

	// MinPasswordLength is the minimum password length.
	MinPasswordLength = 6

	// MaxUsernameLength bounds usernames to keep index keys small.
	MaxUsernameLength = 64

	// MaxPasswordLength matches the bcrypt input limit.
	MaxPasswordLength = 72
)

// Sentinel errors for auth operations, checked with errors.Is().
var (
	// ErrUsernameTooShort indicates the username is under MinUsernameLength.
	ErrUsernameTooShort = errors.New("username must be at least 3 characters")

	// ErrUsernameTooLong indicates the username exceeds MaxUsernameLength.
	ErrUsernameTooLong = errors.New("username too long")

	// ErrPasswordTooShort indicates the password is under MinPasswordLength.
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")

	// ErrPasswordTooLong indicates the password exceeds MaxPasswordLength.
	ErrPasswordTooLong = errors.New("password too long")

	// ErrUsernameTaken indicates the username is already registered.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrInvalidCredentials indicates a failed login. The message is
	// deliberately identical for unknown users and wrong passwords so
	// responses do not reveal which usernames exist.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidToken indicates the bearer token failed verification.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired indicates the bearer token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
)
