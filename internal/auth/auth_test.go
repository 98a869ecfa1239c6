package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

// mockUserStore is an in-memory userStore for unit tests.
type mockUserStore struct {
	users  map[string]*User
	nextID int64
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[string]*User), nextID: 1}
}

func (m *mockUserStore) CreateUser(_ context.Context, username, passwordHash string) (*User, error) {
	if _, ok := m.users[username]; ok {
		return nil, ErrUsernameTaken
	}
	u := &User{
		ID:           m.nextID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	m.nextID++
	m.users[username] = u
	return u, nil
}

func (m *mockUserStore) GetUserByUsername(_ context.Context, username string) (*User, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserStore) GetUserByID(_ context.Context, id int64) (*User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func newTestService(t *testing.T) (*Service, *mockUserStore) {
	t.Helper()
	store := newMockUserStore()
	svc, err := NewService(store, NewTokenIssuer("unit-test-signing-secret", time.Hour), nil)
	if err != nil {
		t.Fatalf("NewService() unexpected error: %v", err)
	}
	return svc, store
}

func TestRegister(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, "alice", "secret123")
	if err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	if sess.Username != "alice" {
		t.Errorf("Username = %q, want alice", sess.Username)
	}
	if sess.Token == "" {
		t.Error("Register() returned empty token")
	}

	// Password must be stored hashed, never in the clear
	stored := store.users["alice"]
	if stored.PasswordHash == "secret123" {
		t.Error("password stored in plaintext")
	}
	if !VerifyPassword(stored.PasswordHash, "secret123") {
		t.Error("stored hash does not verify against the original password")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "username too short", username: "ab", password: "secret123", wantErr: ErrUsernameTooShort},
		{name: "password too short", username: "alice", password: "12345", wantErr: ErrPasswordTooShort},
		{name: "empty username", username: "", password: "secret123", wantErr: ErrUsernameTooShort},
		{name: "minimum lengths accepted", username: "abc", password: "123456", wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.username, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register(%q, %q) error = %v, want %v", tt.username, tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "secret123"); err != nil {
		t.Fatalf("first Register() unexpected error: %v", err)
	}

	if _, err := svc.Register(ctx, "alice", "other-password"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("duplicate Register() error = %v, want ErrUsernameTaken", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "secret123"); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	sess, err := svc.Login(ctx, "alice", "secret123")
	if err != nil {
		t.Fatalf("Login() unexpected error: %v", err)
	}

	userID, username, err := svc.VerifyToken(sess.Token)
	if err != nil {
		t.Fatalf("VerifyToken() unexpected error: %v", err)
	}
	if userID != sess.UserID || username != "alice" {
		t.Errorf("token claims = (%d, %q), want (%d, alice)", userID, username, sess.UserID)
	}
}

// TestLoginFailuresIndistinguishable verifies that an unknown username and a
// wrong password produce the same error.
func TestLoginFailuresIndistinguishable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "secret123"); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	_, errUnknown := svc.Login(ctx, "nobody", "secret123")
	_, errWrongPw := svc.Login(ctx, "alice", "wrong-password")

	if !errors.Is(errUnknown, ErrInvalidCredentials) {
		t.Errorf("unknown user error = %v, want ErrInvalidCredentials", errUnknown)
	}
	if !errors.Is(errWrongPw, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", errWrongPw)
	}
	if errUnknown.Error() != errWrongPw.Error() {
		t.Error("login failure messages differ, revealing which usernames exist")
	}
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	h1, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword() unexpected error: %v", err)
	}
	h2, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword() unexpected error: %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password are identical, salt missing")
	}
	if !VerifyPassword(h1, "secret123") || !VerifyPassword(h2, "secret123") {
		t.Error("hashes do not verify")
	}
	if VerifyPassword(h1, "wrong") {
		t.Error("wrong password verified")
	}
}
