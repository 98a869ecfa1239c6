package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/testutil"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{"valid", "Bearer abc123", "abc123", true},
		{"lowercase scheme", "bearer abc123", "abc123", true},
		{"missing header", "", "", false},
		{"no token", "Bearer ", "", false},
		{"wrong scheme", "Basic abc123", "", false},
		{"token only", "abc123", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, ok := bearerToken(r)
			if got != tt.want || ok != tt.ok {
				t.Errorf("bearerToken() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestAuthMiddlewarePopulatesContext(t *testing.T) {
	var gotUserID int64
	var gotUsername string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, gotUsername, _ = userFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	handler := authMiddleware(fakeVerifier{}, testutil.DiscardLogger())(inner)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	if gotUserID != 1 || gotUsername != "alice" {
		t.Errorf("context user: (%d, %q)", gotUserID, gotUsername)
	}
}

func TestAuthMiddlewareRejectsBadToken(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	})
	handler := authMiddleware(fakeVerifier{}, testutil.DiscardLogger())(inner)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status: %d", w.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	inner := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	handler := recoveryMiddleware(testutil.DiscardLogger())(inner)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status: %d", w.Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		realIP     string
		forwarded  string
		trustProxy bool
		want       string
	}{
		{"direct", "203.0.113.9:4411", "", "", false, "203.0.113.9"},
		{"spoofed header ignored", "203.0.113.9:4411", "198.51.100.1", "", false, "203.0.113.9"},
		{"real ip trusted", "10.0.0.1:80", "198.51.100.1", "", true, "198.51.100.1"},
		{"forwarded for trusted", "10.0.0.1:80", "", "198.51.100.2, 10.0.0.1", true, "198.51.100.2"},
		{"invalid header falls back", "10.0.0.1:80", "not-an-ip", "", true, "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := clientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiterAllow(t *testing.T) {
	rl := newRateLimiter(1.0, 2)

	if !rl.allow("10.0.0.1") || !rl.allow("10.0.0.1") {
		t.Fatal("first requests within burst should be allowed")
	}
	if rl.allow("10.0.0.1") {
		t.Error("request beyond burst should be denied")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("different IP should have its own bucket")
	}
}
