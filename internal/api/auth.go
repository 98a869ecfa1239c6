package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/auth"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20 // 1MB

// authService is the slice of the auth service the handlers need.
type authService interface {
	Register(ctx context.Context, username, password string) (*auth.Session, error)
	Login(ctx context.Context, username, password string) (*auth.Session, error)
}

// authHandler serves registration and login.
type authHandler struct {
	service authService
	logger  *slog.Logger
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token    string `json:"token"`
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// register handles POST /api/v1/auth/register.
func (h *authHandler) register(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	session, err := h.service.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		Token:    session.Token,
		UserID:   session.UserID,
		Username: session.Username,
	})
}

// login handles POST /api/v1/auth/login.
func (h *authHandler) login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	session, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Token:    session.Token,
		UserID:   session.UserID,
		Username: session.Username,
	})
}

func (h *authHandler) decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return req, false
	}
	return req, true
}

// writeAuthError maps auth errors to HTTP statuses. Validation failures
// surface their sentinel messages; everything else collapses to a generic
// 500 so internals do not leak.
func (h *authHandler) writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrUsernameTooShort),
		errors.Is(err, auth.ErrUsernameTooLong),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrPasswordTooLong):
		writeError(w, http.StatusBadRequest, "invalid_credentials_format", err.Error())
	case errors.Is(err, auth.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "username_taken", err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	default:
		h.logger.Error("auth request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
