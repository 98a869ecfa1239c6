// Package api is the JSON HTTP surface: registration and login, the
// conversation sidebar, SSE chat streaming, and direct corpus search.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger        *slog.Logger
	Auth          authService       // required
	TokenVerifier tokenVerifier     // required
	Conversations conversationStore // required
	Chat          chatService       // required
	Knowledge     searcher          // required
	Pool          *pgxpool.Pool     // optional: nil disables pool stats in /ready

	CORSOrigins []string // allowed origins for browser clients
	TrustProxy  bool     // trust X-Real-IP/X-Forwarded-For headers
	RateBurst   int      // per-IP burst size (0 = default 60)
	IsDev       bool     // skips HSTS (no TLS in development)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates the API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	switch {
	case cfg.Auth == nil:
		return nil, errors.New("auth service is required")
	case cfg.TokenVerifier == nil:
		return nil, errors.New("token verifier is required")
	case cfg.Conversations == nil:
		return nil, errors.New("conversation store is required")
	case cfg.Chat == nil:
		return nil, errors.New("chat service is required")
	case cfg.Knowledge == nil:
		return nil, errors.New("knowledge store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ah := &authHandler{service: cfg.Auth, logger: logger}
	ch := &conversationHandler{store: cfg.Conversations, logger: logger}
	th := &chatHandler{service: cfg.Chat, logger: logger}
	sh := &searchHandler{store: cfg.Knowledge, logger: logger}

	mux := http.NewServeMux()

	// Public endpoints. The methodless fallbacks keep wrong-method
	// requests out of the protected subtree, which would answer 401
	// where a 405 is due.
	mux.HandleFunc("POST /api/v1/auth/register", ah.register)
	mux.HandleFunc("POST /api/v1/auth/login", ah.login)
	mux.HandleFunc("/api/v1/auth/register", postOnly)
	mux.HandleFunc("/api/v1/auth/login", postOnly)

	// Everything else requires a bearer token.
	protected := http.NewServeMux()
	protected.HandleFunc("GET /api/v1/conversations", ch.list)
	protected.HandleFunc("POST /api/v1/conversations", ch.create)
	protected.HandleFunc("GET /api/v1/conversations/{id}/messages", ch.messages)
	protected.HandleFunc("DELETE /api/v1/conversations/{id}", ch.deleteOne)
	protected.HandleFunc("DELETE /api/v1/conversations", ch.deleteAll)
	protected.HandleFunc("POST /api/v1/chat", th.send)
	protected.HandleFunc("GET /api/v1/search", sh.search)

	// The literal auth patterns above are more specific than this subtree,
	// so register and login stay public.
	mux.Handle("/api/v1/", authMiddleware(cfg.TokenVerifier, logger)(protected))

	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Middleware stack, outermost first:
	//   Recovery -> RequestID -> Logging -> CORS -> RateLimit -> Routes
	// RequestID precedes Logging so request_id lands in log attributes.
	// CORS precedes RateLimit so preflight OPTIONS gets proper headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	isDev := cfg.IsDev
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w, isDev)
		handler.ServeHTTP(w, r)
	})

	// Health probes bypass the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("GET /ready", readiness(cfg.Pool))
	topMux.Handle("/", final)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func postOnly(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST for this endpoint")
}
