// Package app assembles the application: configuration, database pool,
// Genkit with the selected AI provider, and the domain services built on
// top of them. Commands call Setup once and pull what they need off the
// returned App.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/auth"
	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/chat"
	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/config"
	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/conversation"
	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/knowledge"
)

// App is the application container. Fields are initialized by Setup.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	Pool     *pgxpool.Pool

	Knowledge     *knowledge.Store
	Auth          *auth.Service
	Conversations *conversation.Store
	Chat          *chat.Service

	otelCleanup func()
}

// Close releases all resources. Safe to call on a partially initialized App.
func (a *App) Close() error {
	if a.Pool != nil {
		a.Pool.Close()
		if a.Logger != nil {
			a.Logger.Debug("database pool closed")
		}
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
	}
	return nil
}
