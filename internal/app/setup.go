package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kuldeep8080-fg/langchain-chatbot/db"
	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/auth"
	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/chat"
	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/config"
	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/conversation"
	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/knowledge"
	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/observability"
)

// Setup initializes the application from configuration. Tracing comes
// first so Genkit's tracer provider has its exporter before any flow
// runs; the database is migrated before the pool opens.
//
// Call Close on the returned App to release resources. On error,
// everything initialized so far is cleaned up.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup after setup failure", "error", err)
			}
		}
	}()

	a.otelCleanup = provideTracing(ctx, cfg, logger)

	pool, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Pool = pool

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}
	a.Embedder = embedder

	store, err := knowledge.NewStore(pool, embedder, logger)
	if err != nil {
		return nil, fmt.Errorf("creating knowledge store: %w", err)
	}
	a.Knowledge = store
	// Registered so retrieval can be exercised directly from the Genkit
	// dev UI and by other flows.
	store.DefineRetriever(g, "docs")

	conversations, err := conversation.NewStore(pool, logger)
	if err != nil {
		return nil, fmt.Errorf("creating conversation store: %w", err)
	}
	a.Conversations = conversations

	userStore, err := auth.NewStore(pool, logger)
	if err != nil {
		return nil, fmt.Errorf("creating user store: %w", err)
	}
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, auth.DefaultTokenTTL)
	authService, err := auth.NewService(userStore, issuer, logger)
	if err != nil {
		return nil, fmt.Errorf("creating auth service: %w", err)
	}
	a.Auth = authService

	chatService, err := chat.New(chat.Config{
		Genkit:        g,
		Retriever:     store,
		Conversations: conversations,
		Logger:        logger,
		ModelName:     cfg.FullModelName(),
		Temperature:   cfg.Temperature,
		MaxTokens:     cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat service: %w", err)
	}
	a.Chat = chatService

	return a, nil
}

// provideTracing sets up OTLP export before Genkit initialization. The
// returned cleanup flushes pending spans with a bounded timeout.
func provideTracing(ctx context.Context, cfg *config.Config, logger *slog.Logger) func() {
	shutdown, err := observability.Setup(ctx, observability.Config{
		Endpoint:    cfg.Tracing.Endpoint,
		Environment: cfg.Tracing.Environment,
		ServiceName: cfg.Tracing.ServiceName,
		Logger:      logger,
	})
	if err != nil {
		logger.Warn("tracing setup failed, continuing without export", "error", err)
		return func() {}
	}

	//nolint:contextcheck // shutdown runs during teardown when the parent context is already canceled
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideDBPool runs migrations and opens the connection pool.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// provideGenkit initializes Genkit with the configured AI provider plugin.
func provideGenkit(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*genkit.Genkit, error) {
	var g *genkit.Genkit

	switch cfg.Provider {
	case config.ProviderOpenAI:
		g = genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with openai provider")
		}
		logger.Info("genkit initialized", "provider", cfg.Provider, "model", cfg.ModelName)

	case config.ProviderGemini:
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		logger.Info("genkit initialized", "provider", cfg.Provider, "model", cfg.ModelName)

	default: // ollama
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama has no model auto-discovery; both the chat model and the
		// embedder need explicit registration.
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		logger.Info("genkit initialized",
			"provider", config.ProviderOllama, "model", cfg.ModelName, "host", cfg.OllamaHost)
	}

	return g, nil
}

// provideEmbedder looks up the embedder registered by the provider plugin.
// Each provider registers embedders differently: ollama keys them by server
// address, openai auto-registers during Init, gemini resolves by model name.
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return genkit.LookupEmbedder(g, api.NewName("openai", cfg.EmbedderModel))
	case config.ProviderGemini:
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	default:
		return ollama.Embedder(g, cfg.OllamaHost)
	}
}
