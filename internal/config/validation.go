package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"slices"
	"strings"
)

// defaultJWTSecret is the insecure development fallback. Serving with it
// logs a warning; production deployments must set JWT_SECRET.
const defaultJWTSecret = "change-this-secret-key"

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	// 1. Provider and API key validation
	switch c.Provider {
	case ProviderOllama:
		if c.OllamaHost == "" {
			return fmt.Errorf("%w: ollama_host cannot be empty", ErrInvalidOllamaHost)
		}
		if _, err := url.Parse(c.OllamaHost); err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidOllamaHost, c.OllamaHost, err)
		}
	case ProviderOpenAI:
		if os.Getenv("OPENAI_API_KEY") == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY environment variable is required for provider %q",
				ErrInvalidProvider, c.Provider)
		}
	case ProviderGemini:
		if os.Getenv("GEMINI_API_KEY") == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required for provider %q\n"+
				"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
				ErrInvalidProvider, c.Provider)
		}
	default:
		return fmt.Errorf("%w: %q, must be one of: ollama, openai, gemini",
			ErrInvalidProvider, c.Provider)
	}

	// 2. Model configuration validation
	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}

	// Temperature range: 0.0 (deterministic) to 2.0 (maximum creativity)
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}

	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	// 3. PostgreSQL configuration validation
	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}

	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}

	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}

	// Modern SSL modes only; deprecated allow/prefer are excluded
	// Reference: https://www.postgresql.org/docs/current/libpq-ssl.html
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	// 4. JWT secret validation (API auth)
	if err := c.validateJWTSecret(); err != nil {
		return err
	}

	return nil
}

// validateJWTSecret checks the token signing secret used by the HTTP API.
// An empty secret falls back to the development default with a warning so
// local setups work out of the box; short secrets are rejected outright.
func (c *Config) validateJWTSecret() error {
	if c.JWTSecret == "" {
		slog.Warn("JWT_SECRET is not set, using insecure development default",
			"action", "set JWT_SECRET for production deployments")
		c.JWTSecret = defaultJWTSecret
		return nil
	}

	if c.JWTSecret == defaultJWTSecret {
		slog.Warn("JWT_SECRET is set to the development default",
			"action", "set JWT_SECRET for production deployments")
		return nil
	}

	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("%w: must be at least 16 characters (got %d)",
			ErrInvalidJWTSecret, len(c.JWTSecret))
	}

	if strings.TrimSpace(c.JWTSecret) != c.JWTSecret {
		return fmt.Errorf("%w: must not contain leading or trailing whitespace", ErrInvalidJWTSecret)
	}

	return nil
}
