// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.docschat/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: provider selection, model, temperature, embedder
//   - Storage: PostgreSQL connection (see storage.go)
//   - Auth: JWT signing secret for the HTTP API
//   - Crawler: documentation scraper politeness settings
//   - Tracing: OTLP trace export (see tracing section below)
//
// Security: sensitive values (passwords, JWT secret) are masked in MarshalJSON
// and never logged in clear text.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidOllamaHost indicates the Ollama host is invalid.
	ErrInvalidOllamaHost = errors.New("invalid Ollama host")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrMissingJWTSecret indicates the JWT signing secret is not set.
	ErrMissingJWTSecret = errors.New("missing JWT secret")

	// ErrInvalidJWTSecret indicates the JWT signing secret is too short.
	ErrInvalidJWTSecret = errors.New("invalid JWT secret")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// CrawlerConfig controls the documentation crawler's politeness settings.
type CrawlerConfig struct {
	Parallelism int `mapstructure:"parallelism" json:"parallelism"`
	DelayMs     int `mapstructure:"delay_ms" json:"delay_ms"`
	TimeoutMs   int `mapstructure:"timeout_ms" json:"timeout_ms"`
}

// TracingConfig controls OTLP trace export. Disabled unless an endpoint is set.
type TracingConfig struct {
	Endpoint    string `mapstructure:"endpoint" json:"endpoint"`
	Environment string `mapstructure:"environment" json:"environment"`
	ServiceName string `mapstructure:"service_name" json:"service_name"`
}

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
type Config struct {
	// AI provider and model configuration
	Provider      string  `mapstructure:"provider" json:"provider"`       // "ollama" (default), "openai", "gemini"
	ModelName     string  `mapstructure:"model_name" json:"model_name"`   // e.g. "llama3.2", "llama-3.1-70b-versatile"
	Temperature   float32 `mapstructure:"temperature" json:"temperature"` // low by default: factual answers over creativity
	MaxTokens     int     `mapstructure:"max_tokens" json:"max_tokens"`
	EmbedderModel string  `mapstructure:"embedder_model" json:"embedder_model"`

	// Ollama configuration (only used when provider is "ollama")
	OllamaHost string `mapstructure:"ollama_host" json:"ollama_host"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db" json:"postgres_db"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Auth configuration (serve mode)
	JWTSecret string `mapstructure:"jwt_secret" json:"jwt_secret"` // SENSITIVE: masked in MarshalJSON

	// HTTP serve configuration
	ListenAddr  string   `mapstructure:"listen_addr" json:"listen_addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"` // trust X-Real-IP/X-Forwarded-For behind a reverse proxy

	// Crawler configuration for the ingest command
	Crawler CrawlerConfig `mapstructure:"crawler" json:"crawler"`

	// Tracing configuration
	Tracing TracingConfig `mapstructure:"tracing" json:"tracing"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".docschat")

	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Missing config file is fine, defaults apply
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL overrides individual postgres_* settings
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// AI defaults. The answer pipeline favors factual grounding, hence the
	// low temperature default.
	viper.SetDefault("provider", ProviderOllama)
	viper.SetDefault("model_name", "llama3.2")
	viper.SetDefault("temperature", 0.1)
	viper.SetDefault("max_tokens", 2048)
	viper.SetDefault("embedder_model", "nomic-embed-text")

	// Ollama defaults
	viper.SetDefault("ollama_host", "http://localhost:11434")

	// PostgreSQL defaults
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "postgres")
	viper.SetDefault("postgres_password", "")
	viper.SetDefault("postgres_db", "langchain_chatbot")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// Serve defaults
	viper.SetDefault("listen_addr", "localhost:8080")
	viper.SetDefault("cors_origins", []string{"http://localhost:5173"})
	viper.SetDefault("trust_proxy", false)

	// Crawler defaults
	viper.SetDefault("crawler.parallelism", 2)
	viper.SetDefault("crawler.delay_ms", 1000)
	viper.SetDefault("crawler.timeout_ms", 30000)

	// Tracing defaults (disabled unless endpoint is configured)
	viper.SetDefault("tracing.endpoint", "")
	viper.SetDefault("tracing.environment", "dev")
	viper.SetDefault("tracing.service_name", "docschat")
}

// bindEnvVariables binds environment variables explicitly.
// Names follow the deployment convention: POSTGRES_* for the database,
// JWT_SECRET for auth, OLLAMA_* for the local model server.
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a panic here is a programming error.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("postgres_host", "POSTGRES_HOST")
	mustBind("postgres_port", "POSTGRES_PORT")
	mustBind("postgres_user", "POSTGRES_USER")
	mustBind("postgres_password", "POSTGRES_PASSWORD")
	mustBind("postgres_db", "POSTGRES_DB")

	mustBind("jwt_secret", "JWT_SECRET")

	mustBind("provider", "DOCSCHAT_PROVIDER")
	mustBind("model_name", "DOCSCHAT_MODEL_NAME")
	mustBind("embedder_model", "OLLAMA_EMBED_MODEL")
	mustBind("ollama_host", "OLLAMA_BASE_URL")

	mustBind("listen_addr", "DOCSCHAT_LISTEN_ADDR")
	mustBind("cors_origins", "DOCSCHAT_CORS_ORIGINS")
	mustBind("trust_proxy", "DOCSCHAT_TRUST_PROXY")

	// NOTE: OPENAI_API_KEY / GROQ_API_KEY are read directly by the Genkit
	// OpenAI-compatible plugin, GEMINI_API_KEY by the Google plugin.
	// Validation checks their presence based on the selected provider.
}

// maskedValue is the placeholder for masked sensitive data.
// Full-width blocks avoid substring matches against real secret content.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Secrets of 8 bytes or fewer are fully masked; longer secrets keep the
// first and last 2 characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
//
// Sensitive fields masked:
//   - PostgresPassword
//   - JWTSecret
//
// When adding new sensitive fields, update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	a.JWTSecret = maskSecret(a.JWTSecret)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// FullModelName returns the provider-qualified model name for Genkit.
// Examples: "ollama/llama3.2", "openai/llama-3.1-70b-versatile", "googleai/gemini-2.5-flash".
// If ModelName already contains a "/", it is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	switch c.Provider {
	case ProviderOpenAI:
		return ProviderOpenAI + "/" + c.ModelName
	case ProviderGemini:
		return "googleai/" + c.ModelName
	default:
		return ProviderOllama + "/" + c.ModelName
	}
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
