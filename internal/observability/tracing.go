// Package observability wires OTLP trace export into Genkit's tracer
// provider. Export is disabled unless an endpoint is configured, so local
// development carries no collector dependency.
package observability

import (
	"context"
	"log/slog"
	"os"

	"github.com/firebase/genkit/go/core/tracing"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config for OTLP trace export.
type Config struct {
	// Endpoint is the OTLP HTTP collector address, e.g. "localhost:4318".
	// Empty disables tracing.
	Endpoint string
	// Environment is the deployment environment tag (dev, staging, prod).
	Environment string
	// ServiceName is the service name attached to exported spans.
	ServiceName string
	// Logger for setup diagnostics. Defaults to slog.Default.
	Logger *slog.Logger
}

// Setup registers an OTLP HTTP exporter with Genkit's TracerProvider.
// Model calls, flow executions, and retrieval spans that Genkit records
// are batched and shipped to the configured collector.
//
// Returns a shutdown function that flushes pending spans. When no endpoint
// is configured, or the exporter cannot be created, tracing stays disabled
// and the returned shutdown is a no-op.
func Setup(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Endpoint == "" {
		logger.Debug("tracing disabled, no endpoint configured")
		return noop, nil
	}

	// Genkit's TracerProvider reads the service identity from the standard
	// OTEL environment variables when building the span resource.
	if cfg.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName)
	}
	if cfg.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+cfg.Environment)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logger.Warn("failed to create trace exporter, tracing disabled", "error", err)
		return noop, nil
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	logger.Debug("tracing enabled",
		"endpoint", cfg.Endpoint,
		"service", cfg.ServiceName,
		"environment", cfg.Environment,
	)

	return tracing.TracerProvider().Shutdown, nil
}
