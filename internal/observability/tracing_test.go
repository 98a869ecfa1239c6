package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/testutil"
)

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	shutdown, err := Setup(ctx, Config{Logger: testutil.DiscardLogger()})

	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(ctx))
}

func TestSetup_WithEndpoint(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Endpoint:    "localhost:4318",
		Environment: "test",
		ServiceName: "docschat-test",
		Logger:      testutil.DiscardLogger(),
	}

	ctx := context.Background()
	shutdown, err := Setup(ctx, cfg)

	// Exporter creation does not dial the collector, so setup succeeds
	// even when nothing listens on the endpoint.
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(ctx))
}
