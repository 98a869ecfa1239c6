package testutil

import "testing"

func TestDiscardLogger(t *testing.T) {
	t.Parallel()
	logger := DiscardLogger()
	if logger == nil {
		t.Fatal("DiscardLogger() returned nil")
	}
	logger.Info("dropped", "key", "value")
	logger.Error("also dropped")
}
