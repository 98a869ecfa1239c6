package testutil

import "log/slog"

// DiscardLogger returns a logger that drops everything. Tests pass it
// wherever a component wants a log.Logger but the output is noise.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
