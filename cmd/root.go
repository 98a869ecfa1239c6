// Package cmd provides the docschat CLI commands.
//
// Commands:
//   - serve: HTTP API server with SSE streaming
//   - ingest: crawl the documentation corpus into the knowledge base
//   - ask: one-shot question from the terminal
//   - inspect: knowledge base statistics
//   - mcp: Model Context Protocol server for editor integration
//
// All long-running commands shut down gracefully on SIGINT/SIGTERM via
// context cancellation.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/log"
)

// Version information (injected at build time via ldflags).
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "docschat",
	Short: "docschat answers questions about LangChain, LangGraph, and LangSmith",
	Long: `docschat is a retrieval augmented chatbot over the LangChain,
LangGraph, and LangSmith documentation.

Run "docschat ingest" once to build the knowledge base, then either
"docschat serve" for the HTTP API or "docschat ask" for one-shot
questions from the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initLogger installs the default structured logger. Level is controlled
// by the DEBUG environment variable.
//
// Logs go to stderr: the mcp command reserves stdout for JSON-RPC, and
// ask writes the rendered answer there.
func initLogger() {
	cfg := log.Config{Level: slog.LevelInfo}
	if os.Getenv("DEBUG") != "" {
		cfg.Level = slog.LevelDebug
	}
	slog.SetDefault(log.New(cfg))
}
