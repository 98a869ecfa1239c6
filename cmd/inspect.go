package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/app"
	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/config"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show knowledge base statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect()
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			slog.Warn("shutdown error", "error", closeErr)
		}
	}()

	for _, table := range []string{"users", "conversations", "messages"} {
		var count int64
		if err := a.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			return fmt.Errorf("counting %s: %w", table, err)
		}
		fmt.Printf("%-14s %d\n", table+":", count)
	}

	total, err := a.Knowledge.Count(ctx, nil)
	if err != nil {
		return fmt.Errorf("counting documents: %w", err)
	}

	sources, err := a.Knowledge.ListSources(ctx)
	if err != nil {
		return fmt.Errorf("listing sources: %w", err)
	}

	fmt.Printf("\nKnowledge base: %d chunks across %d pages\n", total, len(sources))
	if len(sources) == 0 {
		fmt.Println("\nThe knowledge base is empty. Run: docschat ingest")
		return nil
	}

	urls := make([]string, 0, len(sources))
	for url := range sources {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	fmt.Println()
	for _, url := range urls {
		fmt.Printf("  %4d  %s\n", sources[url], url)
	}
	return nil
}
