package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/app"
	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/config"
	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/docs"
)

var ingestDrop bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Crawl the documentation corpus into the knowledge base",
	Long: `Crawl the LangChain, LangGraph, and LangSmith documentation pages,
split them into chunks, embed each chunk, and store the vectors in
PostgreSQL. Re-running ingest replaces chunks for pages already indexed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest()
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestDrop, "drop", false, "clear the knowledge base before ingesting")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// One ingest at a time; a second run would race on page replacement.
	unlock, err := acquireIngestLock()
	if err != nil {
		return err
	}
	defer unlock()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	if ingestDrop {
		deleted, err := a.Knowledge.Clear(ctx)
		if err != nil {
			return fmt.Errorf("clearing knowledge base: %w", err)
		}
		logger.Info("knowledge base cleared", "deleted", deleted)
	}

	crawler := docs.NewCrawler(docs.CrawlerConfig{
		Parallelism: cfg.Crawler.Parallelism,
		Delay:       time.Duration(cfg.Crawler.DelayMs) * time.Millisecond,
		Timeout:     time.Duration(cfg.Crawler.TimeoutMs) * time.Millisecond,
	}, logger)

	sources := docs.Sources()
	logger.Info("crawling documentation", "pages", len(sources))

	start := time.Now()
	pages, err := crawler.Fetch(ctx, sources)
	if err != nil {
		return fmt.Errorf("fetching documentation: %w", err)
	}
	logger.Info("crawl finished",
		"fetched", len(pages),
		"failed", len(sources)-len(pages),
		"elapsed", time.Since(start).Round(time.Second),
	)

	ingestor, err := docs.NewIngestor(a.Knowledge, logger)
	if err != nil {
		return fmt.Errorf("creating ingestor: %w", err)
	}

	stored, err := ingestor.Ingest(ctx, pages)
	if err != nil {
		return fmt.Errorf("ingesting documentation: %w", err)
	}

	logger.Info("ingest complete",
		"pages", len(pages),
		"chunks", stored,
		"elapsed", time.Since(start).Round(time.Second),
	)
	return nil
}

// acquireIngestLock takes an advisory file lock so concurrent ingest runs
// fail fast instead of interleaving writes.
func acquireIngestLock() (func(), error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}
	lockPath := filepath.Join(home, ".docschat", "ingest.lock")
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring ingest lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another ingest is already running (lock: %s)", lockPath)
	}

	return func() {
		if err := lock.Unlock(); err != nil {
			slog.Warn("releasing ingest lock", "error", err)
		}
	}, nil
}
