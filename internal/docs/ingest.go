package docs

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/knowledge"
)

// documentStore is the slice of the knowledge store the ingestor needs.
type documentStore interface {
	Add(ctx context.Context, doc knowledge.Document) error
	DeleteBySource(ctx context.Context, source string) (int64, error)
}

// Ingestor splits fetched pages into chunks and writes them to the
// knowledge store. A page's previous chunks are removed before its fresh
// ones are written, so re-running ingest replaces changed pages instead
// of accumulating stale chunks next to new ones.
type Ingestor struct {
	store    documentStore
	splitter *Splitter
	logger   *slog.Logger
}

// NewIngestor creates an Ingestor with the default chunking parameters.
func NewIngestor(store documentStore, logger *slog.Logger) (*Ingestor, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		store:    store,
		splitter: NewSplitter(DefaultChunkSize, DefaultChunkOverlap),
		logger:   logger,
	}, nil
}

// Ingest chunks and stores every page. It returns the number of chunks
// written. Pages whose content fails the quality filter are skipped.
func (in *Ingestor) Ingest(ctx context.Context, pages []Page) (int, error) {
	var stored, skipped int
	for _, page := range pages {
		if !knowledge.IsSubstantive(page.Text) {
			skipped++
			in.logger.Debug("skipping low-quality page", "url", page.URL)
			continue
		}

		if _, err := in.store.DeleteBySource(ctx, page.URL); err != nil {
			return stored, fmt.Errorf("removing stale chunks of %s: %w", page.URL, err)
		}

		chunks := in.splitter.Split(page.Text)
		for i, chunk := range chunks {
			doc := knowledge.Document{
				Content: chunk,
				Metadata: map[string]string{
					knowledge.MetaSource:    page.URL,
					knowledge.MetaFramework: page.Framework,
					knowledge.MetaTitle:     page.Title,
					knowledge.MetaChunk:     strconv.Itoa(i),
				},
			}
			if err := in.store.Add(ctx, doc); err != nil {
				return stored, fmt.Errorf("storing chunk %d of %s: %w", i, page.URL, err)
			}
			stored++
		}

		in.logger.Debug("ingested page", "url", page.URL, "chunks", len(chunks))
	}

	in.logger.Info("ingest finished",
		"pages", len(pages)-skipped, "skipped", skipped, "chunks", stored)
	return stored, nil
}
