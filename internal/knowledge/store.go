package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

// querier is the common interface satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// upsertDocumentSQL keeps reingestion idempotent: the ID is a content hash,
// so an unchanged chunk only refreshes its embedding and metadata.
const upsertDocumentSQL = `INSERT INTO documents (id, content, embedding, metadata)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE SET
		embedding = EXCLUDED.embedding,
		metadata = EXCLUDED.metadata`

// Store manages documentation chunks with vector search.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db       querier
	embedder ai.Embedder
	logger   *slog.Logger
}

// NewStore creates a knowledge Store.
func NewStore(db querier, embedder ai.Embedder, logger *slog.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, embedder: embedder, logger: logger}, nil
}

// embed generates a vector embedding for the given text.
func (s *Store) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(text, nil)},
	})
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("embedding text: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, fmt.Errorf("empty embedding response")
	}
	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}

// Add embeds and upserts a single document. An empty ID is filled in from
// the content hash.
func (s *Store) Add(ctx context.Context, doc Document) error {
	if doc.Content == "" {
		return fmt.Errorf("document content is empty")
	}
	if doc.ID == "" {
		doc.ID = DocumentID(doc.Content)
	}

	embedding, err := s.embed(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("document %q: %w", doc.ID, err)
	}

	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}

	if _, err := s.db.Exec(ctx, upsertDocumentSQL, doc.ID, doc.Content, embedding, metadataJSON); err != nil {
		return fmt.Errorf("upserting document %q: %w", doc.ID, err)
	}

	s.logger.Debug("added document", "id", doc.ID, "content_length", len(doc.Content))
	return nil
}

// Search performs semantic search over stored chunks, most similar first.
// Similarity is 1 minus the cosine distance, so scores stay in 0..1 for
// normalized embeddings. A per-search timeout bounds slow vector scans.
//
// Example:
//
//	results, err := store.Search(ctx, "what is LCEL",
//	    knowledge.WithTopK(10),
//	    knowledge.WithFilter("framework", "langchain"))
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	cfg := buildSearchConfig(opts)

	queryCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	queryEmbedding, err := s.embed(queryCtx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("embedding generation timeout: %w", err)
		}
		return nil, fmt.Errorf("query: %w", err)
	}

	var rows pgx.Rows
	if len(cfg.filter) > 0 {
		// filterJSON always comes from json.Marshal, and @> with a bind
		// parameter keeps user input out of the SQL text.
		filterJSON, marshalErr := json.Marshal(cfg.filter)
		if marshalErr != nil {
			return nil, fmt.Errorf("marshaling filter: %w", marshalErr)
		}
		rows, err = s.db.Query(queryCtx,
			`SELECT id, content, metadata, created_at, 1 - (embedding <=> $1) AS similarity
			 FROM documents
			 WHERE metadata @> $2
			 ORDER BY embedding <=> $1
			 LIMIT $3`,
			queryEmbedding, filterJSON, cfg.topK)
	} else {
		rows, err = s.db.Query(queryCtx,
			`SELECT id, content, metadata, created_at, 1 - (embedding <=> $1) AS similarity
			 FROM documents
			 ORDER BY embedding <=> $1
			 LIMIT $2`,
			queryEmbedding, cfg.topK)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("search query timeout: %w", err)
		}
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	return s.scanResults(rows)
}

// Count returns the number of stored documents, optionally filtered by
// metadata.
func (s *Store) Count(ctx context.Context, filter map[string]string) (int, error) {
	var count int64
	var err error

	if len(filter) > 0 {
		filterJSON, marshalErr := json.Marshal(filter)
		if marshalErr != nil {
			return 0, fmt.Errorf("marshaling filter: %w", marshalErr)
		}
		err = s.db.QueryRow(ctx,
			`SELECT COUNT(*) FROM documents WHERE metadata @> $1`, filterJSON).Scan(&count)
	} else {
		err = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}

	if count > math.MaxInt {
		return 0, fmt.Errorf("document count %d exceeds platform int capacity", count)
	}
	return int(count), nil
}

// Delete removes a document by ID.
func (s *Store) Delete(ctx context.Context, docID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, docID); err != nil {
		return fmt.Errorf("deleting document %q: %w", docID, err)
	}
	s.logger.Debug("deleted document", "id", docID)
	return nil
}

// DeleteBySource removes every chunk indexed for the given source URL.
// Reingestion calls it before writing a page's fresh chunks so content
// removed from the page does not linger in the index.
func (s *Store) DeleteBySource(ctx context.Context, source string) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM documents WHERE metadata->>'source' = $1`, source)
	if err != nil {
		return 0, fmt.Errorf("deleting documents for source %q: %w", source, err)
	}
	deleted := tag.RowsAffected()
	if deleted > 0 {
		s.logger.Debug("removed stale chunks", "source", source, "deleted", deleted)
	}
	return deleted, nil
}

// Clear removes every stored document. Used by reingestion with --drop.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM documents`)
	if err != nil {
		return 0, fmt.Errorf("clearing documents: %w", err)
	}
	deleted := tag.RowsAffected()
	s.logger.Info("cleared knowledge base", "deleted", deleted)
	return deleted, nil
}

// ListSources returns the distinct source URLs currently indexed with their
// chunk counts, newest first. Used by the inspect command.
func (s *Store) ListSources(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.Query(ctx,
		`SELECT metadata->>'source' AS source, COUNT(*)
		 FROM documents
		 WHERE metadata ? 'source'
		 GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	defer rows.Close()

	sources := make(map[string]int)
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("scanning source row: %w", err)
		}
		sources[source] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}
	return sources, nil
}

func (s *Store) scanResults(rows pgx.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var (
			doc          Document
			metadataJSON []byte
			createdAt    time.Time
			similarity   float32
		)
		if err := rows.Scan(&doc.ID, &doc.Content, &metadataJSON, &createdAt, &similarity); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}

		if err := json.Unmarshal(metadataJSON, &doc.Metadata); err != nil {
			s.logger.Warn("failed to parse metadata", "document_id", doc.ID, "error", err)
			doc.Metadata = make(map[string]string)
		}
		doc.CreatedAt = createdAt

		results = append(results, Result{Document: doc, Similarity: similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating results: %w", err)
	}
	return results, nil
}
