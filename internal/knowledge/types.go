// Package knowledge stores documentation chunks with vector embeddings in
// PostgreSQL and serves similarity search over them.
package knowledge

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// VectorDimension is the embedding width stored in the documents table.
// Matches nomic-embed-text output.
const VectorDimension = 768

// Metadata keys written by the ingest pipeline.
const (
	// MetaSource is the URL the chunk was extracted from.
	MetaSource = "source"

	// MetaFramework is the documentation set: langchain, langgraph, langsmith.
	MetaFramework = "framework"

	// MetaTitle is the page title.
	MetaTitle = "title"

	// MetaChunk is the chunk index within its page.
	MetaChunk = "chunk"
)

// Document is one stored documentation chunk.
type Document struct {
	ID        string            // deterministic content hash, see DocumentID
	Content   string            // chunk text
	Metadata  map[string]string // source URL, framework, title, chunk index
	CreatedAt time.Time
}

// Result is a single search hit with its cosine similarity score (0-1).
type Result struct {
	Document   Document
	Similarity float32
}

// DocumentID derives a stable identifier from chunk content, so reingesting
// unchanged pages is idempotent.
func DocumentID(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// SearchOption configures search behavior using the functional options pattern.
type SearchOption func(*searchConfig)

// searchConfig holds internal search configuration.
type searchConfig struct {
	topK    int
	filter  map[string]string
	timeout time.Duration
}

const (
	defaultTopK    = 5
	defaultTimeout = 10 * time.Second
)

// WithTopK sets the maximum number of results to return. Default is 5.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithFilter adds a metadata filter to restrict search results.
// Multiple calls add additional filters (AND logic).
// Example: WithFilter("framework", "langgraph")
func WithFilter(key, value string) SearchOption {
	return func(c *searchConfig) {
		if c.filter == nil {
			c.filter = make(map[string]string)
		}
		c.filter[key] = value
	}
}

// WithTimeout overrides the per-search deadline. Default is 10 seconds.
func WithTimeout(d time.Duration) SearchOption {
	return func(c *searchConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// buildSearchConfig applies search options and returns the final configuration.
func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{
		topK:    defaultTopK,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
