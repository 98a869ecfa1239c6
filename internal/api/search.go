package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/knowledge"
)

// searcher is the slice of the knowledge store the handler needs.
type searcher interface {
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
}

// searchHandler serves direct similarity search over the documentation
// corpus, useful for debugging retrieval quality.
type searchHandler struct {
	store  searcher
	logger *slog.Logger
}

type searchHit struct {
	ID         string            `json:"id"`
	Content    string            `json:"content"`
	Similarity float32           `json:"similarity"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// search handles GET /api/v1/search?q=...&framework=...&k=...
func (h *searchHandler) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing_query", "q parameter is required")
		return
	}

	var opts []knowledge.SearchOption
	if framework := r.URL.Query().Get("framework"); framework != "" {
		opts = append(opts, knowledge.WithFilter(knowledge.MetaFramework, framework))
	}
	if raw := r.URL.Query().Get("k"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil || k <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_k", "k must be a positive integer")
			return
		}
		opts = append(opts, knowledge.WithTopK(k))
	}

	results, err := h.store.Search(r.Context(), query, opts...)
	if err != nil {
		h.logger.Error("search failed", "error", err, "query", query)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	hits := make([]searchHit, 0, len(results))
	for _, res := range results {
		hits = append(hits, searchHit{
			ID:         res.Document.ID,
			Content:    res.Document.Content,
			Similarity: res.Similarity,
			Metadata:   res.Document.Metadata,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": hits})
}
