package knowledge

import (
	"context"
	"strconv"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// Retriever topK bounds for requests arriving through the Genkit bridge.
const (
	minRetrieverTopK = 1
	maxRetrieverTopK = 10
)

// DefineRetriever registers a Genkit retriever over the store. Request
// options may carry "k" (result count, clamped to [1, 10]) and "framework"
// (metadata filter).
//
// Usage:
//
//	retriever := store.DefineRetriever(g, "docs")
//	resp, err := ai.Retrieve(ctx, retriever, ai.WithTextDocs(query))
func (s *Store) DefineRetriever(g *genkit.Genkit, name string) ai.Retriever {
	return genkit.DefineRetriever(
		g, name, nil,
		func(ctx context.Context, req *ai.RetrieverRequest) (*ai.RetrieverResponse, error) {
			queryText := extractQueryText(req)

			searchOpts := []SearchOption{
				WithTopK(extractTopK(req, defaultTopK)),
			}
			if framework := extractOption(req, "framework"); framework != "" {
				searchOpts = append(searchOpts, WithFilter(MetaFramework, framework))
			}

			results, err := s.Search(ctx, queryText, searchOpts...)
			if err != nil {
				return nil, err
			}

			return &ai.RetrieverResponse{
				Documents: convertToGenkitDocuments(results),
			}, nil
		},
	)
}

// extractQueryText extracts text from RetrieverRequest.Query.
func extractQueryText(req *ai.RetrieverRequest) string {
	if req.Query != nil && len(req.Query.Content) > 0 {
		return req.Query.Content[0].Text
	}
	return ""
}

// extractTopK reads "k" from request options, tolerating the numeric types
// JSON decoding produces. Values outside [1, 10] fall back to defaultK.
func extractTopK(req *ai.RetrieverRequest, defaultK int) int {
	opts, ok := req.Options.(map[string]any)
	if !ok {
		return defaultK
	}
	raw, exists := opts["k"]
	if !exists {
		return defaultK
	}

	var k int
	switch v := raw.(type) {
	case int:
		k = v
	case int32:
		k = int(v)
	case int64:
		k = int(v)
	case float64:
		k = int(v)
	case float32:
		k = int(v)
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return defaultK
		}
		k = parsed
	default:
		return defaultK
	}

	if k < minRetrieverTopK || k > maxRetrieverTopK {
		return defaultK
	}
	return k
}

// extractOption reads a string option from request options.
func extractOption(req *ai.RetrieverRequest, key string) string {
	if opts, ok := req.Options.(map[string]any); ok {
		if v, ok := opts[key].(string); ok {
			return v
		}
	}
	return ""
}

// convertToGenkitDocuments maps search results to Genkit documents,
// carrying the stored metadata plus the similarity score.
func convertToGenkitDocuments(results []Result) []*ai.Document {
	docs := make([]*ai.Document, 0, len(results))
	for _, r := range results {
		metadata := make(map[string]any, len(r.Document.Metadata)+2)
		for k, v := range r.Document.Metadata {
			metadata[k] = v
		}
		metadata["id"] = r.Document.ID
		metadata["similarity"] = r.Similarity

		docs = append(docs, ai.DocumentFromText(r.Document.Content, metadata))
	}
	return docs
}
