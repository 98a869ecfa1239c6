package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/knowledge"
	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/testutil"
)

type fakeStore struct {
	results    []knowledge.Result
	searchErr  error
	sources    map[string]int
	sourcesErr error

	lastQuery string
	lastOpts  int
}

func (f *fakeStore) Search(_ context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error) {
	f.lastQuery = query
	f.lastOpts = len(opts)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

func (f *fakeStore) ListSources(_ context.Context) (map[string]int, error) {
	if f.sourcesErr != nil {
		return nil, f.sourcesErr
	}
	return f.sources, nil
}

func newTestServer(t *testing.T, store knowledgeStore) *Server {
	t.Helper()
	s, err := NewServer(Config{
		Name:    "docschat",
		Version: "test",
		Store:   store,
		Logger:  testutil.DiscardLogger(),
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("expected 1 content item, got %d", len(result.Content))
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func TestNewServerValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing name", Config{Version: "1", Store: &fakeStore{}}},
		{"missing version", Config{Name: "x", Store: &fakeStore{}}},
		{"missing store", Config{Name: "x", Version: "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewServer(tt.cfg); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestSearchDocsFormatsResults(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		results: []knowledge.Result{
			{
				Document: knowledge.Document{
					Content: "Runnables compose into chains.",
					Metadata: map[string]string{
						knowledge.MetaFramework: "langchain",
						knowledge.MetaSource:    "https://python.langchain.com/docs/concepts/runnables/",
					},
				},
				Similarity: 0.91,
			},
			{
				Document: knowledge.Document{
					Content:  "StateGraph defines nodes and edges.",
					Metadata: map[string]string{knowledge.MetaFramework: "langgraph"},
				},
				Similarity: 0.85,
			},
		},
	}
	s := newTestServer(t, store)

	result, _, err := s.searchDocs(context.Background(), nil, SearchInput{Query: "what is a runnable"})
	if err != nil {
		t.Fatalf("searchDocs: %v", err)
	}
	if result.IsError {
		t.Fatal("unexpected IsError")
	}
	text := textOf(t, result)
	for _, want := range []string{
		"[1] similarity 0.910",
		"langchain",
		"https://python.langchain.com/docs/concepts/runnables/",
		"Runnables compose into chains.",
		"[2] similarity 0.850",
		"StateGraph defines nodes and edges.",
		"---",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if store.lastQuery != "what is a runnable" {
		t.Errorf("store got query %q", store.lastQuery)
	}
}

func TestSearchDocsPassesOptions(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	s := newTestServer(t, store)

	_, _, err := s.searchDocs(context.Background(), nil, SearchInput{
		Query:     "checkpoints",
		Framework: "LangGraph",
		K:         3,
	})
	if err != nil {
		t.Fatalf("searchDocs: %v", err)
	}
	if store.lastOpts != 2 {
		t.Errorf("expected 2 search options, got %d", store.lastOpts)
	}
}

func TestClampTopK(t *testing.T) {
	t.Parallel()

	tests := []struct {
		k    int
		want int
	}{
		{-1, 0},
		{0, 0},
		{1, 1},
		{5, 5},
		{10, 10},
		{11, 0},
		{5000, 0},
	}
	for _, tt := range tests {
		if got := clampTopK(tt.k); got != tt.want {
			t.Errorf("clampTopK(%d) = %d, want %d", tt.k, got, tt.want)
		}
	}
}

func TestSearchDocsIgnoresOversizedK(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	s := newTestServer(t, store)

	_, _, err := s.searchDocs(context.Background(), nil, SearchInput{
		Query: "retrievers",
		K:     5000,
	})
	if err != nil {
		t.Fatalf("searchDocs: %v", err)
	}
	if store.lastOpts != 0 {
		t.Errorf("oversized k should fall back to the store default, got %d options", store.lastOpts)
	}
}

func TestSearchDocsEmptyQuery(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeStore{})

	result, _, err := s.searchDocs(context.Background(), nil, SearchInput{Query: "   "})
	if err != nil {
		t.Fatalf("searchDocs: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError for empty query")
	}
}

func TestSearchDocsNoResults(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeStore{})

	result, _, err := s.searchDocs(context.Background(), nil, SearchInput{Query: "obscure topic"})
	if err != nil {
		t.Fatalf("searchDocs: %v", err)
	}
	if result.IsError {
		t.Fatal("no results should not be an error")
	}
	if text := textOf(t, result); !strings.Contains(text, "No matching documentation") {
		t.Errorf("unexpected text: %q", text)
	}
}

func TestSearchDocsStoreError(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeStore{searchErr: errors.New("database down")})

	_, _, err := s.searchDocs(context.Background(), nil, SearchInput{Query: "anything"})
	if err == nil {
		t.Fatal("expected error from store failure")
	}
}

func TestListSources(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeStore{sources: map[string]int{
		"https://docs.smith.langchain.com/":                4,
		"https://python.langchain.com/docs/introduction/":  12,
		"https://langchain-ai.github.io/langgraph/agents/": 7,
	}})

	result, _, err := s.listSources(context.Background(), nil, ListSourcesInput{})
	if err != nil {
		t.Fatalf("listSources: %v", err)
	}
	text := textOf(t, result)
	if !strings.Contains(text, "3 indexed pages") {
		t.Errorf("missing page count:\n%s", text)
	}
	if !strings.Contains(text, "https://python.langchain.com/docs/introduction/ (12 chunks)") {
		t.Errorf("missing chunk counts:\n%s", text)
	}
	// Sorted output keeps the listing stable.
	first := strings.Index(text, "https://docs.smith.langchain.com/")
	second := strings.Index(text, "https://langchain-ai.github.io/langgraph/agents/")
	if first == -1 || second == -1 || first > second {
		t.Errorf("sources not sorted:\n%s", text)
	}
}

func TestListSourcesEmpty(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeStore{sources: map[string]int{}})

	result, _, err := s.listSources(context.Background(), nil, ListSourcesInput{})
	if err != nil {
		t.Fatalf("listSources: %v", err)
	}
	if text := textOf(t, result); !strings.Contains(text, "empty") {
		t.Errorf("unexpected text: %q", text)
	}
}
