// Package mcp exposes the documentation corpus to MCP clients (editors,
// agents) over the Model Context Protocol. Two tools are served:
// search_docs for similarity search and list_sources for corpus inventory.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/knowledge"
)

// knowledgeStore is the slice of the knowledge store the server needs.
type knowledgeStore interface {
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
	ListSources(ctx context.Context) (map[string]int, error)
}

// Config holds MCP server configuration.
type Config struct {
	Name    string
	Version string
	Store   knowledgeStore
	Logger  *slog.Logger
}

// Server wraps the MCP SDK server around the knowledge store.
type Server struct {
	mcpServer *mcp.Server
	store     knowledgeStore
	logger    *slog.Logger
}

// NewServer creates an MCP server with the documentation tools registered.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("server version is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("knowledge store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		store:  cfg.Store,
		logger: logger,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}
	return s, nil
}

// Run serves the MCP protocol on the given transport until ctx is canceled.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcpServer.Run(ctx, transport)
}

// SearchInput is the input schema for the search_docs tool.
type SearchInput struct {
	Query     string `json:"query" jsonschema:"The question or topic to search the documentation for"`
	Framework string `json:"framework,omitempty" jsonschema:"Optional filter: langchain, langgraph, or langsmith"`
	K         int    `json:"k,omitempty" jsonschema:"Number of results to return (default 5, max 10)"`
}

// ListSourcesInput is the (empty) input schema for the list_sources tool.
type ListSourcesInput struct{}

func (s *Server) registerTools() error {
	searchSchema, err := jsonschema.For[SearchInput](nil)
	if err != nil {
		return fmt.Errorf("schema for search_docs: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: "search_docs",
		Description: "Search LangChain, LangGraph, and LangSmith documentation using semantic similarity. " +
			"Returns the most relevant documentation chunks with their source URLs.",
		InputSchema: searchSchema,
	}, s.searchDocs)

	sourcesSchema, err := jsonschema.For[ListSourcesInput](nil)
	if err != nil {
		return fmt.Errorf("schema for list_sources: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: "list_sources",
		Description: "List the documentation pages in the knowledge base with the number of " +
			"indexed chunks per page.",
		InputSchema: sourcesSchema,
	}, s.listSources)

	return nil
}

// maxSearchK caps the per-call result count a client may request.
const maxSearchK = 10

// clampTopK bounds a client-supplied result count. Values outside
// (0, maxSearchK] fall back to the store default.
func clampTopK(k int) int {
	if k <= 0 || k > maxSearchK {
		return 0
	}
	return k
}

// searchDocs handles the search_docs tool call.
func (s *Server) searchDocs(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, any, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "Error: query is required"}},
			IsError: true,
		}, nil, nil
	}

	var opts []knowledge.SearchOption
	if k := clampTopK(input.K); k > 0 {
		opts = append(opts, knowledge.WithTopK(k))
	}
	if input.Framework != "" {
		opts = append(opts, knowledge.WithFilter(knowledge.MetaFramework, strings.ToLower(input.Framework)))
	}

	results, err := s.store.Search(ctx, query, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("searching documentation: %w", err)
	}

	s.logger.Debug("search_docs", "query", query, "results", len(results))

	if len(results) == 0 {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "No matching documentation found."}},
		}, nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: formatResults(results)}},
	}, nil, nil
}

// listSources handles the list_sources tool call.
func (s *Server) listSources(ctx context.Context, _ *mcp.CallToolRequest, _ ListSourcesInput) (*mcp.CallToolResult, any, error) {
	sources, err := s.store.ListSources(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing sources: %w", err)
	}

	if len(sources) == 0 {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "The knowledge base is empty. Run ingest first."}},
		}, nil, nil
	}

	urls := make([]string, 0, len(sources))
	for url := range sources {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	var b strings.Builder
	fmt.Fprintf(&b, "%d indexed pages:\n", len(urls))
	for _, url := range urls {
		fmt.Fprintf(&b, "- %s (%d chunks)\n", url, sources[url])
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: b.String()}},
	}, nil, nil
}

// formatResults renders search hits as numbered text blocks.
func formatResults(results []knowledge.Result) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		fmt.Fprintf(&b, "[%d] similarity %.3f", i+1, r.Similarity)
		if framework := r.Document.Metadata[knowledge.MetaFramework]; framework != "" {
			fmt.Fprintf(&b, " | %s", framework)
		}
		if source := r.Document.Metadata[knowledge.MetaSource]; source != "" {
			fmt.Fprintf(&b, " | %s", source)
		}
		b.WriteString("\n")
		b.WriteString(r.Document.Content)
	}
	return b.String()
}
