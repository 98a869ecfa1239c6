package testutil

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// MockLLM is a scripted chat model. Replies are chosen by substring
// match against the latest user message; when nothing matches, the
// fallback text is returned. Every invocation is recorded so tests can
// assert on what the model was asked.
//
// Safe for concurrent use.
type MockLLM struct {
	mu       sync.Mutex
	replies  []reply
	fallback string
	calls    []MockCall
}

type reply struct {
	match string // lowercased substring of the user message
	text  string
}

// MockCall is one recorded model invocation.
type MockCall struct {
	UserMessage string
	Response    string
}

// NewMockLLM returns a mock whose unmatched answers are fallback.
func NewMockLLM(fallback string) *MockLLM {
	return &MockLLM{fallback: fallback}
}

// AddResponse scripts a reply: when the latest user message contains
// match (case-insensitive), text is returned. Earlier registrations
// take priority.
func (m *MockLLM) AddResponse(match, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, reply{match: strings.ToLower(match), text: text})
}

// Calls returns a snapshot of every invocation so far.
func (m *MockLLM) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// RegisterModel defines the mock under the name "mock/test-model" and
// returns the model reference.
func (m *MockLLM) RegisterModel(g *genkit.Genkit) ai.Model {
	return genkit.DefineModel(g, "mock/test-model", &ai.ModelOptions{
		Label: "Mock Test Model",
		Supports: &ai.ModelSupports{
			Multiturn:  true,
			SystemRole: true,
		},
	}, m.generate)
}

func (m *MockLLM) generate(ctx context.Context, req *ai.ModelRequest, cb ai.ModelStreamCallback) (*ai.ModelResponse, error) {
	question := lastUserText(req)
	answer := m.answerFor(question)

	m.mu.Lock()
	m.calls = append(m.calls, MockCall{UserMessage: question, Response: answer})
	m.mu.Unlock()

	// Streaming requests get the whole answer as a single chunk.
	if cb != nil {
		_ = cb(ctx, &ai.ModelResponseChunk{
			Content: []*ai.Part{ai.NewTextPart(answer)},
		})
	}

	return &ai.ModelResponse{
		Request: req,
		Message: &ai.Message{
			Role:    ai.RoleModel,
			Content: []*ai.Part{ai.NewTextPart(answer)},
		},
	}, nil
}

func (m *MockLLM) answerFor(question string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	lower := strings.ToLower(question)
	for _, r := range m.replies {
		if strings.Contains(lower, r.match) {
			return r.text
		}
	}
	return m.fallback
}

func lastUserText(req *ai.ModelRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == ai.RoleUser {
			return req.Messages[i].Text()
		}
	}
	return ""
}

// MockEmbedder produces stable embedding vectors without a model server.
// Unmapped content gets a unit vector derived from its hash, so equal
// text always embeds equally; SetVector pins exact vectors when a test
// needs to control cosine similarity.
//
// Safe for concurrent use.
type MockEmbedder struct {
	mu     sync.Mutex
	pinned map[string][]float32
	dim    int
}

// NewMockEmbedder returns a mock producing vectors of the given dimension.
func NewMockEmbedder(dim int) *MockEmbedder {
	return &MockEmbedder{pinned: make(map[string][]float32), dim: dim}
}

// SetVector pins the vector returned for exactly this content.
func (e *MockEmbedder) SetVector(content string, vec []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pinned[content] = vec
}

// RegisterEmbedder defines the mock under the name "mock/test-embedder"
// and returns the embedder reference.
func (e *MockEmbedder) RegisterEmbedder(g *genkit.Genkit) ai.Embedder {
	return genkit.DefineEmbedder(g, "mock/test-embedder", &ai.EmbedderOptions{
		Label:      "Mock Test Embedder",
		Dimensions: e.dim,
	}, e.embed)
}

func (e *MockEmbedder) embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	out := make([]*ai.Embedding, len(req.Input))
	for i, doc := range req.Input {
		var sb strings.Builder
		for _, p := range doc.Content {
			if p.Kind == ai.PartText {
				sb.WriteString(p.Text)
			}
		}
		out[i] = &ai.Embedding{Embedding: e.vectorFor(sb.String())}
	}
	return &ai.EmbedResponse{Embeddings: out}, nil
}

func (e *MockEmbedder) vectorFor(content string) []float32 {
	e.mu.Lock()
	v, ok := e.pinned[content]
	e.mu.Unlock()
	if ok {
		return v
	}
	return hashVector(content, e.dim)
}

// hashVector derives a unit vector from the content's FNV-1a hash.
func hashVector(content string, dim int) []float32 {
	h := fnv.New64a()
	h.Write([]byte(content))
	rnd := rand.New(rand.NewSource(int64(h.Sum64())))

	vec := make([]float32, dim)
	var norm float64
	for i := range vec {
		vec[i] = rnd.Float32()*2 - 1
		norm += float64(vec[i]) * float64(vec[i])
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
