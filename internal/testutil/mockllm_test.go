package testutil

import (
	"context"
	"math"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

func askMock(t *testing.T, m *MockLLM, question string, cb ai.ModelStreamCallback) string {
	t.Helper()
	req := &ai.ModelRequest{
		Messages: []*ai.Message{ai.NewUserMessage(ai.NewTextPart(question))},
	}
	resp, err := m.generate(context.Background(), req, cb)
	if err != nil {
		t.Fatalf("generate(%q) failed: %v", question, err)
	}
	return resp.Message.Text()
}

func TestMockLLMScriptedReplies(t *testing.T) {
	t.Parallel()
	m := NewMockLLM("fallback answer")
	m.AddResponse("langgraph", "graphs hold state")
	m.AddResponse("lang", "broad match")

	tests := []struct {
		question string
		want     string
	}{
		{"what is LangGraph?", "graphs hold state"},
		{"tell me about langchain", "broad match"},
		{"unrelated question", "fallback answer"},
	}
	for _, tt := range tests {
		if got := askMock(t, m, tt.question, nil); got != tt.want {
			t.Errorf("ask(%q) = %q, want %q", tt.question, got, tt.want)
		}
	}
}

func TestMockLLMRecordsCalls(t *testing.T) {
	t.Parallel()
	m := NewMockLLM("ok")
	m.AddResponse("traces", "use langsmith")

	askMock(t, m, "first question", nil)
	askMock(t, m, "how do traces work", nil)

	calls := m.Calls()
	if len(calls) != 2 {
		t.Fatalf("Calls() returned %d entries, want 2", len(calls))
	}
	if calls[0].UserMessage != "first question" || calls[0].Response != "ok" {
		t.Errorf("first call = %+v", calls[0])
	}
	if calls[1].UserMessage != "how do traces work" || calls[1].Response != "use langsmith" {
		t.Errorf("second call = %+v", calls[1])
	}
}

func TestMockLLMStreamsSingleChunk(t *testing.T) {
	t.Parallel()
	m := NewMockLLM("streamed text")

	var chunks []string
	cb := func(_ context.Context, chunk *ai.ModelResponseChunk) error {
		for _, p := range chunk.Content {
			chunks = append(chunks, p.Text)
		}
		return nil
	}

	if got := askMock(t, m, "anything", cb); got != "streamed text" {
		t.Fatalf("answer = %q, want %q", got, "streamed text")
	}
	if len(chunks) != 1 || chunks[0] != "streamed text" {
		t.Errorf("chunks = %v, want the full answer in one chunk", chunks)
	}
}

func TestMockLLMRegisterModel(t *testing.T) {
	t.Parallel()
	g := genkit.Init(context.Background())

	model := NewMockLLM("registered").RegisterModel(g)
	if model == nil {
		t.Fatal("RegisterModel() returned nil")
	}
	if genkit.LookupModel(g, "mock/test-model") == nil {
		t.Fatal("mock/test-model not registered")
	}
}

func TestMockEmbedderStableVectors(t *testing.T) {
	t.Parallel()
	e := NewMockEmbedder(768)

	a := e.vectorFor("chains compose runnables")
	b := e.vectorFor("chains compose runnables")
	c := e.vectorFor("graphs hold state")

	if len(a) != 768 {
		t.Fatalf("vector dim = %d, want 768", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same content embedded differently")
		}
	}
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("distinct content embedded identically")
	}

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1) > 0.01 {
		t.Errorf("vector norm = %f, want unit length", math.Sqrt(norm))
	}
}

func TestMockEmbedderPinnedVectors(t *testing.T) {
	t.Parallel()
	e := NewMockEmbedder(3)
	e.SetVector("pinned", []float32{1, 0, 0})

	got := e.vectorFor("pinned")
	if got[0] != 1 || got[1] != 0 || got[2] != 0 {
		t.Errorf("vectorFor(pinned) = %v, want [1 0 0]", got)
	}
	if other := e.vectorFor("not pinned"); len(other) != 3 {
		t.Errorf("unpinned vector dim = %d, want 3", len(other))
	}
}

func TestMockEmbedderEmbedRequest(t *testing.T) {
	t.Parallel()
	e := NewMockEmbedder(16)

	resp, err := e.embed(context.Background(), &ai.EmbedRequest{
		Input: []*ai.Document{
			ai.DocumentFromText("first page", nil),
			ai.DocumentFromText("second page", nil),
		},
	})
	if err != nil {
		t.Fatalf("embed() failed: %v", err)
	}
	if len(resp.Embeddings) != 2 {
		t.Fatalf("got %d embeddings, want 2", len(resp.Embeddings))
	}
	for i, emb := range resp.Embeddings {
		if len(emb.Embedding) != 16 {
			t.Errorf("embedding %d dim = %d, want 16", i, len(emb.Embedding))
		}
	}
}
