package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/conversation"
	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/knowledge"
	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/testutil"
)

type fakeRetriever struct {
	results []knowledge.Result
	err     error
	queries []string
}

func (f *fakeRetriever) Search(_ context.Context, query string, _ ...knowledge.SearchOption) ([]knowledge.Result, error) {
	f.queries = append(f.queries, query)
	return f.results, f.err
}

type fakeConversations struct {
	createID   int64
	created    []int64
	history    []conversation.Message
	historyErr error
	appended   [][]conversation.NewMessage
}

func (f *fakeConversations) Create(_ context.Context, userID int64) (*conversation.Conversation, error) {
	f.created = append(f.created, userID)
	return &conversation.Conversation{ID: f.createID, UserID: userID, Title: conversation.DefaultTitle}, nil
}

func (f *fakeConversations) History(_ context.Context, _, _ int64, _ int) ([]conversation.Message, error) {
	return f.history, f.historyErr
}

func (f *fakeConversations) AppendMessages(_ context.Context, _, _ int64, messages ...conversation.NewMessage) error {
	f.appended = append(f.appended, messages)
	return nil
}

// substantiveResult builds a retrieval hit long enough to survive the
// quality filter.
func substantiveResult(topic, source string) knowledge.Result {
	return knowledge.Result{
		Document: knowledge.Document{
			Content: strings.Repeat("Documentation about "+topic+". ", 10),
			Metadata: map[string]string{
				knowledge.MetaSource:    source,
				knowledge.MetaFramework: "langchain",
			},
		},
		Similarity: 0.9,
	}
}

func newTestService(t *testing.T, llm *testutil.MockLLM, retr *fakeRetriever, convs *fakeConversations) *Service {
	t.Helper()

	g := genkit.Init(context.Background())
	llm.RegisterModel(g)

	svc, err := New(Config{
		Genkit:        g,
		Retriever:     retr,
		Conversations: convs,
		Logger:        testutil.DiscardLogger(),
		ModelName:     "mock/test-model",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{})
	if err == nil {
		t.Fatal("expected error for empty config")
	}
}

func TestAnswerReturnsResponseWithSources(t *testing.T) {
	llm := testutil.NewMockLLM("fallback")
	llm.AddResponse("chain", "A chain composes calls into a pipeline.")
	retr := &fakeRetriever{results: []knowledge.Result{
		substantiveResult("chains", "https://python.langchain.com/docs/concepts/runnables/"),
		substantiveResult("lcel", "https://python.langchain.com/docs/concepts/lcel/"),
	}}
	convs := &fakeConversations{}
	svc := newTestService(t, llm, retr, convs)

	resp, err := svc.Answer(context.Background(), 1, 7, "what is a chain?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if resp.Answer != "A chain composes calls into a pipeline." {
		t.Errorf("answer: %q", resp.Answer)
	}
	if resp.ConversationID != 7 {
		t.Errorf("conversation ID: %d", resp.ConversationID)
	}
	if len(resp.Sources) != 2 {
		t.Errorf("sources: %v", resp.Sources)
	}
	if len(convs.created) != 0 {
		t.Errorf("should not create a conversation when one was given")
	}
}

func TestAnswerCreatesConversation(t *testing.T) {
	llm := testutil.NewMockLLM("hello")
	retr := &fakeRetriever{}
	convs := &fakeConversations{createID: 42}
	svc := newTestService(t, llm, retr, convs)

	resp, err := svc.Answer(context.Background(), 9, 0, "hi")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if resp.ConversationID != 42 {
		t.Errorf("conversation ID: %d, want 42", resp.ConversationID)
	}
	if len(convs.created) != 1 || convs.created[0] != 9 {
		t.Errorf("created for users %v, want [9]", convs.created)
	}
}

func TestAnswerRejectsEmptyQuery(t *testing.T) {
	svc := newTestService(t, testutil.NewMockLLM("x"), &fakeRetriever{}, &fakeConversations{})

	for _, q := range []string{"", "   ", "\n\t"} {
		if _, err := svc.Answer(context.Background(), 1, 1, q); !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("query %q: got %v, want ErrEmptyQuery", q, err)
		}
	}
}

func TestAnswerPersistsBothMessages(t *testing.T) {
	llm := testutil.NewMockLLM("an answer")
	convs := &fakeConversations{}
	svc := newTestService(t, llm, &fakeRetriever{}, convs)

	if _, err := svc.Answer(context.Background(), 1, 3, "a question"); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	if len(convs.appended) != 1 {
		t.Fatalf("expected one append batch, got %d", len(convs.appended))
	}
	batch := convs.appended[0]
	if len(batch) != 2 {
		t.Fatalf("expected 2 messages in batch, got %d", len(batch))
	}
	if batch[0].Role != conversation.RoleUser || batch[0].Content != "a question" {
		t.Errorf("user message: %+v", batch[0])
	}
	if batch[1].Role != conversation.RoleAssistant || batch[1].Content != "an answer" {
		t.Errorf("assistant message: %+v", batch[1])
	}
}

func TestAnswerHistoryErrorFails(t *testing.T) {
	convs := &fakeConversations{historyErr: conversation.ErrConversationNotFound}
	svc := newTestService(t, testutil.NewMockLLM("x"), &fakeRetriever{}, convs)

	_, err := svc.Answer(context.Background(), 1, 99, "question")
	if !errors.Is(err, conversation.ErrConversationNotFound) {
		t.Fatalf("got %v, want ErrConversationNotFound", err)
	}
}

func TestAnswerRetrievalFailureIsNonFatal(t *testing.T) {
	llm := testutil.NewMockLLM("answered from general knowledge")
	retr := &fakeRetriever{err: errors.New("embedder unreachable")}
	svc := newTestService(t, llm, retr, &fakeConversations{})

	resp, err := svc.Answer(context.Background(), 1, 1, "question")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if resp.Answer != "answered from general knowledge" {
		t.Errorf("answer: %q", resp.Answer)
	}
	if len(resp.Sources) != 0 {
		t.Errorf("sources should be empty: %v", resp.Sources)
	}
}

func TestAnswerPromptCarriesContextAndHistory(t *testing.T) {
	llm := testutil.NewMockLLM("ok")
	retr := &fakeRetriever{results: []knowledge.Result{
		substantiveResult("streaming", "https://python.langchain.com/docs/concepts/streaming/"),
	}}
	convs := &fakeConversations{history: []conversation.Message{
		{Role: conversation.RoleUser, Content: "earlier question"},
		{Role: conversation.RoleAssistant, Content: "earlier answer"},
	}}
	svc := newTestService(t, llm, retr, convs)

	if _, err := svc.Answer(context.Background(), 1, 5, "how does streaming work?"); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	calls := llm.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 model call, got %d", len(calls))
	}
	prompt := calls[0].UserMessage
	for _, want := range []string{
		"Documentation about streaming.",
		"User: earlier question",
		"Assistant: earlier answer",
		"how does streaming work?",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if len(retr.queries) != 1 || retr.queries[0] != "how does streaming work?" {
		t.Errorf("retriever queries: %v", retr.queries)
	}
}

func TestAnswerStreamDeliversChunks(t *testing.T) {
	llm := testutil.NewMockLLM("streamed answer")
	svc := newTestService(t, llm, &fakeRetriever{}, &fakeConversations{})

	var streamed strings.Builder
	callback := func(_ context.Context, chunk *ai.ModelResponseChunk) error {
		for _, part := range chunk.Content {
			streamed.WriteString(part.Text)
		}
		return nil
	}

	resp, err := svc.AnswerStream(context.Background(), 1, 1, "question", callback)
	if err != nil {
		t.Fatalf("AnswerStream: %v", err)
	}
	if streamed.String() != resp.Answer {
		t.Errorf("streamed %q, final %q", streamed.String(), resp.Answer)
	}
}

func TestAnswerEmptyModelResponseFallsBack(t *testing.T) {
	llm := testutil.NewMockLLM("")
	svc := newTestService(t, llm, &fakeRetriever{}, &fakeConversations{})

	resp, err := svc.Answer(context.Background(), 1, 1, "question")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if resp.Answer != fallbackAnswer {
		t.Errorf("answer: %q", resp.Answer)
	}
}

func TestNewFlowSingleton(t *testing.T) {
	ResetFlowForTesting()
	t.Cleanup(ResetFlowForTesting)

	svc := newTestService(t, testutil.NewMockLLM("x"), &fakeRetriever{}, &fakeConversations{})
	g := genkit.Init(context.Background())

	f1 := NewFlow(g, svc)
	f2 := NewFlow(g, svc)
	if f1 == nil || f1 != f2 {
		t.Error("NewFlow should return one singleton instance")
	}
}

func TestAskDoesNotTouchConversations(t *testing.T) {
	llm := testutil.NewMockLLM("LangSmith traces every step of a run.")
	retr := &fakeRetriever{results: []knowledge.Result{
		substantiveResult("tracing", "https://docs.smith.langchain.com/observability"),
	}}
	convs := &fakeConversations{}
	svc := newTestService(t, llm, retr, convs)

	resp, err := svc.Ask(context.Background(), "how does tracing work?", nil)
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if resp.Answer == "" {
		t.Error("empty answer")
	}
	if resp.ConversationID != 0 {
		t.Errorf("ConversationID = %d, want 0", resp.ConversationID)
	}
	if len(resp.Sources) != 1 || resp.Sources[0] != "https://docs.smith.langchain.com/observability" {
		t.Errorf("sources: %v", resp.Sources)
	}
	if len(convs.created) != 0 || len(convs.appended) != 0 {
		t.Error("Ask should not create conversations or persist messages")
	}
}

func TestAskEmptyQuery(t *testing.T) {
	svc := newTestService(t, testutil.NewMockLLM("x"), &fakeRetriever{}, &fakeConversations{})

	if _, err := svc.Ask(context.Background(), "  ", nil); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("err = %v, want ErrEmptyQuery", err)
	}
}

func TestAnswerRecordsQuestionWhenGenerationFails(t *testing.T) {
	llm := testutil.NewMockLLM("never reached")
	convs := &fakeConversations{}
	svc := newTestService(t, llm, &fakeRetriever{}, convs)

	// A canceled context fails generation before the model is invoked.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.AnswerStream(ctx, 1, 7, "what is a runnable?", nil); err == nil {
		t.Fatal("expected generation error")
	}
	if len(convs.appended) != 1 || len(convs.appended[0]) != 1 {
		t.Fatalf("appended batches: %+v", convs.appended)
	}
	msg := convs.appended[0][0]
	if msg.Role != conversation.RoleUser || msg.Content != "what is a runnable?" {
		t.Errorf("recorded message: %+v", msg)
	}
}
