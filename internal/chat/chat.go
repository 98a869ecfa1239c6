// Package chat answers documentation questions with retrieval augmented
// generation: the question is embedded, similar chunks are pulled from the
// knowledge store, and the model answers grounded in those chunks plus the
// recent turns of the conversation.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/conversation"
	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/knowledge"
)

const (
	// DefaultTemperature keeps answers factual rather than creative.
	DefaultTemperature = 0.1

	// retrievalTopK is how many chunks are fetched before quality
	// filtering trims them down.
	retrievalTopK = 10

	// fallbackAnswer is returned when the model produces an empty response.
	fallbackAnswer = "I apologize, but I couldn't generate a response. Please try rephrasing your question."
)

// Sentinel errors for chat operations.
var (
	// ErrEmptyQuery indicates the query was empty or whitespace.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrExecutionFailed indicates answer generation failed.
	ErrExecutionFailed = errors.New("execution failed")
)

// StreamCallback receives each chunk of a streaming response. Returning an
// error aborts the stream.
type StreamCallback func(ctx context.Context, chunk *ai.ModelResponseChunk) error

// retriever is the slice of the knowledge store the service needs.
type retriever interface {
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
}

// conversationStore is the slice of the conversation store the service needs.
type conversationStore interface {
	Create(ctx context.Context, userID int64) (*conversation.Conversation, error)
	History(ctx context.Context, conversationID, userID int64, turns int) ([]conversation.Message, error)
	AppendMessages(ctx context.Context, conversationID, userID int64, messages ...conversation.NewMessage) error
}

// Config contains all required parameters for the chat service.
type Config struct {
	Genkit        *genkit.Genkit
	Retriever     retriever
	Conversations conversationStore
	Logger        *slog.Logger

	// ModelName is the provider-qualified model name
	// (e.g. "ollama/llama3.2", "googleai/gemini-2.5-flash").
	ModelName   string
	Temperature float32 // 0 uses DefaultTemperature
	MaxTokens   int     // 0 leaves the provider default

	// Resilience settings. Zero values use defaults.
	RetryConfig          RetryConfig
	CircuitBreakerConfig CircuitBreakerConfig
	RateLimiter          *rate.Limiter
}

func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.Retriever == nil {
		return errors.New("retriever is required")
	}
	if cfg.Conversations == nil {
		return errors.New("conversation store is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.ModelName == "" {
		return errors.New("model name is required")
	}
	return nil
}

// Response is the complete result of answering one question.
type Response struct {
	Answer         string
	ConversationID int64
	Sources        []string // distinct documentation URLs behind the answer
}

// Service answers questions over the documentation corpus. It is stateless;
// all configuration is captured immutably at construction so concurrent
// requests are safe.
type Service struct {
	modelName   string
	temperature float32
	maxTokens   int

	retryConfig    RetryConfig
	circuitBreaker *CircuitBreaker
	rateLimiter    *rate.Limiter

	g             *genkit.Genkit
	retriever     retriever
	conversations conversationStore
	logger        *slog.Logger
}

// New creates a chat Service.
func New(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}

	retryConfig := cfg.RetryConfig
	if retryConfig.MaxRetries == 0 {
		retryConfig = DefaultRetryConfig()
	}

	cbConfig := cfg.CircuitBreakerConfig
	if cbConfig.FailureThreshold == 0 {
		cbConfig = DefaultCircuitBreakerConfig()
	}

	// Default: 10 requests/sec sustained, burst of 30.
	rl := cfg.RateLimiter
	if rl == nil {
		rl = rate.NewLimiter(10, 30)
	}

	s := &Service{
		modelName:      cfg.ModelName,
		temperature:    temperature,
		maxTokens:      cfg.MaxTokens,
		retryConfig:    retryConfig,
		circuitBreaker: NewCircuitBreaker(cbConfig),
		rateLimiter:    rl,
		g:              cfg.Genkit,
		retriever:      cfg.Retriever,
		conversations:  cfg.Conversations,
		logger:         cfg.Logger,
	}

	s.logger.Info("chat service initialized",
		"model", s.modelName,
		"temperature", s.temperature,
	)
	return s, nil
}

// Answer answers a question without streaming. A conversationID of 0 starts
// a new conversation; its ID is returned in the Response.
func (s *Service) Answer(ctx context.Context, userID, conversationID int64, query string) (*Response, error) {
	return s.AnswerStream(ctx, userID, conversationID, query, nil)
}

// AnswerStream answers a question, invoking callback for each response chunk
// when callback is non-nil. The full response is returned either way.
func (s *Service) AnswerStream(ctx context.Context, userID, conversationID int64, query string, callback StreamCallback) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if conversationID == 0 {
		conv, err := s.conversations.Create(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("creating conversation: %w", err)
		}
		conversationID = conv.ID
	}

	// Retrieval and history loading are independent; run them in parallel.
	type retrievalResult struct {
		results []knowledge.Result
		err     error
	}
	type historyResult struct {
		msgs []conversation.Message
		err  error
	}

	// Buffered so the goroutines never block if the caller bails out early.
	retrievalCh := make(chan retrievalResult, 1)
	historyCh := make(chan historyResult, 1)

	go func() {
		results, err := s.retriever.Search(ctx, query, knowledge.WithTopK(retrievalTopK))
		retrievalCh <- retrievalResult{results, err}
	}()
	go func() {
		msgs, err := s.conversations.History(ctx, conversationID, userID, conversation.DefaultHistoryTurns)
		historyCh <- historyResult{msgs, err}
	}()

	hr := <-historyCh
	if hr.err != nil {
		return nil, fmt.Errorf("loading history: %w", hr.err)
	}

	rr := <-retrievalCh
	var results []knowledge.Result
	if rr.err != nil {
		// Non-fatal: the model can still answer from general knowledge.
		s.logger.Warn("retrieval failed, answering without context", "error", rr.err)
	} else {
		results = knowledge.FilterResults(rr.results)
	}

	s.logger.Debug("answering question",
		"conversation_id", conversationID,
		"retrieved", len(rr.results),
		"context_docs", len(results),
		"history_messages", len(hr.msgs),
	)

	answer, err := s.generate(ctx, buildUserPrompt(results, hr.msgs, query), callback)
	if err != nil {
		// The question still belongs to the conversation even when the
		// model fails; record it so a retry has the turn on record.
		appendErr := s.conversations.AppendMessages(ctx, conversationID, userID,
			conversation.NewMessage{Role: conversation.RoleUser, Content: query})
		if appendErr != nil {
			s.logger.Warn("recording question after generation failure",
				"conversation_id", conversationID, "error", appendErr)
		}
		return nil, err
	}

	if strings.TrimSpace(answer) == "" {
		s.logger.Warn("model returned empty response", "conversation_id", conversationID)
		answer = fallbackAnswer
	}

	// Best-effort persistence: a storage hiccup should not discard the
	// answer the user already saw.
	err = s.conversations.AppendMessages(ctx, conversationID, userID,
		conversation.NewMessage{Role: conversation.RoleUser, Content: query},
		conversation.NewMessage{Role: conversation.RoleAssistant, Content: answer},
	)
	if err != nil {
		s.logger.Warn("appending messages to conversation",
			"conversation_id", conversationID, "error", err)
	}

	return &Response{
		Answer:         answer,
		ConversationID: conversationID,
		Sources:        sourceURLs(results),
	}, nil
}

// Ask answers a single question without conversation persistence. Used by
// the CLI for one-shot questions; no history is loaded and nothing is
// stored. ConversationID in the Response is always 0.
func (s *Service) Ask(ctx context.Context, query string, callback StreamCallback) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	var results []knowledge.Result
	raw, err := s.retriever.Search(ctx, query, knowledge.WithTopK(retrievalTopK))
	if err != nil {
		s.logger.Warn("retrieval failed, answering without context", "error", err)
	} else {
		results = knowledge.FilterResults(raw)
	}

	answer, err := s.generate(ctx, buildUserPrompt(results, nil, query), callback)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(answer) == "" {
		answer = fallbackAnswer
	}

	return &Response{
		Answer:  answer,
		Sources: sourceURLs(results),
	}, nil
}

// generate runs the model behind the circuit breaker and retry policy.
func (s *Service) generate(ctx context.Context, userPrompt string, callback StreamCallback) (string, error) {
	opts := []ai.GenerateOption{
		ai.WithModelName(s.modelName),
		ai.WithSystem(systemPrompt),
		ai.WithPrompt(userPrompt),
		ai.WithConfig(&ai.GenerationCommonConfig{
			Temperature:     float64(s.temperature),
			MaxOutputTokens: s.maxTokens,
		}),
	}
	if callback != nil {
		opts = append(opts, ai.WithStreaming(ai.ModelStreamCallback(callback)))
	}

	if err := s.circuitBreaker.Allow(); err != nil {
		s.logger.Warn("circuit breaker is open, rejecting request",
			"state", s.circuitBreaker.State().String())
		return "", fmt.Errorf("service unavailable: %w", err)
	}

	resp, err := s.generateWithRetry(ctx, opts)
	if err != nil {
		s.circuitBreaker.Failure()
		return "", err
	}
	s.circuitBreaker.Success()

	return resp.Text(), nil
}
