package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"
)

// Input is the request payload for the chat flow.
type Input struct {
	Query          string `json:"query"`
	UserID         int64  `json:"userId"`
	ConversationID int64  `json:"conversationId"` // 0 starts a new conversation
}

// Output is the response payload from the chat flow.
type Output struct {
	Answer         string   `json:"answer"`
	ConversationID int64    `json:"conversationId"`
	Sources        []string `json:"sources,omitempty"`
}

// StreamChunk is the streaming output type: partial answer text that can be
// displayed immediately.
type StreamChunk struct {
	Text string `json:"text"`
}

// FlowName is the registered name of the chat flow in Genkit.
const FlowName = "docschat/chat"

// Flow is the chat service's Genkit streaming flow type. Exported so the
// HTTP layer can mount it with genkit.Handler().
type Flow = core.Flow[Input, Output, StreamChunk]

// Package-level singleton: genkit.DefineStreamingFlow panics when the same
// flow name is registered twice.
var (
	flowOnce sync.Once
	flow     *Flow
)

// NewFlow returns the chat flow singleton, defining it on first call.
// Subsequent calls return the existing flow and ignore the arguments.
func NewFlow(g *genkit.Genkit, svc *Service) *Flow {
	flowOnce.Do(func() {
		flow = svc.DefineFlow(g)
	})
	return flow
}

// ResetFlowForTesting clears the flow singleton so tests can register with
// a fresh Genkit instance. Not safe for concurrent use.
func ResetFlowForTesting() {
	flowOnce = sync.Once{}
	flow = nil
}

// DefineFlow registers the chat flow. Use NewFlow instead of calling this
// directly; registering the flow twice panics inside Genkit.
//
// The flow is a thin wrapper over Service.AnswerStream giving the chat path
// Genkit tracing, typed input/output, and an HTTP-mountable handler.
func (s *Service) DefineFlow(g *genkit.Genkit) *Flow {
	return genkit.DefineStreamingFlow(g, FlowName,
		func(ctx context.Context, input Input, streamCb func(context.Context, StreamChunk) error) (Output, error) {
			var callback StreamCallback
			if streamCb != nil {
				callback = func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
					if chunk == nil {
						return nil
					}
					for _, part := range chunk.Content {
						if part.Text == "" {
							continue
						}
						if err := streamCb(ctx, StreamChunk{Text: part.Text}); err != nil {
							return err
						}
					}
					return nil
				}
			}

			resp, err := s.AnswerStream(ctx, input.UserID, input.ConversationID, input.Query, callback)
			if err != nil {
				return Output{ConversationID: input.ConversationID}, fmt.Errorf("%w: %w", ErrExecutionFailed, err)
			}
			return Output{
				Answer:         resp.Answer,
				ConversationID: resp.ConversationID,
				Sources:        resp.Sources,
			}, nil
		},
	)
}
