package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/firebase/genkit/go/ai"

	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/chat"
	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/conversation"
)

// SSE event types for chat streaming.
const (
	EventChunk = "chunk" // partial response text
	EventDone  = "done"  // stream completed successfully
	EventError = "error" // error occurred during streaming
)

// ChunkPayload is the SSE data payload for streaming text chunks.
type ChunkPayload struct {
	Text string `json:"text"`
}

// DonePayload is the SSE data payload when streaming completes.
type DonePayload struct {
	Answer         string   `json:"answer"`
	ConversationID int64    `json:"conversationId"`
	Sources        []string `json:"sources,omitempty"`
}

// ErrorPayload is the SSE data payload when an error occurs.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// chatService is the slice of the chat service the handler needs.
type chatService interface {
	AnswerStream(ctx context.Context, userID, conversationID int64, query string, callback chat.StreamCallback) (*chat.Response, error)
}

// chatHandler streams RAG answers over Server-Sent Events.
type chatHandler struct {
	service chatService
	logger  *slog.Logger
}

type chatRequest struct {
	Query          string `json:"query"`
	ConversationID int64  `json:"conversationId"` // 0 starts a new conversation
}

// send handles POST /api/v1/chat. The response is an SSE stream: chunk
// events with partial text, then one done event carrying the full answer,
// the conversation ID, and the source URLs.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req chatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "missing_query", "query is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ctx := r.Context()
	callback := func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if chunk == nil {
			return nil
		}
		for _, part := range chunk.Content {
			if part.Text == "" {
				continue
			}
			if err := writeEvent(w, flusher, EventChunk, ChunkPayload{Text: part.Text}); err != nil {
				// Write failure usually means the client went away.
				return err
			}
		}
		return nil
	}

	resp, err := h.service.AnswerStream(ctx, userID, req.ConversationID, req.Query, callback)
	if err != nil {
		if ctx.Err() != nil {
			h.logger.Info("client disconnected mid-stream", "user_id", userID)
			return
		}
		h.writeStreamError(w, flusher, err)
		return
	}

	_ = writeEvent(w, flusher, EventDone, DonePayload{
		Answer:         resp.Answer,
		ConversationID: resp.ConversationID,
		Sources:        resp.Sources,
	})
}

// writeStreamError maps chat errors to SSE error events. The HTTP status is
// already committed by the time generation fails, so errors travel in-band.
func (h *chatHandler) writeStreamError(w io.Writer, f http.Flusher, err error) {
	code := "stream_error"
	message := "failed to generate a response"

	switch {
	case errors.Is(err, chat.ErrEmptyQuery):
		code = "missing_query"
		message = err.Error()
	case errors.Is(err, conversation.ErrConversationNotFound):
		code = "not_found"
		message = "conversation not found"
	case errors.Is(err, chat.ErrCircuitOpen):
		code = "model_unavailable"
		message = "the model is temporarily unavailable, try again shortly"
	default:
		h.logger.Error("chat stream failed", "error", err)
	}

	_ = writeEvent(w, f, EventError, ErrorPayload{Code: code, Message: message})
}

// writeEvent writes one SSE event: "event: <type>\ndata: <json>\n\n".
func writeEvent[T any](w io.Writer, flusher http.Flusher, event string, data T) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	flusher.Flush()
	return nil
}
