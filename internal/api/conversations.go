package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Kuldeep8080-fg/langchain-chatbot/internal/conversation"
)

// conversationStore is the slice of the conversation store the handlers need.
type conversationStore interface {
	Create(ctx context.Context, userID int64) (*conversation.Conversation, error)
	List(ctx context.Context, userID int64, limit int) ([]conversation.Conversation, error)
	Messages(ctx context.Context, conversationID, userID int64) ([]conversation.Message, error)
	Delete(ctx context.Context, conversationID, userID int64) error
	DeleteAll(ctx context.Context, userID int64) (int64, error)
}

// conversationHandler serves the conversation sidebar endpoints.
type conversationHandler struct {
	store  conversationStore
	logger *slog.Logger
}

// list handles GET /api/v1/conversations.
func (h *conversationHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = n
	}

	conversations, err := h.store.List(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error("listing conversations", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if conversations == nil {
		conversations = []conversation.Conversation{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"conversations": conversations})
}

// create handles POST /api/v1/conversations.
func (h *conversationHandler) create(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	conv, err := h.store.Create(r.Context(), userID)
	if err != nil {
		h.logger.Error("creating conversation", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, conv)
}

// messages handles GET /api/v1/conversations/{id}/messages.
func (h *conversationHandler) messages(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	conversationID, ok := pathID(w, r)
	if !ok {
		return
	}

	msgs, err := h.store.Messages(r.Context(), conversationID, userID)
	if err != nil {
		h.writeStoreError(w, err, userID, conversationID)
		return
	}
	if msgs == nil {
		msgs = []conversation.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

// deleteOne handles DELETE /api/v1/conversations/{id}.
func (h *conversationHandler) deleteOne(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	conversationID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), conversationID, userID); err != nil {
		h.writeStoreError(w, err, userID, conversationID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// deleteAll handles DELETE /api/v1/conversations.
func (h *conversationHandler) deleteAll(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	deleted, err := h.store.DeleteAll(r.Context(), userID)
	if err != nil {
		h.logger.Error("deleting conversations", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func (h *conversationHandler) writeStoreError(w http.ResponseWriter, err error, userID, conversationID int64) {
	if errors.Is(err, conversation.ErrConversationNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "conversation not found")
		return
	}
	h.logger.Error("conversation store error",
		"error", err, "user_id", userID, "conversation_id", conversationID)
	writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

// pathID parses the {id} path segment.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}
