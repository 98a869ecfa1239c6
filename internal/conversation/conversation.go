// Package conversation persists per-user chat history: conversations and
// their ordered messages.
package conversation

import (
	"errors"
	"time"
	"unicode/utf8"
)

// Message roles stored in the messages table.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const (
	// DefaultTitle is the placeholder title until the first user message
	// arrives.
	DefaultTitle = "New Conversation"

	// TitleMaxRunes is where derived titles are cut.
	TitleMaxRunes = 50

	// DefaultListLimit caps the sidebar listing.
	DefaultListLimit = 20

	// DefaultHistoryTurns is how many recent exchanges feed the prompt.
	DefaultHistoryTurns = 3
)

// Sentinel errors, checked with errors.Is().
var (
	// ErrConversationNotFound indicates the conversation does not exist or
	// belongs to another user. The two cases are deliberately not
	// distinguished so conversation IDs cannot be probed.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrEmptyMessage indicates a message with no content.
	ErrEmptyMessage = errors.New("message content is empty")

	// ErrInvalidRole indicates a role outside user/assistant.
	ErrInvalidRole = errors.New("invalid message role")
)

// Conversation is one chat thread owned by a user.
type Conversation struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one utterance within a conversation. SequenceNumber is gapless
// and unique per conversation.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	SequenceNumber int32     `json:"sequence_number"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewMessage is an unsaved message passed to AppendMessages.
type NewMessage struct {
	Role    string
	Content string
}

func (m NewMessage) validate() error {
	if m.Role != RoleUser && m.Role != RoleAssistant {
		return ErrInvalidRole
	}
	if m.Content == "" {
		return ErrEmptyMessage
	}
	return nil
}

// DeriveTitle builds a conversation title from its first user message:
// the first TitleMaxRunes runes, with "..." appended when truncated.
func DeriveTitle(firstMessage string) string {
	if firstMessage == "" {
		return DefaultTitle
	}
	if utf8.RuneCountInString(firstMessage) <= TitleMaxRunes {
		return firstMessage
	}
	runes := []rune(firstMessage)
	return string(runes[:TitleMaxRunes]) + "..."
}
