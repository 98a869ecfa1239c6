package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// conversationCols is the standard SELECT column list for scanConversations.
const conversationCols = `id, user_id, title, created_at, updated_at`

// messageCols is the standard SELECT column list for scanMessages.
const messageCols = `id, conversation_id, role, content, sequence_number, created_at`

// Store manages conversations and messages in PostgreSQL.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a conversation Store.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Create opens a new conversation for the user with the placeholder title.
func (s *Store) Create(ctx context.Context, userID int64) (*Conversation, error) {
	const sql = `INSERT INTO conversations (user_id)
		VALUES ($1)
		RETURNING ` + conversationCols

	var c Conversation
	err := s.pool.QueryRow(ctx, sql, userID).
		Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	s.logger.Debug("created conversation", "id", c.ID, "user_id", userID)
	return &c, nil
}

// Get fetches a conversation, enforcing ownership.
func (s *Store) Get(ctx context.Context, id, userID int64) (*Conversation, error) {
	const sql = `SELECT ` + conversationCols + `
		FROM conversations WHERE id = $1 AND user_id = $2`

	var c Conversation
	err := s.pool.QueryRow(ctx, sql, id, userID).
		Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("fetching conversation: %w", err)
	}
	return &c, nil
}

// List returns the user's conversations, most recently active first.
// A non-positive limit falls back to DefaultListLimit; larger limits are
// clamped to it.
func (s *Store) List(ctx context.Context, userID int64, limit int) ([]Conversation, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}

	const sql = `SELECT ` + conversationCols + `
		FROM conversations
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, sql, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	return scanConversations(rows)
}

// Messages returns all messages of a conversation in sequence order,
// enforcing ownership.
func (s *Store) Messages(ctx context.Context, conversationID, userID int64) ([]Message, error) {
	if _, err := s.Get(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	const sql = `SELECT ` + messageCols + `
		FROM messages
		WHERE conversation_id = $1
		ORDER BY sequence_number`

	rows, err := s.pool.Query(ctx, sql, conversationID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// History returns the last turns exchanges (turns*2 messages) in
// chronological order, enforcing ownership. Used to build the prompt
// context for the next answer.
func (s *Store) History(ctx context.Context, conversationID, userID int64, turns int) ([]Message, error) {
	if turns <= 0 {
		turns = DefaultHistoryTurns
	}

	if _, err := s.Get(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	const sql = `SELECT ` + messageCols + `
		FROM messages
		WHERE conversation_id = $1
		ORDER BY sequence_number DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, sql, conversationID, turns*2)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	// Query returned newest first, callers want chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// AppendMessages appends messages to a conversation in one transaction.
// Sequence numbers are assigned gaplessly under a row lock, the title is
// derived from the first user message if still the placeholder, and
// updated_at is bumped so the conversation surfaces in List.
func (s *Store) AppendMessages(ctx context.Context, conversationID, userID int64, messages ...NewMessage) error {
	if len(messages) == 0 {
		return nil
	}
	for i, m := range messages {
		if err := m.validate(); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			s.logger.Debug("transaction rollback", "error", err)
		}
	}()

	// Lock the conversation row so concurrent appends cannot race on
	// sequence numbers. Ownership is checked by the same statement.
	var title string
	err = tx.QueryRow(ctx,
		`SELECT title FROM conversations WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		conversationID, userID).Scan(&title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrConversationNotFound
		}
		return fmt.Errorf("locking conversation: %w", err)
	}

	var maxSeq int32
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence_number), 0) FROM messages WHERE conversation_id = $1`,
		conversationID).Scan(&maxSeq)
	if err != nil {
		return fmt.Errorf("reading max sequence number: %w", err)
	}

	for i, m := range messages {
		seq := maxSeq + int32(i) + 1 // #nosec G115 -- i is a loop index bounded by slice length
		_, err = tx.Exec(ctx,
			`INSERT INTO messages (conversation_id, role, content, sequence_number)
			 VALUES ($1, $2, $3, $4)`,
			conversationID, m.Role, m.Content, seq)
		if err != nil {
			return fmt.Errorf("inserting message %d: %w", i, err)
		}
	}

	// First user message names the conversation, exactly once.
	if title == DefaultTitle {
		for _, m := range messages {
			if m.Role == RoleUser {
				_, err = tx.Exec(ctx,
					`UPDATE conversations SET title = $1 WHERE id = $2 AND title = $3`,
					DeriveTitle(m.Content), conversationID, DefaultTitle)
				if err != nil {
					return fmt.Errorf("setting title: %w", err)
				}
				break
			}
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE conversations SET updated_at = now() WHERE id = $1`, conversationID)
	if err != nil {
		return fmt.Errorf("bumping updated_at: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("appended messages",
		"conversation_id", conversationID, "count", len(messages), "from_seq", maxSeq+1)
	return nil
}

// Delete removes one conversation and its messages, enforcing ownership.
func (s *Store) Delete(ctx context.Context, conversationID, userID int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM conversations WHERE id = $1 AND user_id = $2`,
		conversationID, userID)
	if err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConversationNotFound
	}

	s.logger.Debug("deleted conversation", "id", conversationID, "user_id", userID)
	return nil
}

// DeleteAll removes every conversation of the user and returns how many
// were deleted.
func (s *Store) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM conversations WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("deleting conversations: %w", err)
	}

	deleted := tag.RowsAffected()
	s.logger.Debug("deleted all conversations", "user_id", userID, "count", deleted)
	return deleted, nil
}

func scanConversations(rows pgx.Rows) ([]Conversation, error) {
	var out []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversations: %w", err)
	}
	return out, nil
}

func scanMessages(rows pgx.Rows) ([]Message, error) {
	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.SequenceNumber, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	return out, nil
}
