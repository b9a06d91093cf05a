package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the persistence operations used by the bot.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveMessage appends a conversation turn.
	SaveMessage(ctx context.Context, message *Message) error

	// GetRecentMessages returns the last limit turns of a conversation, oldest first.
	GetRecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error)

	// DeleteConversationMessages clears a conversation's memory.
	DeleteConversationMessages(ctx context.Context, conversationID string) (int64, error)

	// PurgeMessagesBefore deletes turns older than cutoff.
	PurgeMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// SaveOperation writes an audit row.
	SaveOperation(ctx context.Context, entry *OperationLog) error

	// RecentOperations returns the latest audit rows, newest first.
	RecentOperations(ctx context.Context, limit int) ([]OperationLog, error)

	// PurgeOperationsBefore deletes audit rows older than cutoff.
	PurgeOperationsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

const maxMessageLimit = 100

// sqlxStore implements Store using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by a connected sqlx.DB.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) SaveMessage(ctx context.Context, message *Message) error {
	if message == nil {
		return errors.New("cannot save nil message")
	}
	if message.ConversationID == "" {
		return errors.New("message must have a conversation id")
	}
	if message.Role != RoleUser && message.Role != RoleModel {
		return fmt.Errorf("invalid message role %q", message.Role)
	}
	if message.Content == "" {
		return errors.New("message must have non-empty content")
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	// Stored as text; UTC keeps the retention comparisons lexical.
	message.CreatedAt = message.CreatedAt.UTC()

	query := `
        INSERT INTO messages (conversation_id, role, content, created_at)
        VALUES (:conversation_id, :role, :content, :created_at);
    `
	result, err := s.db.NamedExecContext(ctx, query, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving message", "conversation_id", message.ConversationID, "error", err)
		return fmt.Errorf("failed to save message (conversation %s): %w", message.ConversationID, err)
	}
	if id, err := result.LastInsertId(); err == nil {
		message.ID = id
	}
	return nil
}

func (s *sqlxStore) GetRecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	if conversationID == "" {
		return nil, errors.New("conversation id cannot be empty")
	}
	if limit <= 0 {
		return []Message{}, nil
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}

	// Newest rows first in the subquery, then flipped so callers get chronological order.
	query := `
        SELECT id, conversation_id, role, content, created_at FROM (
            SELECT id, conversation_id, role, content, created_at
            FROM messages
            WHERE conversation_id = ?
            ORDER BY id DESC
            LIMIT ?
        ) ORDER BY id ASC;
    `
	messages := []Message{}
	if err := s.db.SelectContext(ctx, &messages, query, conversationID, limit); err != nil {
		return nil, fmt.Errorf("failed to get recent messages (conversation %s): %w", conversationID, err)
	}
	return messages, nil
}

func (s *sqlxStore) DeleteConversationMessages(ctx context.Context, conversationID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE conversation_id = ?;", conversationID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete messages (conversation %s): %w", conversationID, err)
	}
	n, _ := res.RowsAffected()
	s.logger.InfoContext(ctx, "Conversation memory cleared", "conversation_id", conversationID, "deleted", n)
	return n, nil
}

func (s *sqlxStore) PurgeMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE created_at < ?;", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge messages: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *sqlxStore) SaveOperation(ctx context.Context, entry *OperationLog) error {
	if entry == nil {
		return errors.New("cannot save nil operation log")
	}
	if entry.Operation == "" {
		return errors.New("operation log must name an operation")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	query := `
        INSERT INTO operation_log (request_id, conversation_id, operation, args, outcome, error, duration_ms, created_at)
        VALUES (:request_id, :conversation_id, :operation, :args, :outcome, :error, :duration_ms, :created_at);
    `
	result, err := s.db.NamedExecContext(ctx, query, entry)
	if err != nil {
		return fmt.Errorf("failed to save operation log (%s): %w", entry.Operation, err)
	}
	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

func (s *sqlxStore) RecentOperations(ctx context.Context, limit int) ([]OperationLog, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
        SELECT id, request_id, conversation_id, operation, args, outcome, error, duration_ms, created_at
        FROM operation_log
        ORDER BY id DESC
        LIMIT ?;
    `
	entries := []OperationLog{}
	if err := s.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list operation log: %w", err)
	}
	return entries, nil
}

func (s *sqlxStore) PurgeOperationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM operation_log WHERE created_at < ?;", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge operation log: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// RunSQLMaintenance runs ANALYZE and VACUUM. VACUUM cannot run inside a
// transaction, so both go straight to the pool.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context done before starting maintenance", "error", ctx.Err())
		return ctx.Err()
	}

	start := time.Now()
	s.logger.InfoContext(ctx, "Starting database maintenance")

	if _, err := s.db.ExecContext(ctx, "ANALYZE;"); err != nil {
		return fmt.Errorf("failed to execute ANALYZE: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			s.logger.WarnContext(ctx, "VACUUM timed out or was cancelled", "error", err)
			return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
		}
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance completed", "duration", time.Since(start))
	return nil
}
