package database

import "time"

// Message roles, matching the roles the classifier sends to Gemini.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is one turn of a conversation, kept as context for the intent
// classifier.
type Message struct {
	ID             int64     `db:"id"`
	ConversationID string    `db:"conversation_id"`
	Role           string    `db:"role"`
	Content        string    `db:"content"`
	CreatedAt      time.Time `db:"created_at"`
}

// OperationLog is the audit row written for every dispatched store operation.
type OperationLog struct {
	ID             int64     `db:"id"`
	RequestID      string    `db:"request_id"`
	ConversationID string    `db:"conversation_id"`
	Operation      string    `db:"operation"`
	Args           string    `db:"args"`
	Outcome        string    `db:"outcome"`
	Error          string    `db:"error"`
	DurationMs     int64     `db:"duration_ms"`
	CreatedAt      time.Time `db:"created_at"`
}
