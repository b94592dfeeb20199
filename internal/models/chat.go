package models

import "time"

// Role of a conversation turn author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one message in a chat session.
type ConversationTurn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession groups the turns of one conversation. Sessions are upserted
// whole by session id (last-write-wins at document level); turns are only
// ever appended.
type ChatSession struct {
	SessionID string             `json:"session_id"`
	UserID    string             `json:"user_id"`
	Turns     []ConversationTurn `json:"messages"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// AnswerResponse is the result of one RAG answer call. Generation failures
// are absorbed: the caller always receives a well-formed response, with
// Confidence 0 and no Sources when the provider was unavailable.
type AnswerResponse struct {
	Response   string            `json:"response"`
	Confidence float64           `json:"confidence"`
	Sources    []RetrievalResult `json:"sources"`
	SessionID  string            `json:"session_id"`
	Timestamp  time.Time         `json:"timestamp"`
}
