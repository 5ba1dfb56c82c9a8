package domain

import "time"

const (
	RoleHuman = "human"
	RoleAI    = "ai"
)

// ChatMessage is one prior conversation message in the shape consumed by
// reformulation and generation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatTurn is one persisted question/answer pair. Append-only; turns are
// deleted only through explicit session deletion.
type ChatTurn struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	UserID    int64     `json:"user_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
	UserID    int64  `json:"user_id"`
	Model     string `json:"model,omitempty"`
}

type ChatAnswer struct {
	Answer      string `json:"answer"`
	SessionID   string `json:"session_id"`
	UserID      int64  `json:"user_id"`
	Model       string `json:"model"`
	SourceCount int    `json:"source_count"`
}

// SessionLog groups one session's turns for the per-user history view.
type SessionLog struct {
	Model     string      `json:"model"`
	StartedAt time.Time   `json:"timestamp"`
	Turns     []TurnEntry `json:"queries"`
}

type TurnEntry struct {
	Question  string    `json:"query"`
	Answer    string    `json:"response"`
	CreatedAt time.Time `json:"timestamp"`
}
