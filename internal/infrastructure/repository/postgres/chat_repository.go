package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avoronov/netsuite-assistant/internal/core/domain"
)

type ChatRepository struct {
	db *sql.DB
}

func NewChatRepository(db *sql.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) AppendTurn(ctx context.Context, turn domain.ChatTurn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO chat_turns (session_id, user_id, question, answer, model, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, turn.SessionID, turn.UserID, turn.Question, turn.Answer, turn.Model, turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("append chat turn: %w", err)
	}
	return nil
}

// SessionMessages replays a session as alternating human/ai messages in
// creation order, ready to feed back into the model as history.
func (r *ChatRepository) SessionMessages(ctx context.Context, userID int64, sessionID string) ([]domain.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT question, answer
FROM chat_turns
WHERE user_id = $1 AND session_id = $2
ORDER BY created_at ASC, id ASC
`, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list session turns: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ChatMessage, 0)
	for rows.Next() {
		var question, answer string
		if err := rows.Scan(&question, &answer); err != nil {
			return nil, fmt.Errorf("scan session turn: %w", err)
		}
		out = append(out,
			domain.ChatMessage{Role: domain.RoleHuman, Content: question},
			domain.ChatMessage{Role: domain.RoleAI, Content: answer},
		)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session turns: %w", err)
	}
	return out, nil
}

func (r *ChatRepository) UserSessions(ctx context.Context, userID int64) (map[string]domain.SessionLog, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT session_id, question, answer, model, created_at
FROM chat_turns
WHERE user_id = $1
ORDER BY created_at ASC, id ASC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}
	defer rows.Close()

	sessions := make(map[string]domain.SessionLog)
	for rows.Next() {
		var sessionID, question, answer, model string
		var createdAt time.Time
		if err := rows.Scan(&sessionID, &question, &answer, &model, &createdAt); err != nil {
			return nil, fmt.Errorf("scan session turn: %w", err)
		}

		entry, ok := sessions[sessionID]
		if !ok {
			entry = domain.SessionLog{Model: model, StartedAt: createdAt}
		}
		if entry.Model == "" {
			entry.Model = model
		}
		entry.Turns = append(entry.Turns, domain.TurnEntry{
			Question:  question,
			Answer:    answer,
			CreatedAt: createdAt,
		})
		sessions[sessionID] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user sessions: %w", err)
	}
	return sessions, nil
}

func (r *ChatRepository) DeleteSession(ctx context.Context, userID int64, sessionID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
DELETE FROM chat_turns
WHERE user_id = $1 AND session_id = $2
`, userID, sessionID)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete session rows affected: %w", err)
	}
	return affected > 0, nil
}
