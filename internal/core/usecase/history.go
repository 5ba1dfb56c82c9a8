package usecase

import (
	"context"

	"github.com/avoronov/netsuite-assistant/internal/core/domain"
	"github.com/avoronov/netsuite-assistant/internal/core/ports"
)

type ChatHistoryUseCase struct {
	history ports.ChatHistoryStore
}

func NewChatHistoryUseCase(history ports.ChatHistoryStore) *ChatHistoryUseCase {
	return &ChatHistoryUseCase{history: history}
}

func (uc *ChatHistoryUseCase) UserHistory(ctx context.Context, userID int64) (map[string]domain.SessionLog, error) {
	return uc.history.UserSessions(ctx, userID)
}

func (uc *ChatHistoryUseCase) DeleteSession(ctx context.Context, userID int64, sessionID string) (bool, error) {
	return uc.history.DeleteSession(ctx, userID, sessionID)
}
