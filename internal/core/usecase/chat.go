package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avoronov/netsuite-assistant/internal/core/domain"
	"github.com/avoronov/netsuite-assistant/internal/core/ports"
)

// ChatUseCase runs one retrieval-augmented turn: reformulate the question
// against session history, retrieve context, generate the answer, persist
// the turn. Reformulation and retrieval degrade quietly; generation does
// not, and a failed generation leaves no trace in history.
type ChatUseCase struct {
	history      ports.ChatHistoryStore
	model        ports.ChatModel
	retriever    ports.Retriever
	defaultModel string
	logger       *slog.Logger
}

func NewChatUseCase(
	history ports.ChatHistoryStore,
	model ports.ChatModel,
	retriever ports.Retriever,
	defaultModel string,
	logger *slog.Logger,
) *ChatUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatUseCase{
		history:      history,
		model:        model,
		retriever:    retriever,
		defaultModel: defaultModel,
		logger:       logger,
	}
}

func (uc *ChatUseCase) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatAnswer, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chat", errors.New("empty question"))
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	model := req.Model
	if model == "" {
		model = uc.defaultModel
	}

	history := uc.loadHistory(ctx, req.UserID, sessionID)
	standalone := uc.reformulate(ctx, model, question, history)
	contextChunks := uc.retrieve(ctx, standalone)

	answer, err := uc.model.Chat(ctx, model, answerMessages(question, history, contextChunks))
	if err != nil {
		return nil, domain.WrapError(domain.ErrGeneration, "generate answer", err)
	}

	turn := domain.ChatTurn{
		SessionID: sessionID,
		UserID:    req.UserID,
		Question:  question,
		Answer:    answer,
		Model:     model,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.history.AppendTurn(ctx, turn); err != nil {
		return nil, err
	}

	return &domain.ChatAnswer{
		Answer:      answer,
		SessionID:   sessionID,
		UserID:      req.UserID,
		Model:       model,
		SourceCount: len(contextChunks),
	}, nil
}

// loadHistory degrades to an empty history on store errors; one turn without
// context beats a refused turn.
func (uc *ChatUseCase) loadHistory(ctx context.Context, userID int64, sessionID string) []domain.ChatMessage {
	history, err := uc.history.SessionMessages(ctx, userID, sessionID)
	if err != nil {
		uc.logger.Warn("history_load_failed", "session_id", sessionID, "error", err)
		return nil
	}
	return history
}

// reformulate turns a follow-up question into a standalone one. With no
// history there is nothing to resolve, so the question passes through
// untouched without a model call. Model failures also pass the original
// question through.
func (uc *ChatUseCase) reformulate(ctx context.Context, model, question string, history []domain.ChatMessage) string {
	if len(history) == 0 {
		return question
	}

	standalone, err := uc.model.Chat(ctx, model, contextualizeMessages(question, history))
	if err != nil {
		uc.logger.Warn("reformulate_failed", "error", err)
		return question
	}
	standalone = strings.TrimSpace(standalone)
	if standalone == "" {
		return question
	}
	return standalone
}

func (uc *ChatUseCase) retrieve(ctx context.Context, query string) []domain.Chunk {
	chunks, err := uc.retriever.Retrieve(ctx, query)
	if err != nil {
		uc.logger.Warn("retrieval_failed", "error", err)
		return nil
	}
	return chunks
}
