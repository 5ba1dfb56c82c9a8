package ports

import (
	"context"
	"io"

	"github.com/avoronov/netsuite-assistant/internal/core/domain"
)

// ChatService is the inbound contract for one retrieval-augmented chat turn.
type ChatService interface {
	Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatAnswer, error)
}

// ChatHistoryService exposes the persisted conversation log.
type ChatHistoryService interface {
	UserHistory(ctx context.Context, userID int64) (map[string]domain.SessionLog, error)
	DeleteSession(ctx context.Context, userID int64, sessionID string) (bool, error)
}

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, userID int64, filename string, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous indexing of an
// uploaded document.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID int64) error
}

// DocumentCatalog is the inbound read/delete model for uploaded documents.
type DocumentCatalog interface {
	List(ctx context.Context, userID int64) ([]domain.Document, error)
	Delete(ctx context.Context, userID, documentID int64) (bool, error)
}

// CorpusAdmin covers full-corpus maintenance.
type CorpusAdmin interface {
	ClearIndex(ctx context.Context) (bool, error)
	RequestCrawl(ctx context.Context) error
}
