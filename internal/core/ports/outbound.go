package ports

import (
	"context"
	"io"

	"github.com/avoronov/netsuite-assistant/internal/core/domain"
)

// Embedder builds vectors for chunk and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ChatModel is the language model behind reformulation and answer synthesis.
// Messages carry a system instruction first, then alternating prior turns,
// then the current user turn. An empty model selects the deployment default.
type ChatModel interface {
	Chat(ctx context.Context, model string, messages []domain.ChatMessage) (string, error)
}

// VectorIndex stores chunk embeddings with metadata and answers similarity
// queries. Delete matches the explicit conjunctive filter and reports whether
// anything matched; it never errors on an empty match.
type VectorIndex interface {
	IndexChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, k int) ([]domain.RetrievedChunk, error)
	Delete(ctx context.Context, filter domain.MetadataFilter) (bool, error)
	Clear(ctx context.Context) (bool, error)
}

// Retriever returns context passages for a (reformulated) query. An empty
// result is a valid "no context" outcome, not a failure.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]domain.Chunk, error)
}

// ChatHistoryStore persists conversation turns, ordered by creation time
// within a session.
type ChatHistoryStore interface {
	AppendTurn(ctx context.Context, turn domain.ChatTurn) error
	SessionMessages(ctx context.Context, userID int64, sessionID string) ([]domain.ChatMessage, error)
	UserSessions(ctx context.Context, userID int64) (map[string]domain.SessionLog, error)
	DeleteSession(ctx context.Context, userID int64, sessionID string) (bool, error)
}

// DocumentStore persists uploaded document metadata.
type DocumentStore interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id int64) (*domain.Document, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Document, error)
	UpdateStatus(ctx context.Context, id int64, status domain.DocumentStatus, chunkCount int, errMessage string) error
	Delete(ctx context.Context, userID, documentID int64) (bool, error)
}

// UserStore persists account records.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, email, hashedPassword string) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// MessageQueue carries ingestion and crawl events from the API to the worker.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID int64) error
	PublishCrawlRequested(ctx context.Context) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, int64) error) error
	SubscribeCrawlRequested(ctx context.Context, handler func(context.Context) error) error
}

// TextExtractor extracts plain text from a stored document, routing by the
// document's declared format.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Chunker splits extracted text into windows sized for embedding.
type Chunker interface {
	Split(text string) []string
}

// DocumentationSearcher finds documentation pages for a query on the live
// site instead of the local index.
type DocumentationSearcher interface {
	SearchDocumentation(ctx context.Context, query string) ([]domain.ScrapedPage, error)
}

// PageSource yields documentation pages for corpus ingestion.
type PageSource interface {
	Pages(ctx context.Context) ([]domain.ScrapedPage, error)
}
