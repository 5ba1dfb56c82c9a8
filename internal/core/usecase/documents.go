package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avoronov/netsuite-assistant/internal/core/domain"
	"github.com/avoronov/netsuite-assistant/internal/core/ports"
)

// DocumentCatalogUseCase serves the per-user document list and scoped
// deletion: removing a document takes its vectors, its metadata row, and its
// stored file together.
type DocumentCatalogUseCase struct {
	docs    ports.DocumentStore
	index   ports.VectorIndex
	storage ports.ObjectStorage
	logger  *slog.Logger
}

func NewDocumentCatalogUseCase(
	docs ports.DocumentStore,
	index ports.VectorIndex,
	storage ports.ObjectStorage,
	logger *slog.Logger,
) *DocumentCatalogUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentCatalogUseCase{
		docs:    docs,
		index:   index,
		storage: storage,
		logger:  logger,
	}
}

func (uc *DocumentCatalogUseCase) List(ctx context.Context, userID int64) ([]domain.Document, error) {
	return uc.docs.ListByUser(ctx, userID)
}

// Delete removes the document's vectors and row, keyed by both document and
// owner so one user cannot evict another's chunks. It reports whether
// anything was removed; deleting an absent document is a no-op, not an
// error.
func (uc *DocumentCatalogUseCase) Delete(ctx context.Context, userID, documentID int64) (bool, error) {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		if domain.IsKind(err, domain.ErrDocumentNotFound) {
			return false, nil
		}
		return false, err
	}
	if doc.UserID != userID {
		return false, nil
	}

	vectorsRemoved, err := uc.index.Delete(ctx, domain.DocumentOwnerFilter(userID, documentID))
	if err != nil {
		return false, fmt.Errorf("delete document vectors: %w", err)
	}

	rowRemoved, err := uc.docs.Delete(ctx, userID, documentID)
	if err != nil {
		return false, fmt.Errorf("delete document row: %w", err)
	}

	if err := uc.storage.Remove(ctx, doc.StoragePath); err != nil {
		// The source file is unreachable once the row is gone; log and move on.
		uc.logger.Warn("stored_file_remove_failed", "path", doc.StoragePath, "error", err)
	}

	return vectorsRemoved || rowRemoved, nil
}
