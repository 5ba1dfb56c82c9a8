package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/avoronov/netsuite-assistant/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	row := r.db.QueryRowContext(ctx, `
INSERT INTO documents (user_id, filename, storage_path, status, chunk_count, error_message, uploaded_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING id
`, doc.UserID, doc.Filename, doc.StoragePath, string(doc.Status), doc.ChunkCount, doc.Error, doc.UploadedAt)
	if err := row.Scan(&doc.ID); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, filename, storage_path, status, chunk_count, error_message, uploaded_at
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document "+strconv.FormatInt(id, 10), err)
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, filename, storage_path, status, chunk_count, error_message, uploaded_at
FROM documents
WHERE user_id = $1
ORDER BY uploaded_at DESC, id DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id int64, status domain.DocumentStatus, chunkCount int, errMessage string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, chunk_count = $3, error_message = $4
WHERE id = $1
`, id, string(status), chunkCount, errMessage)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return nil
}

// Delete removes the row only when it belongs to the given user; a
// mismatched owner counts as no match, not an error.
func (r *DocumentRepository) Delete(ctx context.Context, userID, documentID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
DELETE FROM documents
WHERE id = $1 AND user_id = $2
`, documentID, userID)
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete document rows affected: %w", err)
	}
	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var status string
	err := row.Scan(
		&doc.ID, &doc.UserID, &doc.Filename, &doc.StoragePath,
		&status, &doc.ChunkCount, &doc.Error, &doc.UploadedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}
