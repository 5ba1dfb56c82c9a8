package extractor

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/avoronov/netsuite-assistant/internal/core/domain"
	"github.com/avoronov/netsuite-assistant/internal/core/ports"
)

// Router opens a stored document and dispatches to the extractor matching its
// file extension. An extension with no extractor fails the whole extraction
// with domain.ErrUnsupportedFormat before any chunk is produced.
type Router struct {
	storage ports.ObjectStorage
}

func NewRouter(storage ports.ObjectStorage) *Router {
	return &Router{storage: storage}
}

func (r *Router) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	extract, ok := extractors[strings.ToLower(filepath.Ext(doc.Filename))]
	if !ok {
		return "", domain.WrapError(
			domain.ErrUnsupportedFormat,
			"extract text",
			fmt.Errorf("no extractor for %q", doc.Filename),
		)
	}

	reader, err := r.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	text, err := extract(reader)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", doc.Filename, err)
	}
	return strings.TrimSpace(text), nil
}

type extractFunc func(io.Reader) (string, error)

var extractors = map[string]extractFunc{
	".txt":  extractPlain,
	".md":   extractPlain,
	".html": extractHTML,
	".htm":  extractHTML,
	".pdf":  extractPDF,
	".docx": extractDocx,
	".csv":  extractCSV,
	".xlsx": extractWorkbook,
	".xls":  extractWorkbook,
}
