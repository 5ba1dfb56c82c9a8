package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avoronov/netsuite-assistant/internal/core/domain"
	"github.com/avoronov/netsuite-assistant/internal/core/ports"
)

// CrawlDocsUseCase pulls the online help corpus into the index. Pages are
// split on word boundaries; each chunk carries the page title and url but no
// owner, so crawled content is shared across users.
type CrawlDocsUseCase struct {
	source   ports.PageSource
	chunker  ports.Chunker
	embedder ports.Embedder
	index    ports.VectorIndex
	logger   *slog.Logger
}

func NewCrawlDocsUseCase(
	source ports.PageSource,
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.VectorIndex,
	logger *slog.Logger,
) *CrawlDocsUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &CrawlDocsUseCase{
		source:   source,
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		logger:   logger,
	}
}

// Crawl indexes page by page so a failure partway keeps everything indexed
// up to that point. Returns the number of pages and chunks indexed.
func (uc *CrawlDocsUseCase) Crawl(ctx context.Context) (int, int, error) {
	pages, err := uc.source.Pages(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch documentation pages: %w", err)
	}

	indexedPages := 0
	indexedChunks := 0
	for _, page := range pages {
		n, err := uc.indexPage(ctx, page)
		if err != nil {
			return indexedPages, indexedChunks, fmt.Errorf("index page %s: %w", page.URL, err)
		}
		if n > 0 {
			indexedPages++
		}
		indexedChunks += n
	}

	uc.logger.Info("docs_indexed", "pages", indexedPages, "chunks", indexedChunks)
	return indexedPages, indexedChunks, nil
}

func (uc *CrawlDocsUseCase) indexPage(ctx context.Context, page domain.ScrapedPage) (int, error) {
	pieces := uc.chunker.Split(page.Content)
	if len(pieces) == 0 {
		return 0, nil
	}

	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, domain.Chunk{
			Text:        piece,
			SourceTitle: page.Title,
			SourceURL:   page.URL,
			Index:       i,
		})
	}

	vectors, err := uc.embedder.Embed(ctx, pieces)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if err := uc.index.IndexChunks(ctx, chunks, vectors); err != nil {
		return 0, fmt.Errorf("index chunks: %w", err)
	}
	return len(chunks), nil
}
