package usecase

import (
	"context"
	"fmt"

	"github.com/avoronov/netsuite-assistant/internal/core/domain"
	"github.com/avoronov/netsuite-assistant/internal/core/ports"
)

// IndexedRetriever answers from the local vector index.
type IndexedRetriever struct {
	embedder ports.Embedder
	index    ports.VectorIndex
	topK     int
}

func NewIndexedRetriever(embedder ports.Embedder, index ports.VectorIndex, topK int) *IndexedRetriever {
	if topK <= 0 {
		topK = 4
	}
	return &IndexedRetriever{embedder: embedder, index: index, topK: topK}
}

func (r *IndexedRetriever) Retrieve(ctx context.Context, query string) ([]domain.Chunk, error) {
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.index.Search(ctx, vector, r.topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	chunks := make([]domain.Chunk, 0, len(hits))
	for _, hit := range hits {
		chunks = append(chunks, hit.Chunk)
	}
	return chunks, nil
}

// LiveRetriever answers from a site-scoped web search instead of the index,
// trading latency for freshness.
type LiveRetriever struct {
	searcher ports.DocumentationSearcher
	topK     int
}

func NewLiveRetriever(searcher ports.DocumentationSearcher, topK int) *LiveRetriever {
	if topK <= 0 {
		topK = 4
	}
	return &LiveRetriever{searcher: searcher, topK: topK}
}

func (r *LiveRetriever) Retrieve(ctx context.Context, query string) ([]domain.Chunk, error) {
	pages, err := r.searcher.SearchDocumentation(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search documentation: %w", err)
	}

	chunks := make([]domain.Chunk, 0, r.topK)
	for _, page := range pages {
		if len(chunks) >= r.topK {
			break
		}
		chunks = append(chunks, domain.Chunk{
			Text:        page.Content,
			SourceTitle: page.Title,
			SourceURL:   page.URL,
		})
	}
	return chunks, nil
}
