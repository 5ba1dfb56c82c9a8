package usecase

import (
	"context"
	"fmt"

	"github.com/avoronov/netsuite-assistant/internal/core/ports"
)

// CorpusAdminUseCase covers whole-index maintenance: dropping the corpus and
// requesting a fresh docs crawl. The crawl runs in the worker; the API side
// only queues it.
type CorpusAdminUseCase struct {
	index ports.VectorIndex
	queue ports.MessageQueue
}

func NewCorpusAdminUseCase(index ports.VectorIndex, queue ports.MessageQueue) *CorpusAdminUseCase {
	return &CorpusAdminUseCase{index: index, queue: queue}
}

func (uc *CorpusAdminUseCase) ClearIndex(ctx context.Context) (bool, error) {
	cleared, err := uc.index.Clear(ctx)
	if err != nil {
		return false, fmt.Errorf("clear index: %w", err)
	}
	return cleared, nil
}

func (uc *CorpusAdminUseCase) RequestCrawl(ctx context.Context) error {
	if err := uc.queue.PublishCrawlRequested(ctx); err != nil {
		return fmt.Errorf("publish crawl request: %w", err)
	}
	return nil
}
