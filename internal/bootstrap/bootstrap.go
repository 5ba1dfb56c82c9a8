package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avoronov/netsuite-assistant/internal/auth"
	"github.com/avoronov/netsuite-assistant/internal/config"
	"github.com/avoronov/netsuite-assistant/internal/core/ports"
	"github.com/avoronov/netsuite-assistant/internal/core/usecase"
	"github.com/avoronov/netsuite-assistant/internal/infrastructure/chunking"
	"github.com/avoronov/netsuite-assistant/internal/infrastructure/extractor"
	"github.com/avoronov/netsuite-assistant/internal/infrastructure/llm/ollama"
	"github.com/avoronov/netsuite-assistant/internal/infrastructure/queue/nats"
	"github.com/avoronov/netsuite-assistant/internal/infrastructure/repository/postgres"
	"github.com/avoronov/netsuite-assistant/internal/infrastructure/resilience"
	"github.com/avoronov/netsuite-assistant/internal/infrastructure/scraper"
	"github.com/avoronov/netsuite-assistant/internal/infrastructure/search"
	"github.com/avoronov/netsuite-assistant/internal/infrastructure/storage/localfs"
	"github.com/avoronov/netsuite-assistant/internal/infrastructure/vector/qdrant"
	"github.com/avoronov/netsuite-assistant/internal/observability/logging"
)

// App wires the shared dependency graph used by both the API and the worker.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue ports.MessageQueue
	Auth  *auth.Service

	ChatUC    ports.ChatService
	HistoryUC ports.ChatHistoryService
	IngestUC  ports.DocumentIngestor
	CatalogUC ports.DocumentCatalog
	AdminUC   ports.CorpusAdmin

	ProcessUC ports.DocumentProcessor
	CrawlUC   *usecase.CrawlDocsUseCase

	closeFn func()
}

// Option adjusts process-specific wiring; the worker attaches its queue lag
// observer this way without the API carrying worker metrics.
type Option func(*settings)

type settings struct {
	queueLagObserver func(subject string, lag time.Duration)
}

func WithQueueLagObserver(fn func(subject string, lag time.Duration)) Option {
	return func(s *settings) {
		s.queueLagObserver = fn
	}
}

func New(ctx context.Context, cfg config.Config, service string, opts ...Option) (*App, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	userRepo := postgres.NewUserRepository(db)
	chatRepo := postgres.NewChatRepository(db)
	docRepo := postgres.NewDocumentRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSIngestSubject, cfg.NATSCrawlSubject, nats.Options{
		ResilienceExecutor: executor,
		OnQueueLag:         s.queueLagObserver,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	model := ollama.New(cfg.OllamaURL, cfg.OllamaChatModel, cfg.OllamaEmbedModel, ollama.Options{
		Executor: executor,
	})
	vectorIndex := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)

	var retriever ports.Retriever
	if cfg.RetrievalMode == "live" {
		searcher := search.New(cfg.SearchURL, cfg.DocsBaseURL, cfg.SearchMaxResults, logger)
		retriever = usecase.NewLiveRetriever(searcher, cfg.RAGTopK)
	} else {
		retriever = usecase.NewIndexedRetriever(model, vectorIndex, cfg.RAGTopK)
	}

	textChunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	pageChunker := chunking.NewWordSplitter(cfg.PageChunkWords, cfg.PageOverlapWords)
	textExtractor := extractor.NewRouter(storage)
	crawler := scraper.NewCrawler(cfg.DocsBaseURL, cfg.DocsIndexPage, cfg.CrawlMaxPages, cfg.CrawlRPS, logger)

	authService := auth.NewService(userRepo, cfg.AuthTokenSecret, time.Duration(cfg.AuthTokenTTLHours)*time.Hour)

	return &App{
		Config: cfg,
		Logger: logger,
		Queue:  queue,
		Auth:   authService,

		ChatUC:    usecase.NewChatUseCase(chatRepo, model, retriever, cfg.OllamaChatModel, logger),
		HistoryUC: usecase.NewChatHistoryUseCase(chatRepo),
		IngestUC:  usecase.NewIngestDocumentUseCase(docRepo, storage, queue),
		CatalogUC: usecase.NewDocumentCatalogUseCase(docRepo, vectorIndex, storage, logger),
		AdminUC:   usecase.NewCorpusAdminUseCase(vectorIndex, queue),

		ProcessUC: usecase.NewProcessDocumentUseCase(docRepo, textExtractor, textChunker, model, vectorIndex),
		CrawlUC:   usecase.NewCrawlDocsUseCase(crawler, pageChunker, model, vectorIndex, logger),

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
