package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avoronov/netsuite-assistant/internal/bootstrap"
	"github.com/avoronov/netsuite-assistant/internal/config"
	"github.com/avoronov/netsuite-assistant/internal/observability/metrics"
)

const serviceName = "netsuite-assistant-worker"

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)

	app, err := bootstrap.New(ctx, cfg, serviceName, bootstrap.WithQueueLagObserver(
		func(_ string, lag time.Duration) {
			workerMetrics.ObserveQueueLag(serviceName, lag)
		},
	))
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		app.Logger.Info("worker_metrics_listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Error("worker_metrics_server_error", "error", err)
		}
	}()

	errCh := make(chan error, 2)

	go func() {
		app.Logger.Info("worker_subscribed", "subject", cfg.NATSIngestSubject)
		errCh <- app.Queue.SubscribeDocumentIngested(ctx, func(handlerCtx context.Context, documentID int64) error {
			processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
			defer cancel()

			workerMetrics.StartDocument()
			started := time.Now()
			err := app.ProcessUC.ProcessByID(processCtx, documentID)
			workerMetrics.FinishDocument(serviceName, time.Since(started), err)
			if err != nil {
				app.Logger.Error("document_process_failed", "document_id", documentID, "error", err)
			}
			return err
		})
	}()

	go func() {
		app.Logger.Info("worker_subscribed", "subject", cfg.NATSCrawlSubject)
		errCh <- app.Queue.SubscribeCrawlRequested(ctx, func(handlerCtx context.Context) error {
			crawlCtx, cancel := context.WithTimeout(handlerCtx, 60*time.Minute)
			defer cancel()

			pages, chunks, err := app.CrawlUC.Crawl(crawlCtx)
			workerMetrics.FinishCrawl(serviceName, pages, chunks, err)
			if err != nil {
				app.Logger.Error("docs_crawl_failed", "pages_indexed", pages, "chunks_indexed", chunks, "error", err)
				return err
			}
			app.Logger.Info("docs_crawl_finished", "pages_indexed", pages, "chunks_indexed", chunks)
			return nil
		})
	}()

	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			app.Logger.Error("worker_subscription_error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
