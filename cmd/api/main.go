package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/avoronov/netsuite-assistant/internal/adapters/http"
	"github.com/avoronov/netsuite-assistant/internal/bootstrap"
	"github.com/avoronov/netsuite-assistant/internal/config"
	"github.com/avoronov/netsuite-assistant/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "netsuite-assistant-api")
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	serverMetrics := metrics.NewHTTPServerMetrics("netsuite-assistant-api")
	router := httpadapter.NewRouter(
		app.ChatUC,
		app.HistoryUC,
		app.IngestUC,
		app.CatalogUC,
		app.AdminUC,
		app.Auth,
		serverMetrics,
		httpadapter.Options{
			RateLimitRPS:   float64(cfg.APIRateLimitRPS),
			RateLimitBurst: cfg.APIRateLimitBurst,
			MaxConcurrent:  cfg.APIMaxConcurrent,
			MaxWait:        2 * time.Second,
			RetrievalMode:  cfg.RetrievalMode,
		},
	)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		app.Logger.Info("api_listening", "addr", server.Addr, "retrieval_mode", cfg.RetrievalMode)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error("api_shutdown_error", "error", err)
	}
}
