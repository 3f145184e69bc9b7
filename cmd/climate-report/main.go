package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/climate-anomaly/internal/adapter/chart"
	httpadapter "github.com/couchcryptid/climate-anomaly/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/climate-anomaly/internal/adapter/kafka"
	"github.com/couchcryptid/climate-anomaly/internal/adapter/source"
	"github.com/couchcryptid/climate-anomaly/internal/config"
	"github.com/couchcryptid/climate-anomaly/internal/observability"
	"github.com/couchcryptid/climate-anomaly/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	fetcher := source.NewCachedFetcher(
		source.NewHTTPFetcher(cfg.FetchTimeout, cfg.FetchMaxBody, metrics, logger),
		cfg.FetchCacheSize,
		metrics,
	)
	renderer := chart.NewRenderer(cfg.OutputDir, logger)
	reporter := pipeline.NewReporter(renderer, metrics, logger)
	store := pipeline.NewStore()

	// Publishing is feature-flagged via PUBLISH_ENABLED.
	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.PublishEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	p := pipeline.New(sources(cfg, fetcher), reporter, publisher, store, logger, metrics,
		clockwork.NewRealClock(), cfg.ReportInterval)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start report pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
