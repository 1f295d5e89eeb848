package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/crash-data-dashboard/internal/adapter/artifact"
	"github.com/couchcryptid/crash-data-dashboard/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/crash-data-dashboard/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/crash-data-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/crash-data-dashboard/internal/config"
	"github.com/couchcryptid/crash-data-dashboard/internal/observability"
	"github.com/couchcryptid/crash-data-dashboard/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	reader := csvfile.NewReader(cfg.DataDir, cfg.PartitionPattern, cfg.PartitionCount)
	loader := pipeline.NewLoader(reader, cfg.LoadWorkers, logger, metrics)

	// Publishing is feature-flagged via KAFKA_ENABLED.
	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("record publishing enabled", "topic", cfg.KafkaTopic, "batch_size", cfg.BatchSize)
	} else {
		logger.Info("record publishing disabled")
	}

	svc := pipeline.NewService(loader, publisher, cfg.ViewCacheSize, cfg.BatchSize, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Dataset: svc,
		Map:     artifact.NewMapStore(cfg.MapHTMLPath),
		Models:  artifact.NewModelStore(cfg.ModelDir, logger),
		Metrics: metrics,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Warm the dataset so the first dashboard request does not pay for the load.
	svc.Start(ctx)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	svc.Wait()
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
