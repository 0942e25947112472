package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"confronto/internal/amqp"
	"confronto/internal/backend"
	"confronto/internal/cache"
	"confronto/internal/cli"
	"confronto/internal/config"
	"confronto/internal/log"
	"confronto/internal/services"
	"confronto/internal/sources"
	"confronto/internal/storage"
	"confronto/internal/worker"
)

const cacheCleanupInterval = time.Minute

func main() {
	// Load .env file for local development
	if err := cli.LoadEnvFile(); err != nil {
		fmt.Fprintln(os.Stderr, "load env file:", err)
		os.Exit(1)
	}

	cfg := config.Load()
	level, _ := cfg.Level()
	logger := log.New(log.Config{Level: level, Component: log.ComponentWorker, Output: os.Stdout})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	logger.Info("Starting confronto-worker",
		log.FieldSource, cfg.DataSource,
		"queue", cfg.AMQPQueue,
		"output_dir", cfg.OutputDir)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	caches := cache.NewManager()
	caches.Start(ctx, cacheCleanupInterval)
	defer caches.Stop()

	factory := backend.NewFactory(logger.Logger, caches)
	bcfg, err := backend.FromAppConfig(cfg, cfg.DataSource)
	if err != nil {
		logger.Error("Invalid source configuration", log.FieldError, err)
		os.Exit(1)
	}
	src, err := factory.CreateSource(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize transaction source", log.FieldError, err)
		os.Exit(1)
	}
	defer src.Close()

	if cfg.SyncInterval > 0 {
		cleanup, err := startSync(ctx, cfg, factory, src, logger)
		if err != nil {
			logger.Error("Failed to start mirror sync", log.FieldError, err)
			os.Exit(1)
		}
		defer cleanup()
	} else {
		logger.Info("Periodic mirror sync disabled")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	compareWorker := worker.NewCompareWorker(services.NewComparisonService(src.Source, cfg.Currency), cfg.OutputDir)

	err = amqpClient.ConsumeComparisonRequests(ctx, compareWorker.HandleComparisonRequest)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

// startSync runs the mirror refresh in the background. The returned cleanup
// stops it before closing the connections it uses. When comparisons read
// from the mirror they share its connection; when they read from a cached
// remote source the synced window is dropped from that cache.
func startSync(ctx context.Context, cfg *config.Config, factory *backend.DefaultFactory, src *backend.Result, logger *log.Logger) (func(), error) {
	ucfg, err := backend.FromAppConfig(cfg, cfg.SyncSource)
	if err != nil {
		return nil, err
	}
	ucfg.CacheSize = 0
	upstream, err := factory.CreateSource(ctx, ucfg)
	if err != nil {
		return nil, err
	}

	mirror, shared := src.Source.(*storage.SQLiteRepository)
	if !shared {
		if mirror, err = storage.NewSQLiteRepository(cfg.SQLiteDBPath); err != nil {
			upstream.Close()
			return nil, err
		}
	}

	if last, err := mirror.LastSync(ctx); err != nil {
		logger.Warn("Could not read last mirror sync", log.FieldError, err)
	} else if last != nil {
		n, _ := mirror.Count(ctx)
		logger.Info("Mirror state",
			log.FieldCount, n,
			log.FieldRangeStart, last.Start.String(),
			log.FieldRangeEnd, last.End.String(),
			"last_sync", last.FinishedAt)
	}

	var invalidator worker.Invalidator
	if cached, ok := src.Source.(*sources.Cached); ok {
		invalidator = cached
	}

	syncWorker := worker.NewSyncWorker(services.NewSyncService(upstream.Source, mirror), invalidator)
	stopSync := syncWorker.Start(ctx, cfg.SyncInterval)

	logger.Info("Periodic mirror sync enabled",
		log.FieldSource, cfg.SyncSource,
		"interval", cfg.SyncInterval)

	return func() {
		stopSync()
		upstream.Close()
		if !shared {
			mirror.Close()
		}
	}, nil
}
