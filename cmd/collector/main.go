package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/contentfactory/telemetry/event"
	"github.com/contentfactory/telemetry/internal/collector"
	"github.com/contentfactory/telemetry/internal/collector/storage/clickhouse"
	"github.com/contentfactory/telemetry/internal/config"
	"github.com/contentfactory/telemetry/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Service.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		if err := log.Sync(); err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting collector service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Collector.Port))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	chClient, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
	if err != nil {
		log.Fatal("Failed to create ClickHouse client", zap.Error(err))
	}
	defer func() {
		if err := chClient.Close(); err != nil {
			log.Error("Failed to close ClickHouse client", zap.Error(err))
		}
	}()

	store := clickhouse.NewRepository(chClient, log)

	if err := store.InitSchema(ctx); err != nil {
		log.Fatal("Failed to initialize schema", zap.Error(err))
	}
	log.Info("Database schema initialized")

	events := make(chan *event.Event, cfg.Writer.BufferSize)

	writer := collector.NewWriter(store, collector.WriterConfig{
		MaxBatchSize: cfg.Writer.BatchSizeMax,
		FlushTimeout: time.Duration(cfg.Writer.BatchTimeoutSec) * time.Second,
	}, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		writer.Start(context.Background(), events)
	}()

	handler := collector.NewHandler(cfg.Collector.APIKey, events, log)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Collector.Port),
		Handler: handler,
	}

	go func() {
		log.Info("Collector server starting", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start collector server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down collector")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down server cleanly", zap.Error(err))
	}

	// No new batches can arrive; closing the channel drains the writer.
	close(events)
	wg.Wait()

	log.Info("Collector stopped")
}
