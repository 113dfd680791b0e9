// Command emit exercises the pipeline end to end against a running
// collector: it builds a tracker with the standard middleware stack, emits a
// handful of sample events, and flushes before exiting.
package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/contentfactory/telemetry/event"
	"github.com/contentfactory/telemetry/internal/config"
	"github.com/contentfactory/telemetry/internal/logger"
	"github.com/contentfactory/telemetry/middleware"
	"github.com/contentfactory/telemetry/tracker"
	"github.com/contentfactory/telemetry/transport/httpbatch"
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
	defer func() {
		_ = log.Sync()
	}()

	transport := httpbatch.New(httpbatch.Config{
		Endpoint:  cfg.Emitter.Endpoint,
		APIKey:    cfg.Emitter.APIKey,
		BatchSize: 5,
	}, log)

	sampling, err := middleware.WithSampling(1.0)
	if err != nil {
		log.Fatal("Failed to build sampling middleware", zap.Error(err))
	}

	t, err := tracker.New(tracker.Options{
		Product: event.ProductContentFactory,
		DefaultContext: event.Context{
			Locale:   "en-US",
			Timezone: "UTC",
		},
		Debug:     true,
		Logger:    log,
		Transport: transport,
	})
	if err != nil {
		log.Fatal("Failed to build tracker", zap.Error(err))
	}

	t.Use(middleware.WithTimestamp()).
		Use(middleware.WithSession()).
		Use(middleware.WithSensitiveFilter("email", "password")).
		Use(sampling).
		Use(middleware.WithDedup(time.Second))

	if err := t.Identify("user-42", event.Properties{"plan": "pro"}); err != nil {
		log.Fatal("Failed to identify", zap.Error(err))
	}

	for i := 0; i < 3; i++ {
		err := t.Track("button_click", event.Properties{
			"label": "save",
			"count": i,
			"email": "user@example.com", // stripped by the sensitive filter
		})
		if err != nil {
			log.Fatal("Failed to track", zap.Error(err))
		}
	}

	if err := t.Page("dashboard", event.Properties{"section": "reports"}); err != nil {
		log.Fatal("Failed to track page view", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := t.Flush(ctx); err != nil {
		log.Fatal("Failed to flush events", zap.Error(err))
	}
	if err := t.Shutdown(ctx); err != nil {
		log.Fatal("Failed to shut down tracker", zap.Error(err))
	}

	log.Info("All events delivered")
}
