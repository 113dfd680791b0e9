package collector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/contentfactory/telemetry/event"
)

// WriterConfig configures the buffered storage writer.
type WriterConfig struct {
	MaxBatchSize int
	FlushTimeout time.Duration
}

// Writer batches incoming events and writes them to the store. Batches go
// out when the size threshold is reached or the flush timeout fires,
// whichever comes first; shutdown drains whatever is buffered.
type Writer struct {
	store  Store
	config WriterConfig
	log    *zap.Logger
}

// NewWriter creates a buffered storage writer.
func NewWriter(store Store, config WriterConfig, log *zap.Logger) *Writer {
	return &Writer{
		store:  store,
		config: config,
		log:    log,
	}
}

// Start consumes events from in until the context is canceled or the channel
// closes, flushing the final partial batch on the way out.
func (w *Writer) Start(ctx context.Context, in <-chan *event.Event) {
	ticker := time.NewTicker(w.config.FlushTimeout)
	defer ticker.Stop()

	batch := make([]*event.Event, 0, w.config.MaxBatchSize)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Storage writer shutting down")
			if len(batch) > 0 {
				w.log.Info("Flushing final batch", zap.Int("event_count", len(batch)))
				w.writeBatch(context.Background(), batch)
			}
			return

		case evt, ok := <-in:
			if !ok {
				w.log.Info("Storage writer input channel closed")
				if len(batch) > 0 {
					w.log.Info("Flushing final batch", zap.Int("event_count", len(batch)))
					w.writeBatch(ctx, batch)
				}
				return
			}

			batch = append(batch, evt)

			if len(batch) >= w.config.MaxBatchSize {
				w.log.Info("Batch size threshold reached", zap.Int("batch_size", len(batch)))
				w.writeBatch(ctx, batch)
				batch = make([]*event.Event, 0, w.config.MaxBatchSize)
				ticker.Reset(w.config.FlushTimeout)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.log.Info("Batch timeout reached", zap.Int("event_count", len(batch)))
				w.writeBatch(ctx, batch)
				batch = make([]*event.Event, 0, w.config.MaxBatchSize)
			}
		}
	}
}

// writeBatch inserts one batch. The collector already acknowledged these
// events with 202 Accepted, so a failed insert can only be logged; the store
// suppresses duplicate message ids if the batch is replayed upstream.
func (w *Writer) writeBatch(ctx context.Context, events []*event.Event) {
	if len(events) == 0 {
		return
	}

	inserted, err := w.store.InsertBatch(ctx, events)
	if err != nil {
		w.log.Error("Failed to insert batch",
			zap.Error(err),
			zap.Int("event_count", len(events)))
		return
	}

	if inserted != len(events) {
		w.log.Warn("Partial insert success",
			zap.Int("inserted", inserted),
			zap.Int("expected", len(events)))
		return
	}

	w.log.Info("Successfully inserted events", zap.Int("count", inserted))
}
