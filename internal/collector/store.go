package collector

import (
	"context"

	"github.com/contentfactory/telemetry/event"
)

// Store defines the interface for event persistence behind the collector.
type Store interface {
	// InsertBatch inserts a batch of events and returns how many were written.
	InsertBatch(ctx context.Context, events []*event.Event) (int, error)

	// Ping checks if the store connection is alive.
	Ping(ctx context.Context) error

	// Close closes the store and releases resources.
	Close() error
}
