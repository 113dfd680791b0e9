// Package transport defines the delivery contract between the tracker and a
// remote collector. Batching, retries, and flush policy are transport-level
// concerns; the pipeline only hands over enriched events.
package transport

import (
	"context"
	"fmt"

	"github.com/contentfactory/telemetry/event"
)

// Transport is the minimum contract a delivery backend must satisfy.
type Transport interface {
	// Send enqueues or delivers a single event.
	Send(ctx context.Context, evt *event.Event) error

	// SendBatch enqueues or delivers a group of events.
	SendBatch(ctx context.Context, evts []*event.Event) error

	// Flush attempts delivery of everything buffered. Calling Flush with an
	// empty buffer, or while another flush is in progress, is a no-op.
	Flush(ctx context.Context) error

	// Shutdown stops background work and drains the buffer. Safe to call
	// more than once.
	Shutdown(ctx context.Context) error
}

// DeliveryError reports a failed delivery attempt. Retryable errors have
// exhausted the retry budget by the time they surface from Flush or Shutdown;
// non-retryable errors (client errors other than 429) surface immediately.
type DeliveryError struct {
	StatusCode int
	Attempts   int
	Retryable  bool
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.Retryable {
		return fmt.Sprintf("delivery failed after %d attempts (status %d): %v", e.Attempts, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("delivery rejected (status %d): %v", e.StatusCode, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
