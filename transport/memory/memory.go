// Package memory provides a recording transport for tests that assert on
// tracked events without performing network I/O.
package memory

import (
	"context"
	"sync"

	"github.com/contentfactory/telemetry/event"
)

// Transport accumulates every delivered event in memory.
type Transport struct {
	mu         sync.Mutex
	events     []*event.Event
	flushCalls int
}

// New creates an empty recording transport.
func New() *Transport {
	return &Transport{}
}

// Send records a single event.
func (t *Transport) Send(ctx context.Context, evt *event.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, evt)
	return nil
}

// SendBatch records a group of events.
func (t *Transport) SendBatch(ctx context.Context, evts []*event.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, evts...)
	return nil
}

// Flush counts the call and succeeds.
func (t *Transport) Flush(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flushCalls++
	return nil
}

// Shutdown succeeds without releasing anything.
func (t *Transport) Shutdown(ctx context.Context) error {
	return nil
}

// Events returns a copy of everything recorded so far.
func (t *Transport) Events() []*event.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*event.Event, len(t.events))
	copy(out, t.events)
	return out
}

// FlushCalls returns how many times Flush has been invoked.
func (t *Transport) FlushCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flushCalls
}

// Reset clears recorded events and counters.
func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = nil
	t.flushCalls = 0
}
