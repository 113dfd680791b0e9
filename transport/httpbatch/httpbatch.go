// Package httpbatch delivers events to a collector endpoint in batches with
// bounded retry and exponential backoff.
package httpbatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/contentfactory/telemetry/event"
	"github.com/contentfactory/telemetry/transport"
)

// Config configures the HTTP batch transport.
type Config struct {
	Endpoint      string
	APIKey        string
	BatchSize     int           // default 20
	FlushInterval time.Duration // default 5s
	MaxRetries    int           // default 3
	Timeout       time.Duration // per-attempt, default 10s
	RetryBackoff  time.Duration // first retry delay, default 200ms
	MaxBackoff    time.Duration // backoff cap, default 5s
}

func (c *Config) applyDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 20
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 5 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 200 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 5 * time.Second
	}
}

// Transport buffers outgoing events and drains them to the collector when the
// batch threshold is reached, on a periodic timer, and on Flush/Shutdown.
// Send and SendBatch are safe to call from many goroutines.
type Transport struct {
	config Config
	client *http.Client
	log    *zap.Logger

	mu       sync.Mutex
	queue    []*event.Event
	flushing bool

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

type batchPayload struct {
	Events []*event.Event `json:"events"`
}

// New creates a transport and starts its periodic flush timer. The timer
// goroutine exits on Shutdown and never keeps a finished process alive.
func New(config Config, log *zap.Logger) *Transport {
	config.applyDefaults()

	t := &Transport{
		config: config,
		client: &http.Client{},
		log:    log,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	go t.loop()

	return t
}

// Send appends a single event to the outbound queue. Reaching the batch
// threshold triggers an immediate flush; otherwise delivery waits for the
// periodic timer.
func (t *Transport) Send(ctx context.Context, evt *event.Event) error {
	return t.SendBatch(ctx, []*event.Event{evt})
}

// SendBatch appends a group of events to the outbound queue.
func (t *Transport) SendBatch(ctx context.Context, evts []*event.Event) error {
	t.mu.Lock()
	t.queue = append(t.queue, evts...)
	pending := len(t.queue)
	t.mu.Unlock()

	if pending >= t.config.BatchSize {
		return t.Flush(ctx)
	}
	return nil
}

// Flush drains the queue in chunks of the configured batch size. A flush that
// overlaps an in-progress flush is a safe no-op. Events in a chunk whose
// delivery fails terminally are dropped; the error is returned and events in
// later chunks remain queued for the next flush.
func (t *Transport) Flush(ctx context.Context) error {
	t.mu.Lock()
	if t.flushing {
		t.mu.Unlock()
		return nil
	}
	t.flushing = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.flushing = false
		t.mu.Unlock()
	}()

	for {
		t.mu.Lock()
		if len(t.queue) == 0 {
			t.mu.Unlock()
			return nil
		}
		size := min(t.config.BatchSize, len(t.queue))
		chunk := make([]*event.Event, size)
		copy(chunk, t.queue[:size])
		t.queue = t.queue[size:]
		t.mu.Unlock()

		if err := t.sendChunk(ctx, chunk); err != nil {
			t.log.Error("Failed to deliver batch",
				zap.Int("event_count", len(chunk)),
				zap.Error(err))
			return err
		}

		t.log.Debug("Delivered batch", zap.Int("event_count", len(chunk)))
	}
}

// Shutdown stops the periodic timer and performs one final flush. Calling it
// again flushes an empty queue, which is a no-op.
func (t *Transport) Shutdown(ctx context.Context) error {
	t.stopOnce.Do(func() {
		close(t.stop)
	})
	<-t.done
	return t.Flush(ctx)
}

func (t *Transport) loop() {
	defer close(t.done)

	ticker := time.NewTicker(t.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			if err := t.Flush(context.Background()); err != nil {
				t.log.Warn("Periodic flush failed", zap.Error(err))
			}
		}
	}
}

// sendChunk delivers one chunk with up to MaxRetries attempts. 2xx stops
// retrying; 4xx other than 429 is terminal; 429, 5xx, and network or timeout
// errors back off and retry until the budget is spent.
func (t *Transport) sendChunk(ctx context.Context, chunk []*event.Event) error {
	body, err := json.Marshal(batchPayload{Events: chunk})
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}

	delay := t.config.RetryBackoff
	var lastStatus int
	var lastErr error

	for attempt := 1; attempt <= t.config.MaxRetries; attempt++ {
		status, err := t.post(ctx, body)

		if err == nil && status >= 200 && status < 300 {
			return nil
		}

		if err == nil && status != http.StatusTooManyRequests && status >= 400 && status < 500 {
			return &transport.DeliveryError{
				StatusCode: status,
				Attempts:   attempt,
				Retryable:  false,
				Err:        fmt.Errorf("collector rejected batch"),
			}
		}

		lastStatus = status
		lastErr = err
		if lastErr == nil {
			lastErr = fmt.Errorf("collector returned status %d", status)
		}

		t.log.Warn("Batch delivery attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("status", status),
			zap.Error(lastErr))

		if attempt == t.config.MaxRetries {
			break
		}

		if err := sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
		delay = min(delay*2, t.config.MaxBackoff)
	}

	return &transport.DeliveryError{
		StatusCode: lastStatus,
		Attempts:   t.config.MaxRetries,
		Retryable:  true,
		Err:        lastErr,
	}
}

func (t *Transport) post(ctx context.Context, body []byte) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.config.APIKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
