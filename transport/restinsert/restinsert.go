// Package restinsert writes events straight into a backing store's REST
// insertion endpoint. There is no batching window: every Send and SendBatch
// performs an immediate insert. It exists because batching is a transport
// policy, not a pipeline one; swapping this transport in changes delivery
// behavior without touching the tracker.
package restinsert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/contentfactory/telemetry/event"
	"github.com/contentfactory/telemetry/transport"
)

// Config configures the direct-insert transport.
type Config struct {
	BaseURL string
	Table   string
	APIKey  string
	Timeout time.Duration // default 10s
}

// Transport inserts event rows into <BaseURL>/rest/v1/<Table>.
type Transport struct {
	config Config
	client *http.Client
	log    *zap.Logger
}

// New creates a direct-insert transport.
func New(config Config, log *zap.Logger) *Transport {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	return &Transport{
		config: config,
		client: &http.Client{},
		log:    log,
	}
}

// Send inserts a single event row.
func (t *Transport) Send(ctx context.Context, evt *event.Event) error {
	return t.SendBatch(ctx, []*event.Event{evt})
}

// SendBatch inserts a group of event rows in one request. The body is a bare
// JSON array, per the store's REST convention.
func (t *Transport) SendBatch(ctx context.Context, evts []*event.Event) error {
	if len(evts) == 0 {
		return nil
	}

	body, err := json.Marshal(evts)
	if err != nil {
		return fmt.Errorf("failed to marshal rows: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	url := fmt.Sprintf("%s/rest/v1/%s", t.config.BaseURL, t.config.Table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", t.config.APIKey)
	req.Header.Set("Authorization", "Bearer "+t.config.APIKey)
	req.Header.Set("Prefer", "return=minimal")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("insert request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return &transport.DeliveryError{
			StatusCode: resp.StatusCode,
			Attempts:   1,
			Retryable:  resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
			Err:        fmt.Errorf("store rejected insert"),
		}
	}

	t.log.Debug("Inserted event rows", zap.Int("row_count", len(evts)))
	return nil
}

// Flush is a no-op; nothing is ever buffered.
func (t *Transport) Flush(ctx context.Context) error {
	return nil
}

// Shutdown is a no-op; there is no timer or buffer to release.
func (t *Transport) Shutdown(ctx context.Context) error {
	return nil
}
