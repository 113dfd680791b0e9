package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/contentfactory/telemetry/event"
)

// Repository implements collector.Store for ClickHouse
type Repository struct {
	client *Client
	log    *zap.Logger
}

// NewRepository creates a new ClickHouse repository
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

// InitSchema creates the events table. ReplacingMergeTree keyed on
// message_id suppresses duplicates at the collector side, which is what the
// pipeline's message ids are for.
func (r *Repository) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS analytics_events (
		message_id String,
		event_name LowCardinality(String),
		product LowCardinality(String),
		user_id String,
		anonymous_id String,
		timestamp DateTime64(3),
		properties String,
		context String,
		received_at DateTime64(3) DEFAULT now64(3)
	) ENGINE = ReplacingMergeTree
	PRIMARY KEY (message_id)
	ORDER BY (message_id, timestamp)
	PARTITION BY toYYYYMM(timestamp)
	SETTINGS index_granularity = 8192
	`

	if err := r.client.Conn().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create analytics_events table: %w", err)
	}

	r.log.Info("ClickHouse schema initialized successfully")
	return nil
}

// InsertBatch inserts a batch of events into ClickHouse
func (r *Repository) InsertBatch(ctx context.Context, events []*event.Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	batch, err := r.client.Conn().PrepareBatch(ctx,
		"INSERT INTO analytics_events (message_id, event_name, product, user_id, anonymous_id, timestamp, properties, context)")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare batch: %w", err)
	}

	inserted := 0
	for _, evt := range events {
		propertiesJSON, err := json.Marshal(evt.Properties)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal properties: %w", err)
		}

		contextJSON, err := json.Marshal(evt.Context)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal context: %w", err)
		}

		err = batch.Append(
			evt.MessageID,
			evt.Name,
			string(evt.Product),
			evt.UserID,
			evt.AnonymousID,
			evt.Timestamp,
			string(propertiesJSON),
			string(contextJSON),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to append event to batch: %w", err)
		}
		inserted++
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send batch: %w", err)
	}

	return inserted, nil
}

// Ping checks if the ClickHouse connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Conn().Ping(ctx)
}

// Close closes the ClickHouse connection
func (r *Repository) Close() error {
	return r.client.Close()
}
