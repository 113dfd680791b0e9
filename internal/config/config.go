package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Service holds process-wide settings.
type Service struct {
	Environment string `envconfig:"SERVICE_ENVIRONMENT" default:"development"`
}

// Collector configures the batch ingestion endpoint.
type Collector struct {
	Port   string `envconfig:"COLLECTOR_PORT" default:"8080"`
	APIKey string `envconfig:"COLLECTOR_API_KEY" required:"true"`
}

// Writer configures the collector's buffered storage writer.
type Writer struct {
	BatchSizeMax    int `envconfig:"WRITER_BATCH_SIZE_MAX" default:"500"`
	BatchTimeoutSec int `envconfig:"WRITER_BATCH_TIMEOUT_SEC" default:"5"`
	BufferSize      int `envconfig:"WRITER_BUFFER_SIZE" default:"1000"`
}

// ClickHouse configures the event store connection.
type ClickHouse struct {
	Host            string `envconfig:"CLICKHOUSE_HOST" required:"true"`
	Port            string `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	Database        string `envconfig:"CLICKHOUSE_DB" default:"telemetry"`
	User            string `envconfig:"CLICKHOUSE_USER" default:""`
	Password        string `envconfig:"CLICKHOUSE_PASSWORD" default:""`
	UseTLS          bool   `envconfig:"CLICKHOUSE_USE_TLS" default:"false"`
	MaxOpenConns    int    `envconfig:"CLICKHOUSE_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int    `envconfig:"CLICKHOUSE_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime int    `envconfig:"CLICKHOUSE_CONN_MAX_LIFETIME_SEC" default:"3600"`
}

// Emitter configures the demo emitter command.
type Emitter struct {
	Endpoint string `envconfig:"EMIT_ENDPOINT" default:"http://localhost:8080/v1/batch"`
	APIKey   string `envconfig:"EMIT_API_KEY" default:""`
}

// Config is the full environment-driven configuration.
type Config struct {
	Service    Service
	Collector  Collector
	Writer     Writer
	ClickHouse ClickHouse
	Emitter    Emitter
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
