// Package queue publishes events to an SQS queue instead of a collector
// endpoint, for deployments where a downstream consumer drains the queue at
// its own pace.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/contentfactory/telemetry/event"
)

// Config configures the SQS transport.
type Config struct {
	QueueURL string
	Region   string
	Endpoint string // non-empty for local development against ElasticMQ
}

// API is the subset of the SQS client the transport uses.
type API interface {
	SendMessage(ctx context.Context, input *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Transport publishes each event as one SQS message.
type Transport struct {
	client API
	config Config
	log    *zap.Logger
}

// New creates an SQS transport with a live client.
func New(ctx context.Context, config Config, log *zap.Logger) (*Transport, error) {
	configOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.Region),
	}

	var clientOpts []func(*sqs.Options)

	// Configure for local development with ElasticMQ
	if config.Endpoint != "" {
		log.Info("Configuring SQS for local development",
			zap.String("endpoint", config.Endpoint))
		configOpts = append(configOpts,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")))

		clientOpts = append(clientOpts, func(o *sqs.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
		})
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("SQS transport created",
		zap.String("region", config.Region),
		zap.String("queue_url", config.QueueURL))

	return NewWithClient(sqs.NewFromConfig(cfg, clientOpts...), config, log), nil
}

// NewWithClient creates an SQS transport around an existing client.
func NewWithClient(client API, config Config, log *zap.Logger) *Transport {
	return &Transport{
		client: client,
		config: config,
		log:    log,
	}
}

// Send publishes one event to the queue with its name and product attached
// as message attributes for consumer-side filtering.
func (t *Transport) Send(ctx context.Context, evt *event.Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = t.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(t.config.QueueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"EventName": {
				DataType:    aws.String("String"),
				StringValue: aws.String(evt.Name),
			},
			"Product": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(evt.Product)),
			},
		},
	})
	if err != nil {
		t.log.Error("Failed to publish event to SQS",
			zap.String("message_id", evt.MessageID),
			zap.String("event_name", evt.Name),
			zap.Error(err))
		return fmt.Errorf("failed to publish event to SQS: %w", err)
	}

	t.log.Debug("Event published to SQS",
		zap.String("message_id", evt.MessageID),
		zap.String("event_name", evt.Name))

	return nil
}

// SendBatch publishes each event in turn, stopping at the first failure.
func (t *Transport) SendBatch(ctx context.Context, evts []*event.Event) error {
	for _, evt := range evts {
		if err := t.Send(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

// Flush is a no-op; messages are published as they arrive.
func (t *Transport) Flush(ctx context.Context) error {
	return nil
}

// Shutdown is a no-op; the underlying client holds no resources to drain.
func (t *Transport) Shutdown(ctx context.Context) error {
	return nil
}
