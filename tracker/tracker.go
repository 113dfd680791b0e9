// Package tracker is the public entry point of the telemetry pipeline.
// Application code builds one Tracker per process, registers middleware, and
// calls Track and friends; the tracker validates, enriches, runs the
// middleware chain, and hands finished events to the transport.
package tracker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/contentfactory/telemetry/event"
	"github.com/contentfactory/telemetry/middleware"
	"github.com/contentfactory/telemetry/transport"
)

// Reserved event names emitted by Identify, Group, and Page.
const (
	EventIdentify = "$identify"
	EventGroup    = "$group"
	EventPageView = "page_view"
)

// Options configures a Tracker.
type Options struct {
	// Product is stamped onto every event this tracker emits.
	Product event.Product

	// DefaultContext is merged under every per-call context override.
	DefaultContext event.Context

	// Debug writes every terminal (post-middleware) event to the logger
	// before delivery. It never blocks or alters delivery.
	Debug bool

	// Logger defaults to a no-op logger.
	Logger *zap.Logger

	// Transport is the delivery backend. Required.
	Transport transport.Transport
}

// Tracker translates caller intent into validated, uniquely-identified
// events and drives them through the middleware chain to the transport.
// Tracking calls are fire-and-forget: delivery failures surface only from
// Flush and Shutdown.
type Tracker struct {
	product        event.Product
	defaultContext event.Context
	debug          bool
	log            *zap.Logger
	transport      transport.Transport
	chain          *middleware.Chain

	inflight sync.WaitGroup
	closed   atomic.Bool
}

// New creates a tracker. The transport is required; everything else has a
// usable default.
func New(opts Options) (*Tracker, error) {
	if opts.Transport == nil {
		return nil, &event.ConfigurationError{Param: "transport", Reason: "must not be nil"}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Tracker{
		product:        opts.Product,
		defaultContext: opts.DefaultContext,
		debug:          opts.Debug,
		log:            opts.Logger,
		transport:      opts.Transport,
		chain:          middleware.NewChain(),
	}, nil
}

// Use appends a middleware stage. Registration order is execution order, so
// stages that need a fully-enriched event (deduplication in particular)
// belong after enrichment stages. Returns the tracker for fluent chaining.
func (t *Tracker) Use(m middleware.Middleware) *Tracker {
	t.chain.Use(m)
	return t
}

// TrackOption adjusts a single tracking call.
type TrackOption func(*event.RawInput)

// WithContext overrides context fields for this call. Override values win on
// key conflict; unset fields inherit from the tracker's default context.
func WithContext(ctx event.Context) TrackOption {
	return func(raw *event.RawInput) {
		raw.Context = raw.Context.Merge(ctx)
	}
}

// WithUserID attaches the known user identity.
func WithUserID(userID string) TrackOption {
	return func(raw *event.RawInput) {
		raw.UserID = userID
	}
}

// WithAnonymousID attaches a pre-identity visitor id.
func WithAnonymousID(anonymousID string) TrackOption {
	return func(raw *event.RawInput) {
		raw.AnonymousID = anonymousID
	}
}

// WithTimestamp supplies the event time instead of the ingestion time.
func WithTimestamp(ts time.Time) TrackOption {
	return func(raw *event.RawInput) {
		raw.Timestamp = ts
	}
}

// Track validates and emits one event. A validation failure is returned
// synchronously and nothing is delivered; transport-level failures are not
// surfaced here by design, since instrumentation must never crash
// application logic.
func (t *Tracker) Track(name string, properties event.Properties, opts ...TrackOption) error {
	raw := &event.RawInput{
		Name:       name,
		Properties: properties,
		Context:    t.defaultContext,
		Product:    t.product,
	}
	for _, opt := range opts {
		opt(raw)
	}
	if raw.Properties == nil {
		raw.Properties = event.Properties{}
	}

	if err := raw.Validate(); err != nil {
		return err
	}

	enriched := &event.Event{
		MessageID:   uuid.NewString(),
		Name:        raw.Name,
		Properties:  raw.Properties,
		Context:     raw.Context,
		UserID:      raw.UserID,
		AnonymousID: raw.AnonymousID,
		Product:     raw.Product,
		Timestamp:   raw.Timestamp,
	}
	if enriched.Timestamp.IsZero() {
		enriched.Timestamp = time.Now().UTC()
	}

	// Defense in depth: the enriched form is validated too.
	if err := enriched.Validate(); err != nil {
		return err
	}

	t.chain.Run(enriched, t.deliver)
	return nil
}

// Identify emits the reserved $identify event carrying the user's traits.
func (t *Tracker) Identify(userID string, traits event.Properties) error {
	return t.Track(EventIdentify, traits, WithUserID(userID))
}

// Group emits the reserved $group event associating the user with a group.
func (t *Tracker) Group(groupID string, traits event.Properties) error {
	props := traits.Copy()
	props["groupId"] = groupID
	return t.Track(EventGroup, props)
}

// Page is sugar for Track("page_view", {...properties, name}).
func (t *Tracker) Page(name string, properties event.Properties, opts ...TrackOption) error {
	props := properties.Copy()
	props["name"] = name
	return t.Track(EventPageView, props, opts...)
}

// deliver is the chain's terminal action: an unawaited asynchronous send.
// Chain execution is synchronous; delivery completion is observable only via
// Flush.
func (t *Tracker) deliver(evt *event.Event) {
	if t.debug {
		t.log.Debug("Tracking event",
			zap.String("message_id", evt.MessageID),
			zap.String("event_name", evt.Name),
			zap.String("product", string(evt.Product)),
			zap.Any("properties", evt.Properties))
	}

	t.inflight.Add(1)
	go func() {
		defer t.inflight.Done()
		if err := t.transport.Send(context.Background(), evt); err != nil {
			t.log.Warn("Failed to send event",
				zap.String("message_id", evt.MessageID),
				zap.String("event_name", evt.Name),
				zap.Error(err))
		}
	}()
}

// Flush waits for in-flight sends to be handed to the transport, then drains
// the transport's buffer. The returned error reflects transport-level
// delivery success. Flushing with nothing buffered is a no-op.
func (t *Tracker) Flush(ctx context.Context) error {
	t.inflight.Wait()
	return t.transport.Flush(ctx)
}

// Shutdown flushes and releases the transport. Calling it again is a no-op
// and never double-sends.
func (t *Tracker) Shutdown(ctx context.Context) error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	t.inflight.Wait()
	return t.transport.Shutdown(ctx)
}
