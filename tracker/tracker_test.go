package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/contentfactory/telemetry/event"
	"github.com/contentfactory/telemetry/middleware"
	"github.com/contentfactory/telemetry/transport/memory"
)

func newTestTracker(t *testing.T, opts Options) (*Tracker, *memory.Transport) {
	t.Helper()

	recorder := memory.New()
	if opts.Transport == nil {
		opts.Transport = recorder
	}
	if opts.Product == "" {
		opts.Product = event.ProductContentFactory
	}

	tr, err := New(opts)
	require.NoError(t, err)
	return tr, recorder
}

func TestNew_RequiresTransport(t *testing.T) {
	_, err := New(Options{Product: event.ProductContentFactory})

	var cerr *event.ConfigurationError
	require.ErrorAs(t, err, &cerr)
}

func TestTrack_AssignsUniqueMessageIDs(t *testing.T) {
	tr, recorder := newTestTracker(t, Options{})

	for i := 0; i < 50; i++ {
		require.NoError(t, tr.Track("button_click", event.Properties{"i": i}))
	}
	require.NoError(t, tr.Flush(context.Background()))

	events := recorder.Events()
	require.Len(t, events, 50)

	seen := make(map[string]struct{}, len(events))
	for _, evt := range events {
		assert.NotEmpty(t, evt.MessageID)
		_, duplicate := seen[evt.MessageID]
		assert.False(t, duplicate, "message id %s reused", evt.MessageID)
		seen[evt.MessageID] = struct{}{}
	}
}

func TestTrack_AssignsTimestampWhenAbsent(t *testing.T) {
	tr, recorder := newTestTracker(t, Options{})

	before := time.Now().UTC()
	require.NoError(t, tr.Track("button_click", nil))
	require.NoError(t, tr.Flush(context.Background()))

	events := recorder.Events()
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.Before(before))
	assert.NotNil(t, events[0].Properties)
}

func TestTrack_PreservesCallerTimestamp(t *testing.T) {
	tr, recorder := newTestTracker(t, Options{})

	supplied := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	require.NoError(t, tr.Track("button_click", nil, WithTimestamp(supplied)))
	require.NoError(t, tr.Flush(context.Background()))

	events := recorder.Events()
	require.Len(t, events, 1)
	assert.Equal(t, supplied, events[0].Timestamp)
}

func TestTrack_ValidationFailuresSurfaceSynchronously(t *testing.T) {
	tr, recorder := newTestTracker(t, Options{})

	var verr *event.ValidationError
	require.ErrorAs(t, tr.Track("", nil), &verr)
	assert.Equal(t, "event", verr.Field)

	badProduct, _ := newTestTracker(t, Options{Product: event.Product("legacy-app")})
	require.ErrorAs(t, badProduct.Track("button_click", nil), &verr)
	assert.Equal(t, "product", verr.Field)

	require.NoError(t, tr.Flush(context.Background()))
	assert.Empty(t, recorder.Events())
}

func TestTrack_MergesDefaultAndCallContext(t *testing.T) {
	tr, recorder := newTestTracker(t, Options{
		DefaultContext: event.Context{
			Page:   event.Page{URL: "https://app.example.com", Title: "App"},
			Locale: "en-US",
		},
	})

	err := tr.Track("button_click", nil, WithContext(event.Context{
		Page: event.Page{Path: "/reports"},
	}))
	require.NoError(t, err)
	require.NoError(t, tr.Flush(context.Background()))

	events := recorder.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "https://app.example.com", events[0].Context.Page.URL)
	assert.Equal(t, "/reports", events[0].Context.Page.Path)
	assert.Equal(t, "en-US", events[0].Context.Locale)
}

func TestIdentify_EmitsReservedEvent(t *testing.T) {
	tr, recorder := newTestTracker(t, Options{})

	require.NoError(t, tr.Identify("user-42", event.Properties{"plan": "pro"}))
	require.NoError(t, tr.Flush(context.Background()))

	events := recorder.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventIdentify, events[0].Name)
	assert.Equal(t, "user-42", events[0].UserID)
	assert.Equal(t, "pro", events[0].Properties["plan"])
}

func TestGroup_EmitsReservedEvent(t *testing.T) {
	tr, recorder := newTestTracker(t, Options{})

	require.NoError(t, tr.Group("org-7", event.Properties{"tier": "enterprise"}))
	require.NoError(t, tr.Flush(context.Background()))

	events := recorder.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventGroup, events[0].Name)
	assert.Equal(t, "org-7", events[0].Properties["groupId"])
	assert.Equal(t, "enterprise", events[0].Properties["tier"])
}

func TestPage_IsSugarForTrack(t *testing.T) {
	tr, recorder := newTestTracker(t, Options{})

	require.NoError(t, tr.Page("dashboard", event.Properties{"section": "reports"}))
	require.NoError(t, tr.Flush(context.Background()))

	events := recorder.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventPageView, events[0].Name)
	assert.Equal(t, "dashboard", events[0].Properties["name"])
	assert.Equal(t, "reports", events[0].Properties["section"])
}

func TestUse_RegistrationOrderIsExecutionOrder(t *testing.T) {
	tr, recorder := newTestTracker(t, Options{})

	var order []string
	stage := func(name string) middleware.Middleware {
		return func(evt *event.Event, next func(*event.Event)) {
			order = append(order, name)
			next(evt)
		}
	}

	tr.Use(stage("first")).Use(stage("second"))

	require.NoError(t, tr.Track("button_click", nil))
	require.NoError(t, tr.Flush(context.Background()))

	assert.Equal(t, []string{"first", "second"}, order)
	assert.Len(t, recorder.Events(), 1)
}

func TestTrack_DroppingMiddlewareIsNotAnError(t *testing.T) {
	tr, recorder := newTestTracker(t, Options{})

	tr.Use(func(evt *event.Event, next func(*event.Event)) {
		// Drop everything.
	})

	require.NoError(t, tr.Track("button_click", nil))
	require.NoError(t, tr.Flush(context.Background()))
	assert.Empty(t, recorder.Events())
}

func TestTrack_DedupScenario(t *testing.T) {
	tr, recorder := newTestTracker(t, Options{})
	tr.Use(middleware.WithDedup(time.Second))

	// Two identical calls within 100ms: exactly one reaches the transport.
	require.NoError(t, tr.Track("button_click", event.Properties{"label": "save"}))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, tr.Track("button_click", event.Properties{"label": "save"}))

	require.NoError(t, tr.Flush(context.Background()))
	assert.Len(t, recorder.Events(), 1)
}

type failingTransport struct {
	sendErr  error
	flushErr error
}

func (f *failingTransport) Send(ctx context.Context, evt *event.Event) error {
	return f.sendErr
}

func (f *failingTransport) SendBatch(ctx context.Context, evts []*event.Event) error {
	return f.sendErr
}

func (f *failingTransport) Flush(ctx context.Context) error {
	return f.flushErr
}

func (f *failingTransport) Shutdown(ctx context.Context) error {
	return f.flushErr
}

func TestTrack_DeliveryFailureIsNotSurfaced(t *testing.T) {
	failing := &failingTransport{
		sendErr:  errors.New("collector unreachable"),
		flushErr: errors.New("collector unreachable"),
	}

	tr, err := New(Options{
		Product:   event.ProductContentFactory,
		Transport: failing,
		Logger:    zap.NewNop(),
	})
	require.NoError(t, err)

	// Fire-and-forget: the send failure never reaches the Track caller.
	assert.NoError(t, tr.Track("button_click", nil))

	// Delivery guarantees are only available via Flush.
	assert.Error(t, tr.Flush(context.Background()))
}

func TestFlush_IsIdempotent(t *testing.T) {
	tr, recorder := newTestTracker(t, Options{})

	require.NoError(t, tr.Track("button_click", nil))
	require.NoError(t, tr.Flush(context.Background()))
	require.NoError(t, tr.Flush(context.Background()))

	assert.Len(t, recorder.Events(), 1)
	assert.Equal(t, 2, recorder.FlushCalls())
}

func TestShutdown_CalledTwiceDoesNotError(t *testing.T) {
	tr, recorder := newTestTracker(t, Options{})

	require.NoError(t, tr.Track("button_click", nil))
	require.NoError(t, tr.Shutdown(context.Background()))
	require.NoError(t, tr.Shutdown(context.Background()))

	assert.Len(t, recorder.Events(), 1)
}

func TestTrack_DebugModeDoesNotAlterDelivery(t *testing.T) {
	tr, recorder := newTestTracker(t, Options{Debug: true, Logger: zap.NewNop()})

	require.NoError(t, tr.Track("button_click", event.Properties{"label": "save"}))
	require.NoError(t, tr.Flush(context.Background()))

	assert.Len(t, recorder.Events(), 1)
}
