package middleware

import (
	"time"

	"github.com/contentfactory/telemetry/event"
)

// WithTimestamp fills in the event timestamp when absent. A caller-supplied
// timestamp is never overwritten.
func WithTimestamp() Middleware {
	return func(evt *event.Event, next func(*event.Event)) {
		if evt.Timestamp.IsZero() {
			evt.Timestamp = time.Now().UTC()
		}
		next(evt)
	}
}
