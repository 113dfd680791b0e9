package middleware

import (
	"github.com/google/uuid"

	"github.com/contentfactory/telemetry/event"
)

// WithSession stamps a session identifier into properties.sessionId on every
// event. One id is generated when the middleware is constructed and stays
// stable for the life of that instance; construct a fresh instance to start a
// new session.
func WithSession() Middleware {
	sessionID := uuid.NewString()

	return func(evt *event.Event, next func(*event.Event)) {
		props := evt.Properties.Copy()
		props["sessionId"] = sessionID
		evt.Properties = props
		next(evt)
	}
}
