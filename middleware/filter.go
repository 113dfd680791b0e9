package middleware

import "github.com/contentfactory/telemetry/event"

// WithSensitiveFilter removes the named property keys before delivery. The
// filter is shallow: nested values under a kept key pass through unfiltered.
// It is a data-loss-prevention guard, not a deep redaction engine.
func WithSensitiveFilter(keys ...string) Middleware {
	blocked := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		blocked[key] = struct{}{}
	}

	return func(evt *event.Event, next func(*event.Event)) {
		props := make(event.Properties, len(evt.Properties))
		for key, value := range evt.Properties {
			if _, ok := blocked[key]; ok {
				continue
			}
			props[key] = value
		}
		evt.Properties = props
		next(evt)
	}
}
