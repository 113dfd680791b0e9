package middleware

import (
	"math/rand"

	"github.com/contentfactory/telemetry/event"
)

// WithSampling forwards each event with probability rate and silently drops
// the rest. The rate must be in [0,1]; anything else fails construction.
// Draws are not seeded: sampling is a volume-reduction device, not a
// reproducibility mechanism.
func WithSampling(rate float64) (Middleware, error) {
	if rate < 0 || rate > 1 {
		return nil, &event.ConfigurationError{Param: "sampling rate", Reason: "must be within [0,1]"}
	}

	return func(evt *event.Event, next func(*event.Event)) {
		if rand.Float64() < rate {
			next(evt)
		}
	}, nil
}
