package middleware

import (
	"sync"
	"time"

	"github.com/contentfactory/telemetry/event"
)

// dedupState is the cache behind WithDedup. Entries are process-local and
// never persisted; the cache absorbs double-fires from UI double-clicks and
// redundant instrumentation call sites, it does not provide exactly-once
// delivery across restarts.
type dedupState struct {
	mu       sync.Mutex
	window   time.Duration
	lastSeen map[string]time.Time
	now      func() time.Time
}

// WithDedup suppresses events whose name and properties were already seen
// within the given window. The content hash uses canonical serialization, so
// property insertion order does not affect matching. Register this stage
// after enrichment middleware so it observes the fully-enriched event.
func WithDedup(window time.Duration) Middleware {
	state := &dedupState{
		window:   window,
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}

	return func(evt *event.Event, next func(*event.Event)) {
		if state.seen(event.ContentHash(evt.Name, evt.Properties)) {
			return
		}
		next(evt)
	}
}

// seen prunes expired entries, then records and reports the hash. Pruning is
// O(cache size) per call, acceptable at client-side event volumes.
func (s *dedupState) seen(hash string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, at := range s.lastSeen {
		if now.Sub(at) > s.window {
			delete(s.lastSeen, key)
		}
	}

	if _, ok := s.lastSeen[hash]; ok {
		return true
	}
	s.lastSeen[hash] = now
	return false
}
