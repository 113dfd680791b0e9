// Package middleware provides the composable stage chain events flow through
// between the tracker facade and the transport.
package middleware

import "github.com/contentfactory/telemetry/event"

// Middleware is a single pipeline stage. Calling next is the only way an
// event advances; a stage that returns without calling next drops the event,
// which is the intended mechanism for sampling and deduplication and is not
// an error condition. The event passed to next may be the input event or a
// freshly built replacement.
//
// Calling next more than once is a contract violation. The chain does not
// guard against it: each extra call re-delivers the event from that position
// onward, so a violating stage produces duplicate deliveries.
type Middleware func(evt *event.Event, next func(*event.Event))

// Chain executes an ordered list of stages against one event. Stages run in
// registration order; each receives the event produced by the previous stage.
type Chain struct {
	stages []Middleware
}

// NewChain creates an empty chain.
func NewChain() *Chain {
	return &Chain{}
}

// Use appends a stage. Position 0 runs first.
func (c *Chain) Use(m Middleware) {
	c.stages = append(c.stages, m)
}

// Len returns the number of registered stages.
func (c *Chain) Len() int {
	return len(c.stages)
}

// Run drives evt through every stage and finally into terminal. An empty
// chain routes straight to terminal. Execution is fully synchronous; if a
// stage drops the event, Run returns without invoking terminal.
func (c *Chain) Run(evt *event.Event, terminal func(*event.Event)) {
	if len(c.stages) == 0 {
		terminal(evt)
		return
	}

	var advance func(index int, evt *event.Event)
	advance = func(index int, evt *event.Event) {
		if index >= len(c.stages) {
			terminal(evt)
			return
		}
		c.stages[index](evt, func(next *event.Event) {
			advance(index+1, next)
		})
	}

	advance(0, evt)
}
