// Package metrics records what happens during fallback generation: every
// provider attempt, its outcome, and chain exhaustion. The core types carry
// no dependencies; exporters (Prometheus) plug in behind the Collector
// interface so callers that want no metrics pay nothing.
package metrics

import (
	"time"
)

// EventKind classifies a single fallback event.
type EventKind string

const (
	// EventAttempt marks the start of a generation attempt on a provider.
	EventAttempt EventKind = "attempt"

	// EventSuccess marks an attempt that returned text.
	EventSuccess EventKind = "success"

	// EventFailure marks an attempt that returned an error.
	EventFailure EventKind = "failure"

	// EventSkip marks a provider passed over because it was unavailable.
	EventSkip EventKind = "skip"

	// EventExhaustion marks a generation where every provider was consumed
	// without producing text.
	EventExhaustion EventKind = "exhaustion"
)

// Event describes one step of a fallback generation.
type Event struct {
	Kind       EventKind
	Provider   string
	Model      string
	Latency    time.Duration
	ErrorCode  string
	StatusCode int
	Timestamp  time.Time
}

// Collector receives fallback events. Implementations must be safe for
// concurrent use and must not block; the router calls Record on the
// generation path.
type Collector interface {
	Record(event Event)
}

// NopCollector discards all events.
type NopCollector struct{}

// Record implements Collector.
func (NopCollector) Record(Event) {}

// fanout broadcasts events to several collectors.
type fanout []Collector

func (f fanout) Record(event Event) {
	for _, c := range f {
		c.Record(event)
	}
}

// Fanout combines collectors into one that forwards every event to all of
// them. Nil entries are dropped.
func Fanout(collectors ...Collector) Collector {
	out := make(fanout, 0, len(collectors))
	for _, c := range collectors {
		if c != nil {
			out = append(out, c)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}
