package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Registry is the default in-memory Collector. It aggregates events per
// provider and exposes point-in-time snapshots. All methods are safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*providerStats

	exhaustions atomic.Int64

	firstEvent time.Time
	lastEvent  time.Time
}

// providerStats holds the aggregated counters for one provider.
type providerStats struct {
	mu sync.Mutex

	attempts  atomic.Int64
	successes atomic.Int64
	failures  atomic.Int64
	skips     atomic.Int64

	latency *Histogram

	errorCodes map[string]int64
	lastEvent  time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]*providerStats),
	}
}

// Record implements Collector.
func (r *Registry) Record(event Event) {
	now := time.Now()
	if event.Timestamp.IsZero() {
		event.Timestamp = now
	}

	r.mu.Lock()
	if r.firstEvent.IsZero() {
		r.firstEvent = event.Timestamp
	}
	r.lastEvent = event.Timestamp
	r.mu.Unlock()

	if event.Kind == EventExhaustion {
		r.exhaustions.Add(1)
		return
	}

	ps := r.statsFor(event.Provider)

	switch event.Kind {
	case EventAttempt:
		ps.attempts.Add(1)
	case EventSuccess:
		ps.successes.Add(1)
		if event.Latency > 0 {
			ps.latency.Add(event.Latency)
		}
	case EventFailure:
		ps.failures.Add(1)
		if event.Latency > 0 {
			ps.latency.Add(event.Latency)
		}
	case EventSkip:
		ps.skips.Add(1)
	}

	ps.mu.Lock()
	ps.lastEvent = event.Timestamp
	if event.Kind == EventFailure && event.ErrorCode != "" {
		ps.errorCodes[event.ErrorCode]++
	}
	ps.mu.Unlock()
}

func (r *Registry) statsFor(provider string) *providerStats {
	r.mu.RLock()
	ps, exists := r.providers[provider]
	r.mu.RUnlock()
	if exists {
		return ps
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if ps, exists = r.providers[provider]; exists {
		return ps
	}
	ps = &providerStats{
		latency:    NewHistogram(1000),
		errorCodes: make(map[string]int64),
	}
	r.providers[provider] = ps
	return ps
}

// ProviderSnapshot is a point-in-time view of one provider's counters.
type ProviderSnapshot struct {
	Provider    string
	Attempts    int64
	Successes   int64
	Failures    int64
	Skips       int64
	SuccessRate float64
	Latency     LatencyStats
	ErrorCodes  map[string]int64
	LastEvent   time.Time
}

// Snapshot is a point-in-time view of the whole registry.
type Snapshot struct {
	TotalAttempts  int64
	TotalSuccesses int64
	TotalFailures  int64
	TotalSkips     int64
	Exhaustions    int64
	SuccessRate    float64
	Providers      map[string]ProviderSnapshot
	FirstEvent     time.Time
	LastEvent      time.Time
}

// Snapshot returns the current aggregated state.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := Snapshot{
		Exhaustions: r.exhaustions.Load(),
		Providers:   make(map[string]ProviderSnapshot, len(r.providers)),
		FirstEvent:  r.firstEvent,
		LastEvent:   r.lastEvent,
	}

	for name, ps := range r.providers {
		p := ps.snapshot(name)
		snap.TotalAttempts += p.Attempts
		snap.TotalSuccesses += p.Successes
		snap.TotalFailures += p.Failures
		snap.TotalSkips += p.Skips
		snap.Providers[name] = p
	}

	snap.SuccessRate = rate(snap.TotalSuccesses, snap.TotalAttempts)
	return snap
}

// ProviderNames returns the tracked providers in sorted order.
func (r *Registry) ProviderNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset clears all aggregated state.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers = make(map[string]*providerStats)
	r.exhaustions.Store(0)
	r.firstEvent = time.Time{}
	r.lastEvent = time.Time{}
}

func (ps *providerStats) snapshot(name string) ProviderSnapshot {
	ps.mu.Lock()
	errorCodes := make(map[string]int64, len(ps.errorCodes))
	for code, count := range ps.errorCodes {
		errorCodes[code] = count
	}
	lastEvent := ps.lastEvent
	ps.mu.Unlock()

	attempts := ps.attempts.Load()
	successes := ps.successes.Load()

	return ProviderSnapshot{
		Provider:    name,
		Attempts:    attempts,
		Successes:   successes,
		Failures:    ps.failures.Load(),
		Skips:       ps.skips.Load(),
		SuccessRate: rate(successes, attempts),
		Latency:     ps.latency.Stats(),
		ErrorCodes:  errorCodes,
		LastEvent:   lastEvent,
	}
}

func rate(numerator, denominator int64) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}
