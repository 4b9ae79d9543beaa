package metrics

import (
	"sort"
	"sync"
	"time"
)

// LatencyStats summarizes the latency samples recorded for a provider.
type LatencyStats struct {
	Count   int64
	Total   time.Duration
	Average time.Duration
	Min     time.Duration
	Max     time.Duration
	P50     time.Duration
	P90     time.Duration
	P95     time.Duration
	P99     time.Duration
}

// Histogram is a circular buffer of latency samples with percentile
// calculation. Min, max, and totals cover every sample ever added;
// percentiles cover the most recent capacity samples.
type Histogram struct {
	mu       sync.RWMutex
	samples  []time.Duration
	capacity int
	index    int
	count    int64
	total    time.Duration
	min      time.Duration
	max      time.Duration
}

// NewHistogram creates a histogram keeping the given number of samples.
func NewHistogram(sampleSize int) *Histogram {
	if sampleSize <= 0 {
		sampleSize = 1000
	}
	return &Histogram{
		samples:  make([]time.Duration, sampleSize),
		capacity: sampleSize,
	}
}

// Add records a latency sample.
func (h *Histogram) Add(latency time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.samples[h.index] = latency
	h.index = (h.index + 1) % h.capacity
	h.count++
	h.total += latency

	if h.min == 0 || latency < h.min {
		h.min = latency
	}
	if latency > h.max {
		h.max = latency
	}
}

// Stats returns the current latency statistics.
func (h *Histogram) Stats() LatencyStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 {
		return LatencyStats{}
	}

	sampleCount := int(h.count)
	if sampleCount > h.capacity {
		sampleCount = h.capacity
	}
	samples := make([]time.Duration, sampleCount)
	copy(samples, h.samples[:sampleCount])

	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })

	return LatencyStats{
		Count:   h.count,
		Total:   h.total,
		Average: h.total / time.Duration(h.count),
		Min:     h.min,
		Max:     h.max,
		P50:     percentile(samples, 50),
		P90:     percentile(samples, 90),
		P95:     percentile(samples, 95),
		P99:     percentile(samples, 99),
	}
}

// Reset clears all samples.
func (h *Histogram) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.samples = make([]time.Duration, h.capacity)
	h.index = 0
	h.count = 0
	h.total = 0
	h.min = 0
	h.max = 0
}

// percentile returns the value at the given percentile of sorted samples,
// interpolating between the two closest ranks.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	if p <= 0 {
		return sorted[0]
	}

	rank := float64(p) / 100.0 * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	fraction := rank - float64(lower)
	interpolated := float64(sorted[lower]) + fraction*float64(sorted[upper]-sorted[lower])
	return time.Duration(interpolated)
}
