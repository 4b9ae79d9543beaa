package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector exports fallback events to a Prometheus registry.
// Attempts, successes, failures, and skips land in one counter labeled by
// provider and kind; latencies of completed attempts feed a per-provider
// histogram.
type PrometheusCollector struct {
	attempts    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	exhaustions prometheus.Counter
}

// NewPrometheusCollector creates a collector registered against reg. Passing
// nil registers against the default registry.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusCollector{
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_fallback_events_total",
				Help: "Fallback events by provider and kind (attempt, success, failure, skip).",
			},
			[]string{"provider", "kind"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_fallback_attempt_duration_seconds",
				Help:    "Duration of completed generation attempts per provider.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"provider"},
		),
		exhaustions: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "llm_fallback_exhaustions_total",
				Help: "Generations where every provider was consumed without success.",
			},
		),
	}
}

// Record implements Collector.
func (p *PrometheusCollector) Record(event Event) {
	if event.Kind == EventExhaustion {
		p.exhaustions.Inc()
		return
	}

	p.attempts.WithLabelValues(event.Provider, string(event.Kind)).Inc()

	if event.Latency > 0 && (event.Kind == EventSuccess || event.Kind == EventFailure) {
		p.latency.WithLabelValues(event.Provider).Observe(event.Latency.Seconds())
	}
}
