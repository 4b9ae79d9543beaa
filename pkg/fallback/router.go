// Package fallback routes a generation request across an ordered chain of
// providers, trying each in turn until one succeeds. The policy is strictly
// sequential and first-success-wins: no racing, no retries against the same
// provider, no reordering. Unavailable providers are skipped without an
// attempt; a provider that fails is abandoned for the rest of the call.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cecil-the-coder/llm-fallback/pkg/metrics"
	"github.com/cecil-the-coder/llm-fallback/pkg/types"
)

// Router holds the ordered provider chain and executes the fallback policy.
// List order is priority order. Concurrent Generate calls are safe alongside
// AddProvider and SetProviders: each call iterates a snapshot of the chain.
type Router struct {
	mu        sync.RWMutex
	providers []types.Provider

	logger    *zap.Logger
	collector metrics.Collector
}

// Option configures a Router.
type Option func(*Router)

// WithProviders sets the initial chain in priority order.
func WithProviders(providers ...types.Provider) Option {
	return func(r *Router) {
		r.providers = append([]types.Provider(nil), providers...)
	}
}

// WithLogger attaches a logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics attaches an event collector. The default discards everything.
func WithMetrics(collector metrics.Collector) Option {
	return func(r *Router) {
		if collector != nil {
			r.collector = collector
		}
	}
}

// New creates a Router. With no options the chain is empty and every Generate
// fails with an AllProvidersFailedError naming zero attempts; use
// factory.NewDefaultRouter for the environment-configured default chain.
func New(opts ...Option) *Router {
	r := &Router{
		logger:    zap.NewNop(),
		collector: metrics.NopCollector{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Generate walks the provider chain in order and returns the first successful
// result. Unavailable providers are skipped; failed providers are recorded
// and abandoned. When the chain is exhausted the returned error is an
// *AllProvidersFailedError aggregating every skip and failure. A canceled
// context stops the scan early with the context error, not the aggregate one.
func (r *Router) Generate(ctx context.Context, prompt string, opts types.GenerateOptions) (string, error) {
	providers := r.Providers()
	attempts := make([]Attempt, 0, len(providers))

	for i, provider := range providers {
		if err := ctx.Err(); err != nil {
			r.logger.Debug("generation abandoned",
				zap.Int("providers_considered", i),
				zap.Int("providers_total", len(providers)),
				zap.Error(err))
			return "", fmt.Errorf("generation canceled after considering %d of %d providers: %w",
				i, len(providers), err)
		}

		name := provider.Name()
		if !provider.IsAvailable() {
			r.logger.Debug("provider unavailable, skipping",
				zap.String("provider", name))
			r.record(metrics.Event{Kind: metrics.EventSkip, Provider: name, Model: opts.Model})
			attempts = append(attempts, Attempt{Provider: name, Type: provider.Type(), Skipped: true})
			continue
		}

		r.record(metrics.Event{Kind: metrics.EventAttempt, Provider: name, Model: opts.Model})

		start := time.Now()
		text, err := provider.Generate(ctx, prompt, opts)
		latency := time.Since(start)

		if err == nil {
			r.record(metrics.Event{
				Kind:     metrics.EventSuccess,
				Provider: name,
				Model:    opts.Model,
				Latency:  latency,
			})
			if len(attempts) > 0 {
				r.logger.Info("provider succeeded after fallback",
					zap.String("provider", name),
					zap.Int("position", i+1),
					zap.Int("providers_passed_over", len(attempts)),
					zap.Duration("latency", latency))
			} else {
				r.logger.Debug("provider succeeded",
					zap.String("provider", name),
					zap.Duration("latency", latency))
			}
			return text, nil
		}

		r.logger.Warn("provider attempt failed",
			zap.String("provider", name),
			zap.Duration("latency", latency),
			zap.Error(err))
		r.record(errorEvent(name, opts.Model, err, latency))
		attempts = append(attempts, Attempt{Provider: name, Type: provider.Type(), Err: err})
	}

	failed := &AllProvidersFailedError{Attempts: attempts}
	r.logger.Error("all providers failed",
		zap.Int("attempted", failed.Failed()),
		zap.Int("skipped", failed.SkippedCount()))
	r.record(metrics.Event{Kind: metrics.EventExhaustion, Model: opts.Model})
	return "", failed
}

// AddProvider appends a provider to the end of the chain, giving it the
// lowest priority. Duplicates are not rejected.
func (r *Router) AddProvider(provider types.Provider) {
	if provider == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = append(r.providers, provider)
}

// SetProviders replaces the entire chain. The previous chain is discarded,
// not merged; nil or empty wipes the chain.
func (r *Router) SetProviders(providers []types.Provider) {
	next := append([]types.Provider(nil), providers...)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = next
}

// Providers returns a copy of the current chain in priority order.
func (r *Router) Providers() []types.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]types.Provider(nil), r.providers...)
}

// ProviderNames returns the chain's provider names in priority order.
func (r *Router) ProviderNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}

func (r *Router) record(event metrics.Event) {
	event.Timestamp = time.Now()
	r.collector.Record(event)
}

// errorEvent builds the failure event for an attempt, lifting the error code
// and status out of a ProviderError when there is one.
func errorEvent(provider, model string, err error, latency time.Duration) metrics.Event {
	event := metrics.Event{
		Kind:     metrics.EventFailure,
		Provider: provider,
		Model:    model,
		Latency:  latency,
	}
	var perr *types.ProviderError
	if errors.As(err, &perr) {
		event.ErrorCode = string(perr.Code)
		event.StatusCode = perr.StatusCode
	}
	return event
}
