// Package base provides the shared plumbing for provider adapters: request
// counters, option resolution, response normalization, and rate limit
// bookkeeping. Adapters embed BaseProvider by pointer and override the
// identity methods.
package base

import (
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cecil-the-coder/llm-fallback/internal/httpclient"
	"github.com/cecil-the-coder/llm-fallback/pkg/ratelimit"
	"github.com/cecil-the-coder/llm-fallback/pkg/types"
)

// BaseProvider carries the state every adapter shares.
type BaseProvider struct {
	name    string
	config  types.ProviderConfig
	client  *httpclient.Client
	logger  *zap.Logger
	tracker *ratelimit.Tracker
	parser  ratelimit.Parser
	mutex   sync.RWMutex
	metrics types.ProviderMetrics
}

// NewBaseProvider creates a new base provider. A nil client gets default
// transport settings with the configured timeout; a nil logger disables
// logging.
func NewBaseProvider(name string, config types.ProviderConfig, client *httpclient.Client, logger *zap.Logger) *BaseProvider {
	if client == nil {
		client = httpclient.NewClient(httpclient.Config{Timeout: config.Timeout})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BaseProvider{
		name:    name,
		config:  config,
		client:  client,
		logger:  logger,
		tracker: ratelimit.NewTracker(),
		parser:  ratelimit.ParserFor(name),
	}
}

func (p *BaseProvider) Name() string {
	return p.name
}

func (p *BaseProvider) Type() types.ProviderType {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.config.Type
}

func (p *BaseProvider) Description() string {
	return "Text generation provider"
}

// Configure replaces the provider configuration. Adapters validate the
// config type before delegating here.
func (p *BaseProvider) Configure(config types.ProviderConfig) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.config = config
	p.logger.Debug("provider reconfigured",
		zap.String("provider", p.name),
		zap.String("default_model", config.DefaultModel),
		zap.Bool("has_credential", config.HasCredential()))
	return nil
}

// GetConfig returns a snapshot of the current provider configuration.
func (p *BaseProvider) GetConfig() types.ProviderConfig {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.config
}

// IsAvailable reports whether the provider holds a usable credential and is
// worth attempting. It never performs network I/O.
func (p *BaseProvider) IsAvailable() bool {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.config.HasCredential()
}

// CheckAvailable is the guard adapters run before building a request, so a
// provider the router would skip reports the same unconfigured error when
// called directly.
func (p *BaseProvider) CheckAvailable() error {
	if p.IsAvailable() {
		return nil
	}
	return types.NewUnconfiguredError(p.Type(), "no API key configured")
}

// Logger returns the provider's logger.
func (p *BaseProvider) Logger() *zap.Logger {
	return p.logger
}

// Client returns the provider's HTTP client.
func (p *BaseProvider) Client() *httpclient.Client {
	return p.client
}

// GetMetrics returns a snapshot of the request counters.
func (p *BaseProvider) GetMetrics() types.ProviderMetrics {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.metrics
}

// IncrementRequestCount counts an attempted generation.
func (p *BaseProvider) IncrementRequestCount() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.metrics.RequestCount++
	p.metrics.LastRequestTime = time.Now()
}

// RecordSuccess records a successful API call.
func (p *BaseProvider) RecordSuccess(latency time.Duration) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.metrics.SuccessCount++
	p.metrics.TotalLatency += latency
	p.metrics.AverageLatency = p.metrics.TotalLatency / time.Duration(p.metrics.SuccessCount)
}

// RecordError records a failed API call.
func (p *BaseProvider) RecordError(err error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.metrics.ErrorCount++
	if err != nil {
		p.metrics.LastError = err.Error()
	}
}

// UpdateHealthStatus records the outcome of a health check. The response
// time is stored in milliseconds.
func (p *BaseProvider) UpdateHealthStatus(healthy bool, message string, responseTime time.Duration) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.metrics.HealthStatus.Healthy = healthy
	p.metrics.HealthStatus.Message = message
	p.metrics.HealthStatus.LastChecked = time.Now()
	p.metrics.HealthStatus.ResponseTime = float64(responseTime) / float64(time.Millisecond)
}

// UpdateRateLimits records the rate limit headers from an API response.
// Providers without a known header scheme are a no-op. The tracked state is
// diagnostic only; it never gates a request.
func (p *BaseProvider) UpdateRateLimits(headers http.Header, model string) {
	if p.parser == nil {
		return
	}
	info, err := p.parser.Parse(headers, model)
	if err != nil || info == nil {
		return
	}
	p.tracker.Update(info)
}

// RateLimits returns the most recent rate limit info seen for model.
func (p *BaseProvider) RateLimits(model string) (*ratelimit.Info, bool) {
	return p.tracker.Get(model)
}
