package types

import (
	"context"
	"strings"
	"time"
)

// ProviderType identifies a text-generation backend.
type ProviderType string

const (
	ProviderTypeOpenRouter ProviderType = "openrouter"
	ProviderTypeGemini     ProviderType = "gemini"
	ProviderTypeDeepSeek   ProviderType = "deepseek"
	ProviderTypeCohere     ProviderType = "cohere"

	// ProviderTypeCustom marks externally supplied Provider implementations
	// that are not part of the built-in adapter set.
	ProviderTypeCustom ProviderType = "custom"
)

// ProviderConfig represents configuration for a specific provider.
// Adapters merge this with their built-in defaults at construction time.
type ProviderConfig struct {
	Type         ProviderType  `json:"type"`
	Name         string        `json:"name"`
	BaseURL      string        `json:"base_url,omitempty"`
	APIKey       string        `json:"api_key,omitempty"`
	DefaultModel string        `json:"default_model,omitempty"`
	Temperature  float64       `json:"temperature,omitempty"`
	MaxTokens    int           `json:"max_tokens,omitempty"`
	Timeout      time.Duration `json:"timeout,omitempty"`

	// Site identification metadata. Sent as the HTTP-Referer and X-Title
	// headers by providers that require them (OpenRouter); ignored elsewhere.
	SiteURL  string `json:"site_url,omitempty"`
	SiteName string `json:"site_name,omitempty"`

	// Extra holds provider-specific settings that have no universal field,
	// e.g. "requests_per_minute" for the Gemini client-side limiter.
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// HasCredential reports whether the config carries a usable API key.
// A key that is empty, whitespace, or an unexpanded "${ENV_VAR}" placeholder
// left behind by config templating does not count.
func (c ProviderConfig) HasCredential() bool {
	key := strings.TrimSpace(c.APIKey)
	if key == "" {
		return false
	}
	return !strings.HasPrefix(key, "${")
}

// HealthStatus represents the outcome of a provider health check.
type HealthStatus struct {
	Healthy      bool      `json:"healthy"`
	LastChecked  time.Time `json:"last_checked"`
	Message      string    `json:"message"`
	ResponseTime float64   `json:"response_time"`
}

// ProviderMetrics represents request counters tracked per provider.
type ProviderMetrics struct {
	RequestCount    int64         `json:"request_count"`
	SuccessCount    int64         `json:"success_count"`
	ErrorCount      int64         `json:"error_count"`
	TotalLatency    time.Duration `json:"total_latency"`
	AverageLatency  time.Duration `json:"average_latency"`
	LastRequestTime time.Time     `json:"last_request_time"`
	LastError       string        `json:"last_error"`
	HealthStatus    HealthStatus  `json:"health_status"`
}

// ============================================================================
// Interface Segregation - Focused Provider Interfaces
// ============================================================================

// CoreProvider defines the essential identity methods that all providers
// must implement.
type CoreProvider interface {
	Name() string
	Type() ProviderType
	Description() string
}

// Generator defines the text-generation capability. Generate blocks until the
// remote call resolves or ctx is done. On success the returned text is
// normalized: vendor markup is stripped and an empty-but-successful response
// is replaced with EmptyResponseText, so callers never receive "".
//
// Generate makes exactly one attempt. Failures are reported as *ProviderError:
// ErrCodeUnconfigured when the provider has no usable credential (checked
// before any network I/O), or a call-failure code (authentication, rate_limit,
// network, ...) for an attempted call that did not produce text.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// ConfigurableProvider defines methods for configuration management.
type ConfigurableProvider interface {
	Configure(config ProviderConfig) error
	GetConfig() ProviderConfig
}

// HealthChecker is an optional capability for providers that can verify
// connectivity with a live request. The fallback router never calls it;
// routing decisions use only the network-free IsAvailable predicate.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Provider is the complete contract a backend must satisfy to participate in
// fallback routing.
//
// IsAvailable is a local predicate: it reports whether the provider is worth
// attempting (a usable credential is configured). It must not perform network
// I/O and must be stable between configuration changes. The router consults it
// before every Generate attempt; adapters re-check it inside Generate so
// direct callers get the same behavior.
type Provider interface {
	CoreProvider
	Generator
	ConfigurableProvider

	IsAvailable() bool
}
