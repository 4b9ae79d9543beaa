// Package ratelimit parses and tracks the rate limit headers returned by
// text generation APIs. Each provider communicates limits in its own header
// scheme, so every provider gets its own Parser. The tracked state is purely
// diagnostic: it reports quota standing but never gates or schedules a
// request.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Info contains rate limit information captured from a single API response.
type Info struct {
	// Provider is the provider identifier (e.g., "openrouter", "cohere")
	Provider string `json:"provider"`

	// Model is the model the request was made against
	Model string `json:"model"`

	// Timestamp is when this information was captured
	Timestamp time.Time `json:"timestamp"`

	// RequestsLimit is the maximum number of requests allowed in the current window
	RequestsLimit int `json:"requests_limit"`

	// RequestsRemaining is the number of requests remaining in the current window
	RequestsRemaining int `json:"requests_remaining"`

	// RequestsReset is when the request counter resets
	RequestsReset time.Time `json:"requests_reset"`

	// TokensLimit is the maximum number of tokens allowed in the current window
	TokensLimit int `json:"tokens_limit"`

	// TokensRemaining is the number of tokens remaining in the current window
	TokensRemaining int `json:"tokens_remaining"`

	// TokensReset is when the token counter resets
	TokensReset time.Time `json:"tokens_reset"`

	// CreditsLimit is the maximum credits available (OpenRouter)
	CreditsLimit float64 `json:"credits_limit,omitempty"`

	// CreditsRemaining is the number of credits remaining (OpenRouter)
	CreditsRemaining float64 `json:"credits_remaining,omitempty"`

	// IsFreeTier indicates a free tier account (OpenRouter)
	IsFreeTier bool `json:"is_free_tier,omitempty"`

	// RequestID identifies the request that produced this info
	RequestID string `json:"request_id,omitempty"`

	// RetryAfter is the wait the provider asked for, from the Retry-After header
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// Parser extracts rate limit information from provider response headers.
type Parser interface {
	// Parse extracts rate limit information from HTTP response headers.
	// Implementations never fail on missing headers; absent fields stay at
	// their zero values.
	Parse(headers http.Header, model string) (*Info, error)

	// ProviderName returns the provider this parser handles.
	ProviderName() string
}

// ParserFor returns the parser for the named provider, or nil when the
// provider has no known header scheme.
func ParserFor(provider string) Parser {
	switch provider {
	case "openrouter":
		return NewOpenRouterParser()
	case "gemini":
		return NewGeminiParser()
	case "deepseek":
		return NewDeepSeekParser()
	case "cohere":
		return NewCohereParser()
	default:
		return nil
	}
}

// RetryAfter reads the Retry-After header, accepting both delta seconds and
// HTTP dates. Zero means the header was absent or unparseable.
func RetryAfter(headers http.Header) time.Duration {
	return parseRetryAfter(headers)
}

// parseRetryAfter reads the Retry-After header, accepting both delta seconds
// and HTTP dates.
func parseRetryAfter(headers http.Header) time.Duration {
	retryAfter := headers.Get("retry-after")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := time.Parse(time.RFC1123, retryAfter); err == nil {
		d := time.Until(t)
		if d < 0 {
			return 0
		}
		return d
	}

	return 0
}

// Tracker maintains the latest rate limit state per model. All methods are
// safe for concurrent use.
type Tracker struct {
	mu         sync.RWMutex
	info       map[string]*Info
	lastUpdate time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		info: make(map[string]*Info),
	}
}

// Update records the rate limit information for a model. Nil info is ignored.
func (t *Tracker) Update(info *Info) {
	if info == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if info.Timestamp.IsZero() {
		info.Timestamp = time.Now()
	}
	t.info[info.Model] = info
	t.lastUpdate = time.Now()
}

// Get retrieves the last recorded information for a model.
func (t *Tracker) Get(model string) (*Info, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	info, exists := t.info[model]
	return info, exists
}

// CanMakeRequest reports whether a request for the model is likely to succeed
// given the last observed limits. Models with no recorded info always pass.
func (t *Tracker) CanMakeRequest(model string, estimatedTokens int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	info, exists := t.info[model]
	if !exists {
		return true
	}

	now := time.Now()

	// Stale windows no longer constrain anything.
	if !info.RequestsReset.IsZero() && now.After(info.RequestsReset) {
		return true
	}

	if info.RequestsLimit > 0 && info.RequestsRemaining <= 0 {
		return false
	}

	if estimatedTokens > 0 && !info.TokensReset.IsZero() && now.Before(info.TokensReset) {
		if info.TokensLimit > 0 && info.TokensRemaining < estimatedTokens {
			return false
		}
	}

	if info.CreditsLimit > 0 && info.CreditsRemaining <= 0 {
		return false
	}

	return true
}

// GetWaitTime returns how long to wait before the model's limits clear. Zero
// means no waiting is required. An explicit Retry-After always wins over
// computed reset times.
func (t *Tracker) GetWaitTime(model string) time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	info, exists := t.info[model]
	if !exists {
		return 0
	}

	if info.RetryAfter > 0 {
		return info.RetryAfter
	}

	now := time.Now()
	var waitUntil time.Time

	for _, reset := range []time.Time{info.RequestsReset, info.TokensReset} {
		if reset.IsZero() || now.After(reset) {
			continue
		}
		if waitUntil.IsZero() || reset.Before(waitUntil) {
			waitUntil = reset
		}
	}

	if waitUntil.IsZero() {
		return 0
	}
	return time.Until(waitUntil)
}

// ShouldThrottle reports whether usage for the model has crossed the given
// threshold of any observed limit. The threshold is a ratio between 0 and 1;
// out-of-range values fall back to 0.8.
func (t *Tracker) ShouldThrottle(model string, threshold float64) bool {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.8
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	info, exists := t.info[model]
	if !exists {
		return false
	}

	now := time.Now()

	if usageRatio(info.RequestsLimit, info.RequestsRemaining, info.RequestsReset, now) >= threshold {
		return true
	}
	if usageRatio(info.TokensLimit, info.TokensRemaining, info.TokensReset, now) >= threshold {
		return true
	}
	if info.CreditsLimit > 0 && 1.0-(info.CreditsRemaining/info.CreditsLimit) >= threshold {
		return true
	}

	return false
}

// usageRatio returns the consumed fraction of a windowed limit, or 0 when the
// limit is absent or its window has passed.
func usageRatio(limit, remaining int, reset, now time.Time) float64 {
	if limit <= 0 || reset.IsZero() || !now.Before(reset) {
		return 0
	}
	return 1.0 - (float64(remaining) / float64(limit))
}
