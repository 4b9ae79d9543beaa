package ratelimit

import (
	"net/http"
	"strconv"
	"time"
)

// OpenRouterParser handles OpenRouter's rate limit headers:
//   - x-ratelimit-limit / x-ratelimit-remaining: credits or requests for the
//     current window (fractional values indicate credits)
//   - x-ratelimit-reset: milliseconds since epoch when the window resets
//   - x-ratelimit-requests / x-ratelimit-tokens: optional explicit limits
//
// OpenRouter bills in credits, and different models consume different amounts
// per request, so the primary limit headers can carry either unit.
type OpenRouterParser struct{}

// NewOpenRouterParser creates a new OpenRouter rate limit parser.
func NewOpenRouterParser() *OpenRouterParser {
	return &OpenRouterParser{}
}

// ProviderName returns "openrouter" as the provider identifier.
func (p *OpenRouterParser) ProviderName() string {
	return "openrouter"
}

// Parse extracts rate limit information from OpenRouter response headers.
// The reset timestamp is in milliseconds since epoch, unlike most providers.
func (p *OpenRouterParser) Parse(headers http.Header, model string) (*Info, error) {
	info := &Info{
		Provider: "openrouter",
		Model:    model,
	}

	if limit := headers.Get("x-ratelimit-limit"); limit != "" {
		if val, err := strconv.ParseFloat(limit, 64); err == nil {
			info.CreditsLimit = val
			if val == float64(int(val)) {
				info.RequestsLimit = int(val)
			}
		}
	}
	if remaining := headers.Get("x-ratelimit-remaining"); remaining != "" {
		if val, err := strconv.ParseFloat(remaining, 64); err == nil {
			info.CreditsRemaining = val
			if val == float64(int(val)) {
				info.RequestsRemaining = int(val)
			}
		}
	}

	if reset := headers.Get("x-ratelimit-reset"); reset != "" {
		if ms, err := strconv.ParseInt(reset, 10, 64); err == nil {
			resetTime := time.Unix(0, ms*int64(time.Millisecond))
			info.RequestsReset = resetTime
			info.TokensReset = resetTime
		}
	}

	// Explicit request and token limits override the unit guess above.
	if requests := headers.Get("x-ratelimit-requests"); requests != "" {
		if val, err := strconv.Atoi(requests); err == nil {
			info.RequestsLimit = val
		}
	}
	if tokens := headers.Get("x-ratelimit-tokens"); tokens != "" {
		if val, err := strconv.Atoi(tokens); err == nil {
			info.TokensLimit = val
		}
	}

	// Free accounts report small credit pools.
	if info.CreditsLimit > 0 && info.CreditsLimit <= 10.0 {
		info.IsFreeTier = true
	}
	if freeTier := headers.Get("x-ratelimit-free-tier"); freeTier != "" {
		if val, err := strconv.ParseBool(freeTier); err == nil {
			info.IsFreeTier = val
		}
	}

	if requestID := headers.Get("x-request-id"); requestID != "" {
		info.RequestID = requestID
	}
	info.RetryAfter = parseRetryAfter(headers)

	return info, nil
}
