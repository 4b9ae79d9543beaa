package ratelimit

import (
	"net/http"
	"strconv"
	"time"
)

// CohereParser handles Cohere's rate limit headers:
//   - x-ratelimit-limit: requests allowed in the current window
//   - x-ratelimit-remaining: requests remaining in the current window
//   - x-ratelimit-reset: seconds until the window resets, or an absolute
//     epoch timestamp depending on the endpoint
//
// Trial keys are limited far more aggressively than production keys, but the
// header scheme is the same for both.
type CohereParser struct{}

// NewCohereParser creates a new Cohere rate limit parser.
func NewCohereParser() *CohereParser {
	return &CohereParser{}
}

// ProviderName returns "cohere" as the provider identifier.
func (p *CohereParser) ProviderName() string {
	return "cohere"
}

// Parse extracts rate limit information from Cohere response headers. Reset
// values at or above 1e9 are treated as epoch seconds; smaller values as a
// delta from now.
func (p *CohereParser) Parse(headers http.Header, model string) (*Info, error) {
	info := &Info{
		Provider: "cohere",
		Model:    model,
	}

	if limit := headers.Get("x-ratelimit-limit"); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			info.RequestsLimit = val
		}
	}
	if remaining := headers.Get("x-ratelimit-remaining"); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			info.RequestsRemaining = val
		}
	}

	if reset := headers.Get("x-ratelimit-reset"); reset != "" {
		if val, err := strconv.ParseInt(reset, 10, 64); err == nil {
			if val >= 1_000_000_000 {
				info.RequestsReset = time.Unix(val, 0)
			} else {
				info.RequestsReset = time.Now().Add(time.Duration(val) * time.Second)
			}
		}
	}

	if requestID := headers.Get("x-request-id"); requestID != "" {
		info.RequestID = requestID
	}
	info.RetryAfter = parseRetryAfter(headers)

	return info, nil
}
