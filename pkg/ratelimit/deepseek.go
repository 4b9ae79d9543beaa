package ratelimit

import (
	"net/http"
)

// DeepSeekParser handles the DeepSeek API. DeepSeek does not publish fixed
// rate limits or expose x-ratelimit headers; under server pressure it answers
// 429 with an optional Retry-After. Everything beyond that stays at zero.
type DeepSeekParser struct{}

// NewDeepSeekParser creates a new DeepSeek rate limit parser.
func NewDeepSeekParser() *DeepSeekParser {
	return &DeepSeekParser{}
}

// ProviderName returns "deepseek" as the provider identifier.
func (p *DeepSeekParser) ProviderName() string {
	return "deepseek"
}

// Parse extracts the Retry-After duration and request ID when present.
func (p *DeepSeekParser) Parse(headers http.Header, model string) (*Info, error) {
	info := &Info{
		Provider: "deepseek",
		Model:    model,
	}

	info.RetryAfter = parseRetryAfter(headers)

	if requestID := headers.Get("x-request-id"); requestID != "" {
		info.RequestID = requestID
	}

	return info, nil
}
