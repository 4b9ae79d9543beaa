package ratelimit

import (
	"net/http"
)

// GeminiParser handles the Gemini API, which does not expose proactive rate
// limit headers on successful responses. Only 429 responses carry useful
// information, as a Retry-After header in delta seconds or HTTP date form.
// Quota tracking for Gemini therefore happens client side; this parser
// exists so Gemini responses flow through the same pipeline as everyone
// else's.
type GeminiParser struct{}

// NewGeminiParser creates a new Gemini rate limit parser.
func NewGeminiParser() *GeminiParser {
	return &GeminiParser{}
}

// ProviderName returns "gemini" as the provider identifier.
func (p *GeminiParser) ProviderName() string {
	return "gemini"
}

// Parse extracts what little Gemini offers: a Retry-After on 429 responses
// and the request ID. All limit fields stay at zero.
func (p *GeminiParser) Parse(headers http.Header, model string) (*Info, error) {
	info := &Info{
		Provider: "gemini",
		Model:    model,
	}

	info.RetryAfter = parseRetryAfter(headers)

	if requestID := headers.Get("x-request-id"); requestID != "" {
		info.RequestID = requestID
	}

	return info, nil
}
