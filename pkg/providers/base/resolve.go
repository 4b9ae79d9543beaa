package base

import (
	"strings"

	"github.com/cecil-the-coder/llm-fallback/pkg/types"
)

// ResolveModel picks the model for a request: the per-request option wins,
// then the configured default, then the adapter's built-in fallback.
func (p *BaseProvider) ResolveModel(opts types.GenerateOptions, fallback string) string {
	if opts.Model != "" {
		return opts.Model
	}
	if model := p.GetConfig().DefaultModel; model != "" {
		return model
	}
	return fallback
}

// ResolveTemperature picks the sampling temperature with the same
// precedence. Zero means unset.
func (p *BaseProvider) ResolveTemperature(opts types.GenerateOptions) float64 {
	if opts.Temperature > 0 {
		return opts.Temperature
	}
	if t := p.GetConfig().Temperature; t > 0 {
		return t
	}
	return types.DefaultTemperature
}

// ResolveMaxTokens picks the completion budget. Zero means unset; fallback
// is the adapter's built-in default.
func (p *BaseProvider) ResolveMaxTokens(opts types.GenerateOptions, fallback int) int {
	if opts.MaxTokens > 0 {
		return opts.MaxTokens
	}
	if m := p.GetConfig().MaxTokens; m > 0 {
		return m
	}
	return fallback
}

// NormalizeText cleans a raw completion before it is returned to callers.
// Whitespace is trimmed and an empty-but-successful response becomes the
// sentinel text, so a successful Generate never yields "".
func NormalizeText(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return types.EmptyResponseText
	}
	return text
}
