package types

// Default sampling parameters applied by adapters when a call and its
// provider config leave them unset. Max output length is provider-specific;
// DefaultMaxTokens is the common value, individual adapters may declare a
// smaller budget.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000
)

// EmptyResponseText is returned by Generate when the backend reports success
// but produces no content. It keeps the empty-response case a valid non-error
// outcome that is distinguishable from failure without callers having to
// special-case "".
const EmptyResponseText = "No response generated"

// GenerateOptions carries the per-call generation parameters. The zero value
// is valid: every field falls back to the provider's configured or built-in
// default.
type GenerateOptions struct {
	// Model overrides the provider's default model identifier for this call.
	Model string `json:"model,omitempty"`

	// Temperature in [0, 1]. Zero means unset; adapters substitute the
	// provider default (DefaultTemperature unless configured otherwise).
	Temperature float64 `json:"temperature,omitempty"`

	// MaxTokens caps the generated output length. Zero means unset; adapters
	// substitute their per-provider default.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Stop sequences forwarded to backends that support them.
	Stop []string `json:"stop,omitempty"`

	// Metadata holds caller-defined values passed through to backends that
	// accept opaque request metadata. Adapters ignore keys they do not know.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
