package factory

import (
	"fmt"

	"github.com/cecil-the-coder/llm-fallback/pkg/types"
)

// ValidateProviderConfig checks a configuration for values no adapter can
// accept. A missing credential is deliberately not an error: credential-less
// providers construct fine and report unavailable.
func ValidateProviderConfig(config types.ProviderConfig) error {
	if config.Temperature < 0 || config.Temperature > 2 {
		return fmt.Errorf("temperature %.2f out of range [0, 2]", config.Temperature)
	}
	if config.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative, got %d", config.MaxTokens)
	}
	if config.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", config.Timeout)
	}
	return nil
}
