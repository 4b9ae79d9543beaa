// Package testutil provides shared testing utilities and mocks for use
// across the llm-fallback test suite.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cecil-the-coder/llm-fallback/pkg/types"
)

// ConfigurableMockProvider is a mock Provider implementation with configurable
// behavior. It allows tests to simulate availability, results, failures, and
// slow backends.
type ConfigurableMockProvider struct {
	mu sync.RWMutex

	// Configuration
	name         string
	providerType types.ProviderType
	description  string
	available    bool
	config       types.ProviderConfig

	// Behavior control
	generateResult string
	generateError  error
	generateDelay  time.Duration
	generateHook   func()
	configureError error

	// Call tracking
	generateCalled    int
	isAvailableCalled int
	configureCalled   int
	lastPrompt        string
	lastOptions       types.GenerateOptions
}

// NewConfigurableMockProvider creates a new mock provider with default settings:
// available, returning a canned response.
func NewConfigurableMockProvider(name string, providerType types.ProviderType) *ConfigurableMockProvider {
	return &ConfigurableMockProvider{
		name:           name,
		providerType:   providerType,
		description:    fmt.Sprintf("Mock %s provider for testing", name),
		available:      true,
		generateResult: "mock response",
		config: types.ProviderConfig{
			Type:         providerType,
			Name:         name,
			APIKey:       "mock-api-key",
			DefaultModel: "mock-model",
		},
	}
}

// SetAvailable controls the value returned by IsAvailable.
func (m *ConfigurableMockProvider) SetAvailable(available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = available
}

// SetGenerateResult configures the text returned by Generate.
func (m *ConfigurableMockProvider) SetGenerateResult(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generateResult = result
}

// SetGenerateError configures the provider to return an error on Generate.
func (m *ConfigurableMockProvider) SetGenerateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generateError = err
}

// SetGenerateDelay makes Generate block for the given duration before
// resolving. The wait honors context cancellation.
func (m *ConfigurableMockProvider) SetGenerateDelay(delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generateDelay = delay
}

// SetGenerateHook installs a function invoked at the start of every Generate
// call, before any delay or error handling. Useful for triggering side effects
// such as canceling a context mid-scan.
func (m *ConfigurableMockProvider) SetGenerateHook(hook func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generateHook = hook
}

// SetConfigureError configures the provider to return an error on Configure.
func (m *ConfigurableMockProvider) SetConfigureError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configureError = err
}

// GetGenerateCallCount returns the number of times Generate was called.
func (m *ConfigurableMockProvider) GetGenerateCallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generateCalled
}

// GetIsAvailableCallCount returns the number of times IsAvailable was called.
func (m *ConfigurableMockProvider) GetIsAvailableCallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isAvailableCalled
}

// GetConfigureCallCount returns the number of times Configure was called.
func (m *ConfigurableMockProvider) GetConfigureCallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.configureCalled
}

// LastPrompt returns the prompt passed to the most recent Generate call.
func (m *ConfigurableMockProvider) LastPrompt() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastPrompt
}

// LastOptions returns the options passed to the most recent Generate call.
func (m *ConfigurableMockProvider) LastOptions() types.GenerateOptions {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastOptions
}

// Provider interface implementation

func (m *ConfigurableMockProvider) Name() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.name
}

func (m *ConfigurableMockProvider) Type() types.ProviderType {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.providerType
}

func (m *ConfigurableMockProvider) Description() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.description
}

func (m *ConfigurableMockProvider) IsAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.isAvailableCalled++
	return m.available
}

func (m *ConfigurableMockProvider) Generate(ctx context.Context, prompt string, opts types.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.generateCalled++
	m.lastPrompt = prompt
	m.lastOptions = opts
	hook := m.generateHook
	delay := m.generateDelay
	result := m.generateResult
	genErr := m.generateError
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if genErr != nil {
		return "", genErr
	}
	return result, nil
}

func (m *ConfigurableMockProvider) Configure(config types.ProviderConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configureCalled++
	if m.configureError != nil {
		return m.configureError
	}
	m.config = config
	return nil
}

func (m *ConfigurableMockProvider) GetConfig() types.ProviderConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}
