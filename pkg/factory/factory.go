package factory

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/cecil-the-coder/llm-fallback/pkg/types"
)

// Constructor builds a provider from its configuration. The logger may be nil;
// adapters fall back to a no-op logger.
type Constructor func(config types.ProviderConfig, logger *zap.Logger) types.Provider

// ProviderFactory is a registry of provider constructors keyed by type.
type ProviderFactory struct {
	mu           sync.RWMutex
	constructors map[types.ProviderType]Constructor
	logger       *zap.Logger
}

// NewProviderFactory creates an empty provider factory.
func NewProviderFactory() *ProviderFactory {
	return &ProviderFactory{
		constructors: make(map[types.ProviderType]Constructor),
		logger:       zap.NewNop(),
	}
}

// SetLogger sets the logger handed to every provider this factory creates.
// A nil logger is ignored.
func (f *ProviderFactory) SetLogger(logger *zap.Logger) {
	if logger == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logger = logger
}

// RegisterProvider registers a constructor for a provider type. Registering
// the same type again replaces the previous constructor.
func (f *ProviderFactory) RegisterProvider(providerType types.ProviderType, constructor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[providerType] = constructor
}

// CreateProvider constructs a provider of the given type. Unregistered types
// and invalid configurations are errors; a missing credential is not, the
// provider is built and reports unavailable.
func (f *ProviderFactory) CreateProvider(providerType types.ProviderType, config types.ProviderConfig) (types.Provider, error) {
	f.mu.RLock()
	constructor, exists := f.constructors[providerType]
	logger := f.logger
	f.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("provider type %s not registered", providerType)
	}
	if err := ValidateProviderConfig(config); err != nil {
		return nil, fmt.Errorf("invalid %s configuration: %w", providerType, err)
	}
	return constructor(config, logger), nil
}

// SupportedProviders returns the registered provider types in sorted order.
func (f *ProviderFactory) SupportedProviders() []types.ProviderType {
	f.mu.RLock()
	defer f.mu.RUnlock()

	supported := make([]types.ProviderType, 0, len(f.constructors))
	for providerType := range f.constructors {
		supported = append(supported, providerType)
	}
	sort.Slice(supported, func(i, j int) bool { return supported[i] < supported[j] })
	return supported
}
