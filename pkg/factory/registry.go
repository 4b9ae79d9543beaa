package factory

import (
	"go.uber.org/zap"

	"github.com/cecil-the-coder/llm-fallback/pkg/config"
	"github.com/cecil-the-coder/llm-fallback/pkg/fallback"
	"github.com/cecil-the-coder/llm-fallback/pkg/providers/cohere"
	"github.com/cecil-the-coder/llm-fallback/pkg/providers/deepseek"
	"github.com/cecil-the-coder/llm-fallback/pkg/providers/gemini"
	"github.com/cecil-the-coder/llm-fallback/pkg/providers/openrouter"
	"github.com/cecil-the-coder/llm-fallback/pkg/types"
)

// DefaultProviderOrder returns the built-in chain order: openrouter, then
// gemini, deepseek, and cohere. The relative order is part of the library
// contract; callers get a fresh copy.
func DefaultProviderOrder() []string {
	return []string{"openrouter", "gemini", "deepseek", "cohere"}
}

// RegisterDefaultProviders registers the four built-in adapters with the
// factory.
func RegisterDefaultProviders(factory *ProviderFactory) {
	factory.RegisterProvider(types.ProviderTypeOpenRouter, func(config types.ProviderConfig, logger *zap.Logger) types.Provider {
		return openrouter.NewOpenRouterProvider(config, logger)
	})
	factory.RegisterProvider(types.ProviderTypeGemini, func(config types.ProviderConfig, logger *zap.Logger) types.Provider {
		return gemini.NewGeminiProvider(config, logger)
	})
	factory.RegisterProvider(types.ProviderTypeDeepSeek, func(config types.ProviderConfig, logger *zap.Logger) types.Provider {
		return deepseek.NewDeepSeekProvider(config, logger)
	})
	factory.RegisterProvider(types.ProviderTypeCohere, func(config types.ProviderConfig, logger *zap.Logger) types.Provider {
		return cohere.NewCohereProvider(config, logger)
	})
}

// DefaultProviders builds the ordered provider chain from cfg. A nil cfg falls
// back to environment-derived configuration, and a nil logger to a no-op one.
//
// When cfg names enabled providers, that list decides membership and order;
// otherwise DefaultProviderOrder applies. Providers without a credential are
// still constructed (they report unavailable and the router skips them), so
// the chain keeps a stable shape regardless of which keys are present.
// Unknown provider names are logged and dropped.
func DefaultProviders(cfg *config.Config, logger *zap.Logger) []types.Provider {
	if cfg == nil {
		cfg = config.FromEnv()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	factory := NewProviderFactory()
	factory.SetLogger(logger)
	RegisterDefaultProviders(factory)

	names := cfg.Providers.Enabled
	if len(names) == 0 {
		names = DefaultProviderOrder()
	}

	providers := make([]types.Provider, 0, len(names))
	for _, name := range names {
		providerConfig := cfg.BuildProviderConfig(name)
		provider, err := factory.CreateProvider(providerConfig.Type, providerConfig)
		if err != nil {
			logger.Warn("dropping provider from chain",
				zap.String("provider", name),
				zap.Error(err))
			continue
		}
		providers = append(providers, provider)
	}
	return providers
}

// NewDefaultRouter constructs a Router pre-populated with the default chain
// built from environment variables (OPENROUTER_API_KEY and friends). Options
// are applied after the chain is installed, so fallback.WithProviders
// replaces it entirely.
func NewDefaultRouter(opts ...fallback.Option) *fallback.Router {
	options := append([]fallback.Option{
		fallback.WithProviders(DefaultProviders(nil, nil)...),
	}, opts...)
	return fallback.New(options...)
}
