// Package config loads provider configuration from YAML files and the
// process environment. Credentials referenced as ${ENV_VAR} are expanded at
// load time; references to unset variables are left verbatim so the adapters
// can recognize them as missing credentials rather than use them as keys.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cecil-the-coder/llm-fallback/pkg/types"
)

// Environment variables consulted by FromEnv.
const (
	EnvOpenRouterAPIKey = "OPENROUTER_API_KEY"
	EnvGeminiAPIKey     = "GEMINI_API_KEY"
	EnvDeepSeekAPIKey   = "DEEPSEEK_API_KEY"
	EnvCohereAPIKey     = "CO_API_KEY"
	EnvSiteURL          = "LLM_SITE_URL"
	EnvSiteName         = "LLM_SITE_NAME"
)

// Config is the root configuration structure.
type Config struct {
	Providers ProvidersConfig `yaml:"providers"`
}

// ProvidersConfig holds the per-provider entries and the enabled list.
// Enabled, when set, selects which providers participate and in what order;
// when empty the built-in default order applies.
type ProvidersConfig struct {
	Enabled []string `yaml:"enabled,omitempty"`

	OpenRouter *ProviderEntry `yaml:"openrouter,omitempty"`
	Gemini     *ProviderEntry `yaml:"gemini,omitempty"`
	DeepSeek   *ProviderEntry `yaml:"deepseek,omitempty"`
	Cohere     *ProviderEntry `yaml:"cohere,omitempty"`
}

// ProviderEntry is one provider's configuration in the file format.
type ProviderEntry struct {
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url,omitempty"`
	DefaultModel string        `yaml:"default_model,omitempty"`
	Temperature  float64       `yaml:"temperature,omitempty"`
	MaxTokens    int           `yaml:"max_tokens,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`

	// Site identification metadata, consumed by OpenRouter only.
	SiteURL  string `yaml:"site_url,omitempty"`
	SiteName string `yaml:"site_name,omitempty"`
}

var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnv replaces ${VAR} references with the variable's value. References
// to unset variables are kept verbatim: an unexpanded placeholder is the
// sentinel HasCredential uses to treat a provider as unconfigured.
func ExpandEnv(s string) string {
	return envRefPattern.ReplaceAllStringFunc(s, func(ref string) string {
		name := ref[2 : len(ref)-1]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return ref
	})
}

// Load reads a YAML configuration file, expanding ${ENV_VAR} references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal([]byte(ExpandEnv(string(data))), &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &config, nil
}

// FromEnv builds a Config from the conventional environment variables. Every
// built-in provider gets an entry even when its key is unset, so the default
// chain keeps its shape and unconfigured providers simply report unavailable.
func FromEnv() *Config {
	return &Config{
		Providers: ProvidersConfig{
			OpenRouter: &ProviderEntry{
				APIKey:   os.Getenv(EnvOpenRouterAPIKey),
				SiteURL:  os.Getenv(EnvSiteURL),
				SiteName: os.Getenv(EnvSiteName),
			},
			Gemini:   &ProviderEntry{APIKey: os.Getenv(EnvGeminiAPIKey)},
			DeepSeek: &ProviderEntry{APIKey: os.Getenv(EnvDeepSeekAPIKey)},
			Cohere:   &ProviderEntry{APIKey: os.Getenv(EnvCohereAPIKey)},
		},
	}
}

// Entry returns the configuration entry for a built-in provider name, or nil
// when the name is unknown or the entry is absent.
func (c *Config) Entry(name string) *ProviderEntry {
	switch name {
	case "openrouter":
		return c.Providers.OpenRouter
	case "gemini":
		return c.Providers.Gemini
	case "deepseek":
		return c.Providers.DeepSeek
	case "cohere":
		return c.Providers.Cohere
	}
	return nil
}

// BuildProviderConfig converts the entry for name into the ProviderConfig the
// adapters consume. A missing entry yields a config with identity fields only,
// which constructs an adapter that reports unavailable.
func (c *Config) BuildProviderConfig(name string) types.ProviderConfig {
	config := types.ProviderConfig{
		Name: name,
		Type: providerType(name),
	}

	entry := c.Entry(name)
	if entry == nil {
		return config
	}

	config.APIKey = entry.APIKey
	config.BaseURL = entry.BaseURL
	config.DefaultModel = entry.DefaultModel
	config.Temperature = entry.Temperature
	config.MaxTokens = entry.MaxTokens
	config.Timeout = entry.Timeout
	config.SiteURL = entry.SiteURL
	config.SiteName = entry.SiteName
	return config
}

func providerType(name string) types.ProviderType {
	switch name {
	case "openrouter":
		return types.ProviderTypeOpenRouter
	case "gemini":
		return types.ProviderTypeGemini
	case "deepseek":
		return types.ProviderTypeDeepSeek
	case "cohere":
		return types.ProviderTypeCohere
	}
	return types.ProviderTypeCustom
}

// MaskAPIKey masks an API key for display purposes.
func MaskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
