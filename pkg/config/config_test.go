package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cecil-the-coder/llm-fallback/pkg/types"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "providers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("LLM_FALLBACK_TEST_KEY", "sk-or-secret-1234567890")

	path := writeConfigFile(t, `
providers:
  enabled:
    - openrouter
    - cohere
  openrouter:
    api_key: ${LLM_FALLBACK_TEST_KEY}
    default_model: deepseek/deepseek-chat-v3-0324:free
    temperature: 0.3
    max_tokens: 512
    timeout: 45s
    site_url: https://example.com
    site_name: Example
  cohere:
    api_key: co-key-abcdef
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"openrouter", "cohere"}, cfg.Providers.Enabled)

	or := cfg.Providers.OpenRouter
	require.NotNil(t, or)
	assert.Equal(t, "sk-or-secret-1234567890", or.APIKey)
	assert.Equal(t, "deepseek/deepseek-chat-v3-0324:free", or.DefaultModel)
	assert.Equal(t, 0.3, or.Temperature)
	assert.Equal(t, 512, or.MaxTokens)
	assert.Equal(t, 45*time.Second, or.Timeout)
	assert.Equal(t, "https://example.com", or.SiteURL)
	assert.Equal(t, "Example", or.SiteName)

	require.NotNil(t, cfg.Providers.Cohere)
	assert.Equal(t, "co-key-abcdef", cfg.Providers.Cohere.APIKey)
	assert.Nil(t, cfg.Providers.Gemini)
	assert.Nil(t, cfg.Providers.DeepSeek)
}

func TestLoad_UnsetEnvReferencePreserved(t *testing.T) {
	path := writeConfigFile(t, `
providers:
  gemini:
    api_key: ${LLM_FALLBACK_TEST_NO_SUCH_VAR}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Providers.Gemini)
	assert.Equal(t, "${LLM_FALLBACK_TEST_NO_SUCH_VAR}", cfg.Providers.Gemini.APIKey)

	built := cfg.BuildProviderConfig("gemini")
	assert.False(t, built.HasCredential(), "unexpanded placeholder must not count as a credential")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "providers: [not: valid: yaml")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("LLM_FALLBACK_TEST_SET", "value")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"set variable", "key: ${LLM_FALLBACK_TEST_SET}", "key: value"},
		{"unset variable kept", "key: ${LLM_FALLBACK_TEST_NO_SUCH_VAR}", "key: ${LLM_FALLBACK_TEST_NO_SUCH_VAR}"},
		{"multiple references", "${LLM_FALLBACK_TEST_SET}/${LLM_FALLBACK_TEST_SET}", "value/value"},
		{"no references", "plain text", "plain text"},
		{"bare dollar untouched", "cost is $5", "cost is $5"},
		{"unbraced form untouched", "key: $LLM_FALLBACK_TEST_SET", "key: $LLM_FALLBACK_TEST_SET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandEnv(tt.input))
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvOpenRouterAPIKey, "or-key")
	t.Setenv(EnvGeminiAPIKey, "gm-key")
	t.Setenv(EnvDeepSeekAPIKey, "ds-key")
	t.Setenv(EnvCohereAPIKey, "co-key")
	t.Setenv(EnvSiteURL, "https://example.com")
	t.Setenv(EnvSiteName, "Example")

	cfg := FromEnv()

	require.NotNil(t, cfg.Providers.OpenRouter)
	assert.Equal(t, "or-key", cfg.Providers.OpenRouter.APIKey)
	assert.Equal(t, "https://example.com", cfg.Providers.OpenRouter.SiteURL)
	assert.Equal(t, "Example", cfg.Providers.OpenRouter.SiteName)

	require.NotNil(t, cfg.Providers.Gemini)
	assert.Equal(t, "gm-key", cfg.Providers.Gemini.APIKey)
	require.NotNil(t, cfg.Providers.DeepSeek)
	assert.Equal(t, "ds-key", cfg.Providers.DeepSeek.APIKey)
	require.NotNil(t, cfg.Providers.Cohere)
	assert.Equal(t, "co-key", cfg.Providers.Cohere.APIKey)

	// Site metadata stays on the OpenRouter entry only.
	assert.Empty(t, cfg.Providers.Gemini.SiteURL)
	assert.Empty(t, cfg.Providers.Cohere.SiteName)
}

func TestFromEnv_MissingKeysStillBuildEntries(t *testing.T) {
	t.Setenv(EnvOpenRouterAPIKey, "")
	t.Setenv(EnvGeminiAPIKey, "")
	t.Setenv(EnvDeepSeekAPIKey, "")
	t.Setenv(EnvCohereAPIKey, "")

	cfg := FromEnv()

	require.NotNil(t, cfg.Providers.OpenRouter)
	require.NotNil(t, cfg.Providers.Gemini)
	assert.False(t, cfg.BuildProviderConfig("openrouter").HasCredential())
	assert.False(t, cfg.BuildProviderConfig("gemini").HasCredential())
}

func TestEntry(t *testing.T) {
	cfg := &Config{
		Providers: ProvidersConfig{
			OpenRouter: &ProviderEntry{APIKey: "or"},
			DeepSeek:   &ProviderEntry{APIKey: "ds"},
		},
	}

	require.NotNil(t, cfg.Entry("openrouter"))
	assert.Equal(t, "or", cfg.Entry("openrouter").APIKey)
	require.NotNil(t, cfg.Entry("deepseek"))
	assert.Equal(t, "ds", cfg.Entry("deepseek").APIKey)
	assert.Nil(t, cfg.Entry("gemini"))
	assert.Nil(t, cfg.Entry("unknown"))
}

func TestBuildProviderConfig(t *testing.T) {
	cfg := &Config{
		Providers: ProvidersConfig{
			Cohere: &ProviderEntry{
				APIKey:       "co-key",
				BaseURL:      "https://cohere.internal",
				DefaultModel: "command-r",
				Temperature:  0.5,
				MaxTokens:    256,
				Timeout:      20 * time.Second,
			},
		},
	}

	built := cfg.BuildProviderConfig("cohere")
	assert.Equal(t, "cohere", built.Name)
	assert.Equal(t, types.ProviderTypeCohere, built.Type)
	assert.Equal(t, "co-key", built.APIKey)
	assert.Equal(t, "https://cohere.internal", built.BaseURL)
	assert.Equal(t, "command-r", built.DefaultModel)
	assert.Equal(t, 0.5, built.Temperature)
	assert.Equal(t, 256, built.MaxTokens)
	assert.Equal(t, 20*time.Second, built.Timeout)
	assert.True(t, built.HasCredential())
}

func TestBuildProviderConfig_MissingEntry(t *testing.T) {
	cfg := &Config{}

	built := cfg.BuildProviderConfig("deepseek")
	assert.Equal(t, "deepseek", built.Name)
	assert.Equal(t, types.ProviderTypeDeepSeek, built.Type)
	assert.Empty(t, built.APIKey)
	assert.False(t, built.HasCredential())

	custom := cfg.BuildProviderConfig("mystery")
	assert.Equal(t, types.ProviderTypeCustom, custom.Type)
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"empty", "", ""},
		{"short", "abc", "***"},
		{"exactly eight", "12345678", "***"},
		{"long", "sk-or-v1-abcdef123456", "sk-o...3456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskAPIKey(tt.key))
		})
	}
}
