package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/cecil-the-coder/llm-fallback/pkg/types"
)

type failingTokenSource struct{}

func (failingTokenSource) Token() (*oauth2.Token, error) {
	return nil, errors.New("token endpoint unreachable")
}

func TestNewGeminiProvider(t *testing.T) {
	provider := NewGeminiProvider(types.ProviderConfig{APIKey: "test-key"}, nil)

	assert.NotNil(t, provider)
	assert.Equal(t, "gemini", provider.Name())
	assert.Equal(t, types.ProviderTypeGemini, provider.Type())
	assert.Equal(t, "Google Gemini generative language API", provider.Description())
}

func TestGeminiProvider_Generate(t *testing.T) {
	var gotRequest GenerateContentRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		_ = json.NewEncoder(w).Encode(GenerateContentResponse{
			Candidates: []Candidate{
				{
					Content: Content{
						Role:  "model",
						Parts: []Part{{Text: "Hello"}, {Text: " world."}},
					},
					FinishReason: "STOP",
				},
			},
			UsageMetadata: &UsageMetadata{PromptTokenCount: 2, CandidatesTokenCount: 3, TotalTokenCount: 5},
		})
	}))
	defer server.Close()

	provider := NewGeminiProvider(types.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	}, nil)

	text, err := provider.Generate(context.Background(), "Say hello", types.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Hello world.", text)

	require.Len(t, gotRequest.Contents, 1)
	assert.Equal(t, "user", gotRequest.Contents[0].Role)
	require.Len(t, gotRequest.Contents[0].Parts, 1)
	assert.Equal(t, "Say hello", gotRequest.Contents[0].Parts[0].Text)
	require.NotNil(t, gotRequest.GenerationConfig)
	assert.Equal(t, types.DefaultTemperature, gotRequest.GenerationConfig.Temperature)
	assert.Equal(t, types.DefaultMaxTokens, gotRequest.GenerationConfig.MaxOutputTokens)
}

func TestGeminiProvider_Generate_ModelInPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-1.5-pro:generateContent", r.URL.Path)
		_ = json.NewEncoder(w).Encode(GenerateContentResponse{
			Candidates: []Candidate{{Content: Content{Parts: []Part{{Text: "ok"}}}}},
		})
	}))
	defer server.Close()

	provider := NewGeminiProvider(types.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	}, nil)

	_, err := provider.Generate(context.Background(), "hi", types.GenerateOptions{Model: "gemini-1.5-pro"})
	require.NoError(t, err)
}

func TestGeminiProvider_Generate_TokenSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer oauth-token", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("x-goog-api-key"))
		_ = json.NewEncoder(w).Encode(GenerateContentResponse{
			Candidates: []Candidate{{Content: Content{Parts: []Part{{Text: "ok"}}}}},
		})
	}))
	defer server.Close()

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "oauth-token"})
	provider := NewGeminiProvider(types.ProviderConfig{BaseURL: server.URL}, nil, WithTokenSource(ts))

	assert.True(t, provider.IsAvailable(), "token source should make the provider available without a key")

	text, err := provider.Generate(context.Background(), "hi", types.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}

func TestGeminiProvider_Generate_TokenSourceFailure(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	provider := NewGeminiProvider(types.ProviderConfig{BaseURL: server.URL}, nil,
		WithTokenSource(failingTokenSource{}))

	_, err := provider.Generate(context.Background(), "hi", types.GenerateOptions{})
	require.Error(t, err)
	assert.True(t, types.IsAuthError(err))
	assert.Equal(t, int64(0), hits.Load())
}

func TestGeminiProvider_Generate_Unconfigured(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	provider := NewGeminiProvider(types.ProviderConfig{BaseURL: server.URL}, nil)

	assert.False(t, provider.IsAvailable())

	_, err := provider.Generate(context.Background(), "hi", types.GenerateOptions{})
	require.Error(t, err)
	assert.True(t, types.IsUnconfigured(err))
	assert.Equal(t, int64(0), hits.Load())
}

func TestGeminiProvider_Generate_SafetyFiltered(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(GenerateContentResponse{
			Candidates: []Candidate{{FinishReason: "SAFETY"}},
		})
	}))
	defer server.Close()

	provider := NewGeminiProvider(types.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	}, nil)

	_, err := provider.Generate(context.Background(), "hi", types.GenerateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "safety")
}

func TestGeminiProvider_Generate_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(GenerateContentResponse{})
	}))
	defer server.Close()

	provider := NewGeminiProvider(types.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	}, nil)

	_, err := provider.Generate(context.Background(), "hi", types.GenerateOptions{})
	require.Error(t, err)

	var perr *types.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, types.ErrCodeInvalidRequest, perr.Code)
}

func TestGeminiProvider_Generate_EmptyParts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(GenerateContentResponse{
			Candidates: []Candidate{{Content: Content{Role: "model"}, FinishReason: "STOP"}},
		})
	}))
	defer server.Close()

	provider := NewGeminiProvider(types.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	}, nil)

	text, err := provider.Generate(context.Background(), "hi", types.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, types.EmptyResponseText, text)
}

func TestGeminiProvider_Generate_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Resource has been exhausted", "status": "RESOURCE_EXHAUSTED"}}`))
	}))
	defer server.Close()

	provider := NewGeminiProvider(types.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	}, nil)

	_, err := provider.Generate(context.Background(), "hi", types.GenerateOptions{})
	require.Error(t, err)
	assert.True(t, types.IsRateLimitError(err))

	var perr *types.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "rate limit exceeded", perr.Message)
}

func TestGeminiProvider_Generate_CanceledBeforeLimiter(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	provider := NewGeminiProvider(types.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider.Generate(ctx, "hi", types.GenerateOptions{})
	require.Error(t, err)

	var perr *types.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, types.ErrCodeCanceled, perr.Code)
	assert.Equal(t, int64(0), hits.Load())
}

func TestGeminiProvider_UpdateRateLimitTier(t *testing.T) {
	provider := NewGeminiProvider(types.ProviderConfig{APIKey: "test-key"}, nil)

	provider.limiterMu.RLock()
	before := provider.limiter
	provider.limiterMu.RUnlock()

	provider.UpdateRateLimitTier(360)

	provider.limiterMu.RLock()
	after := provider.limiter
	provider.limiterMu.RUnlock()

	assert.NotSame(t, before, after)
	assert.Equal(t, 360, after.Burst())

	// Non-positive tiers are ignored.
	provider.UpdateRateLimitTier(0)
	provider.limiterMu.RLock()
	assert.Same(t, after, provider.limiter)
	provider.limiterMu.RUnlock()
}

func TestGeminiProvider_Configure(t *testing.T) {
	provider := NewGeminiProvider(types.ProviderConfig{APIKey: "old-key"}, nil)

	err := provider.Configure(types.ProviderConfig{Type: types.ProviderTypeCohere})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid provider type")

	err = provider.Configure(types.ProviderConfig{
		Type:   types.ProviderTypeGemini,
		APIKey: "new-key",
	})
	require.NoError(t, err)
	assert.Equal(t, "new-key", provider.GetConfig().APIKey)
}

func TestGeminiProvider_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"models": [{"name": "models/gemini-2.0-flash"}]}`))
	}))
	defer server.Close()

	provider := NewGeminiProvider(types.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	}, nil)

	require.NoError(t, provider.HealthCheck(context.Background()))
	assert.True(t, provider.GetMetrics().HealthStatus.Healthy)
}

func TestGeminiProvider_HealthCheck_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	provider := NewGeminiProvider(types.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := provider.HealthCheck(ctx)
	require.Error(t, err)
	assert.False(t, provider.GetMetrics().HealthStatus.Healthy)
}

func TestGeminiProvider_IsAvailable(t *testing.T) {
	tests := []struct {
		name      string
		apiKey    string
		opts      []Option
		available bool
	}{
		{name: "with API key", apiKey: "AIza-test", available: true},
		{name: "no credential", apiKey: "", available: false},
		{name: "unexpanded placeholder", apiKey: "${GEMINI_API_KEY}", available: false},
		{
			name:      "token source only",
			opts:      []Option{WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "t"}))},
			available: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := NewGeminiProvider(types.ProviderConfig{APIKey: tt.apiKey}, nil, tt.opts...)
			assert.Equal(t, tt.available, provider.IsAvailable())
		})
	}
}
