// Package openrouter provides the OpenRouter provider adapter. OpenRouter
// fronts many upstream models behind one OpenAI-style chat API and accepts
// optional site identification headers for app attribution.
package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cecil-the-coder/llm-fallback/internal/httpclient"
	"github.com/cecil-the-coder/llm-fallback/pkg/providers/base"
	"github.com/cecil-the-coder/llm-fallback/pkg/types"
)

const (
	defaultBaseURL = "https://openrouter.ai/api"
	defaultModel   = "deepseek/deepseek-chat-v3-0324:free"
)

// OpenRouterProvider implements the Provider interface for OpenRouter.
type OpenRouterProvider struct {
	*base.BaseProvider
}

var (
	_ types.Provider      = (*OpenRouterProvider)(nil)
	_ types.HealthChecker = (*OpenRouterProvider)(nil)
)

// NewOpenRouterProvider creates a new OpenRouter provider.
func NewOpenRouterProvider(config types.ProviderConfig, logger *zap.Logger) *OpenRouterProvider {
	config.Type = types.ProviderTypeOpenRouter
	if config.Name == "" {
		config.Name = "openrouter"
	}

	client := httpclient.NewClient(httpclient.Config{
		Timeout:   config.Timeout,
		UserAgent: "llm-fallback/1.0",
	})

	return &OpenRouterProvider{
		BaseProvider: base.NewBaseProvider("openrouter", config, client, logger),
	}
}

func (p *OpenRouterProvider) Type() types.ProviderType {
	return types.ProviderTypeOpenRouter
}

func (p *OpenRouterProvider) Description() string {
	return "OpenRouter universal model gateway"
}

// Configure replaces the provider configuration.
func (p *OpenRouterProvider) Configure(config types.ProviderConfig) error {
	if config.Type != types.ProviderTypeOpenRouter {
		return fmt.Errorf("invalid provider type for OpenRouter: %s", config.Type)
	}
	return p.BaseProvider.Configure(config)
}

// Generate produces a completion for prompt. It makes exactly one API call;
// recovery from failure is the caller's concern.
func (p *OpenRouterProvider) Generate(ctx context.Context, prompt string, opts types.GenerateOptions) (string, error) {
	p.IncrementRequestCount()
	start := time.Now()

	if err := p.CheckAvailable(); err != nil {
		p.RecordError(err)
		return "", err
	}

	request := p.buildRequest(prompt, opts)
	response, err := p.makeAPICall(ctx, request)
	if err != nil {
		p.RecordError(err)
		return "", err
	}

	text, err := p.extractText(response)
	if err != nil {
		p.RecordError(err)
		return "", err
	}

	p.RecordSuccess(time.Since(start))
	p.Logger().Debug("generation complete",
		zap.String("provider", "openrouter"),
		zap.String("model", response.Model),
		zap.Int("total_tokens", response.Usage.TotalTokens))
	return text, nil
}

// buildRequest constructs the API request payload.
func (p *OpenRouterProvider) buildRequest(prompt string, opts types.GenerateOptions) OpenRouterRequest {
	return OpenRouterRequest{
		Model:       p.ResolveModel(opts, defaultModel),
		Messages:    []OpenRouterMessage{{Role: "user", Content: prompt}},
		Temperature: p.ResolveTemperature(opts),
		MaxTokens:   p.ResolveMaxTokens(opts, types.DefaultMaxTokens),
		Stop:        opts.Stop,
	}
}

// makeAPICall performs the HTTP request to the chat completions endpoint.
func (p *OpenRouterProvider) makeAPICall(ctx context.Context, request OpenRouterRequest) (*OpenRouterResponse, error) {
	config := p.GetConfig()

	url := baseURL(config) + "/v1/chat/completions"
	req, err := httpclient.NewJSONRequest(http.MethodPost, url, request)
	if err != nil {
		return nil, types.NewInvalidRequestError(p.Type(), "failed to create request").
			WithOperation("generate").
			WithOriginalErr(err)
	}
	p.setAuthHeaders(req, config)

	body, resp, err := p.Client().DoWithFullResponse(ctx, req)
	if err != nil {
		return nil, p.TransportError("generate", err)
	}

	p.UpdateRateLimits(resp.Header, request.Model)

	if resp.StatusCode != http.StatusOK {
		return nil, p.HTTPError("generate", resp, []byte(body))
	}

	var response OpenRouterResponse
	if err := json.Unmarshal([]byte(body), &response); err != nil {
		return nil, types.NewInvalidRequestError(p.Type(), "failed to parse API response").
			WithOperation("generate").
			WithOriginalErr(err)
	}
	return &response, nil
}

// setAuthHeaders sets the bearer token and the optional site identification
// headers. HTTP-Referer and X-Title attribute traffic to the calling app on
// the OpenRouter dashboard; they are sent only when configured.
func (p *OpenRouterProvider) setAuthHeaders(req *http.Request, config types.ProviderConfig) {
	req.Header.Set("Authorization", "Bearer "+config.APIKey)
	if config.SiteURL != "" {
		req.Header.Set("HTTP-Referer", config.SiteURL)
	}
	if config.SiteName != "" {
		req.Header.Set("X-Title", config.SiteName)
	}
}

// extractText pulls the completion text out of the response.
func (p *OpenRouterProvider) extractText(response *OpenRouterResponse) (string, error) {
	if len(response.Choices) == 0 {
		return "", types.NewInvalidRequestError(p.Type(), "no choices in API response").
			WithOperation("generate")
	}
	return base.NormalizeText(response.Choices[0].Message.Content), nil
}

// HealthCheck verifies the configured key against the key status endpoint.
func (p *OpenRouterProvider) HealthCheck(ctx context.Context) error {
	if err := p.CheckAvailable(); err != nil {
		return err
	}
	config := p.GetConfig()

	req, err := httpclient.NewJSONRequest(http.MethodGet, baseURL(config)+"/v1/key", nil)
	if err != nil {
		return types.NewInvalidRequestError(p.Type(), "failed to create request").
			WithOperation("health_check").
			WithOriginalErr(err)
	}
	p.setAuthHeaders(req, config)

	start := time.Now()
	body, resp, err := p.Client().DoWithFullResponse(ctx, req)
	if err != nil {
		p.UpdateHealthStatus(false, err.Error(), time.Since(start))
		return p.TransportError("health_check", err)
	}
	if resp.StatusCode != http.StatusOK {
		perr := p.HTTPError("health_check", resp, []byte(body))
		p.UpdateHealthStatus(false, perr.Message, time.Since(start))
		return perr
	}

	p.UpdateHealthStatus(true, "ok", time.Since(start))
	return nil
}

func baseURL(config types.ProviderConfig) string {
	if config.BaseURL != "" {
		return config.BaseURL
	}
	return defaultBaseURL
}

// OpenRouter data structures

// OpenRouterRequest represents the request payload for the chat completions
// endpoint.
type OpenRouterRequest struct {
	Model       string              `json:"model"`
	Messages    []OpenRouterMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Stop        []string            `json:"stop,omitempty"`
}

// OpenRouterMessage represents a message in the conversation.
type OpenRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenRouterResponse represents the response from the chat completions
// endpoint.
type OpenRouterResponse struct {
	ID      string             `json:"id"`
	Model   string             `json:"model"`
	Choices []OpenRouterChoice `json:"choices"`
	Usage   OpenRouterUsage    `json:"usage"`
}

// OpenRouterChoice represents a choice in the response.
type OpenRouterChoice struct {
	Index        int               `json:"index"`
	Message      OpenRouterMessage `json:"message"`
	FinishReason string            `json:"finish_reason"`
}

// OpenRouterUsage represents token usage information.
type OpenRouterUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
