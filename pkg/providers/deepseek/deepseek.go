// Package deepseek provides the DeepSeek provider adapter. The API is
// OpenAI-compatible; reasoner-family models interleave their chain of thought
// into the content inside <think> tags, which the adapter strips so callers
// get only the final answer.
package deepseek

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/cecil-the-coder/llm-fallback/internal/httpclient"
	"github.com/cecil-the-coder/llm-fallback/pkg/providers/base"
	"github.com/cecil-the-coder/llm-fallback/pkg/types"
)

const (
	defaultBaseURL = "https://api.deepseek.com"
	defaultModel   = "deepseek-chat"
)

// thinkPattern matches an inline reasoning block, including one spanning
// multiple lines.
var thinkPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)

// DeepSeekProvider implements the Provider interface for DeepSeek.
type DeepSeekProvider struct {
	*base.BaseProvider
}

var (
	_ types.Provider      = (*DeepSeekProvider)(nil)
	_ types.HealthChecker = (*DeepSeekProvider)(nil)
)

// NewDeepSeekProvider creates a new DeepSeek provider.
func NewDeepSeekProvider(config types.ProviderConfig, logger *zap.Logger) *DeepSeekProvider {
	config.Type = types.ProviderTypeDeepSeek
	if config.Name == "" {
		config.Name = "deepseek"
	}

	client := httpclient.NewClient(httpclient.Config{
		Timeout:   config.Timeout,
		UserAgent: "llm-fallback/1.0",
	})

	return &DeepSeekProvider{
		BaseProvider: base.NewBaseProvider("deepseek", config, client, logger),
	}
}

func (p *DeepSeekProvider) Type() types.ProviderType {
	return types.ProviderTypeDeepSeek
}

func (p *DeepSeekProvider) Description() string {
	return "DeepSeek chat and reasoner models"
}

// Configure replaces the provider configuration.
func (p *DeepSeekProvider) Configure(config types.ProviderConfig) error {
	if config.Type != types.ProviderTypeDeepSeek {
		return fmt.Errorf("invalid provider type for DeepSeek: %s", config.Type)
	}
	return p.BaseProvider.Configure(config)
}

// Generate produces a completion for prompt. It makes exactly one API call;
// recovery from failure is the caller's concern.
func (p *DeepSeekProvider) Generate(ctx context.Context, prompt string, opts types.GenerateOptions) (string, error) {
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
		zap.String("provider", "deepseek"),
		zap.String("model", response.Model),
		zap.Int("total_tokens", response.Usage.TotalTokens))
	return text, nil
}

// buildRequest constructs the API request payload.
func (p *DeepSeekProvider) buildRequest(prompt string, opts types.GenerateOptions) DeepSeekRequest {
	return DeepSeekRequest{
		Model:       p.ResolveModel(opts, defaultModel),
		Messages:    []DeepSeekMessage{{Role: "user", Content: prompt}},
		Temperature: p.ResolveTemperature(opts),
		MaxTokens:   p.ResolveMaxTokens(opts, types.DefaultMaxTokens),
		Stop:        opts.Stop,
	}
}

// makeAPICall performs the HTTP request to the chat completions endpoint.
func (p *DeepSeekProvider) makeAPICall(ctx context.Context, request DeepSeekRequest) (*DeepSeekResponse, error) {
	config := p.GetConfig()

	url := baseURL(config) + "/chat/completions"
	req, err := httpclient.NewJSONRequest(http.MethodPost, url, request)
	if err != nil {
		return nil, types.NewInvalidRequestError(p.Type(), "failed to create request").
			WithOperation("generate").
			WithOriginalErr(err)
	}
	req.Header.Set("Authorization", "Bearer "+config.APIKey)

	body, resp, err := p.Client().DoWithFullResponse(ctx, req)
	if err != nil {
		return nil, p.TransportError("generate", err)
	}

	p.UpdateRateLimits(resp.Header, request.Model)

	if resp.StatusCode != http.StatusOK {
		return nil, p.HTTPError("generate", resp, []byte(body))
	}

	var response DeepSeekResponse
	if err := json.Unmarshal([]byte(body), &response); err != nil {
		return nil, types.NewInvalidRequestError(p.Type(), "failed to parse API response").
			WithOperation("generate").
			WithOriginalErr(err)
	}
	return &response, nil
}

// extractText pulls the completion text out of the response, dropping any
// inline reasoning blocks first.
func (p *DeepSeekProvider) extractText(response *DeepSeekResponse) (string, error) {
	if len(response.Choices) == 0 {
		return "", types.NewInvalidRequestError(p.Type(), "no choices in API response").
			WithOperation("generate")
	}
	content := thinkPattern.ReplaceAllString(response.Choices[0].Message.Content, "")
	return base.NormalizeText(content), nil
}

// HealthCheck verifies the configured key against the model listing endpoint.
func (p *DeepSeekProvider) HealthCheck(ctx context.Context) error {
	if err := p.CheckAvailable(); err != nil {
		return err
	}
	config := p.GetConfig()

	req, err := httpclient.NewJSONRequest(http.MethodGet, baseURL(config)+"/models", nil)
	if err != nil {
		return types.NewInvalidRequestError(p.Type(), "failed to create request").
			WithOperation("health_check").
			WithOriginalErr(err)
	}
	req.Header.Set("Authorization", "Bearer "+config.APIKey)

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

// DeepSeek data structures

// DeepSeekRequest represents the request payload for the chat completions
// endpoint.
type DeepSeekRequest struct {
	Model       string            `json:"model"`
	Messages    []DeepSeekMessage `json:"messages"`
	Temperature float64           `json:"temperature,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Stop        []string          `json:"stop,omitempty"`
}

// DeepSeekMessage represents a message in the conversation.
type DeepSeekMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// DeepSeekResponse represents the response from the chat completions
// endpoint.
type DeepSeekResponse struct {
	ID      string           `json:"id"`
	Model   string           `json:"model"`
	Choices []DeepSeekChoice `json:"choices"`
	Usage   DeepSeekUsage    `json:"usage"`
}

// DeepSeekChoice represents a choice in the response.
type DeepSeekChoice struct {
	Index        int             `json:"index"`
	Message      DeepSeekMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

// DeepSeekUsage represents token usage information.
type DeepSeekUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
