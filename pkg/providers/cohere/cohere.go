// Package cohere provides the Cohere provider adapter, speaking the v2 chat
// API. Cohere returns assistant content as a list of typed parts, and its
// default output budget here is 100 tokens rather than the shared 1000.
package cohere

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cecil-the-coder/llm-fallback/internal/httpclient"
	"github.com/cecil-the-coder/llm-fallback/pkg/providers/base"
	"github.com/cecil-the-coder/llm-fallback/pkg/types"
)

const (
	defaultBaseURL = "https://api.cohere.com"
	defaultModel   = "command-r-plus"

	// Default output token budget, smaller than the other providers.
	defaultMaxTokens = 100
)

// CohereProvider implements the Provider interface for Cohere.
type CohereProvider struct {
	*base.BaseProvider
}

var (
	_ types.Provider      = (*CohereProvider)(nil)
	_ types.HealthChecker = (*CohereProvider)(nil)
)

// NewCohereProvider creates a new Cohere provider.
func NewCohereProvider(config types.ProviderConfig, logger *zap.Logger) *CohereProvider {
	config.Type = types.ProviderTypeCohere
	if config.Name == "" {
		config.Name = "cohere"
	}

	client := httpclient.NewClient(httpclient.Config{
		Timeout:   config.Timeout,
		UserAgent: "llm-fallback/1.0",
	})

	return &CohereProvider{
		BaseProvider: base.NewBaseProvider("cohere", config, client, logger),
	}
}

func (p *CohereProvider) Type() types.ProviderType {
	return types.ProviderTypeCohere
}

func (p *CohereProvider) Description() string {
	return "Cohere command model family"
}

// Configure replaces the provider configuration.
func (p *CohereProvider) Configure(config types.ProviderConfig) error {
	if config.Type != types.ProviderTypeCohere {
		return fmt.Errorf("invalid provider type for Cohere: %s", config.Type)
	}
	return p.BaseProvider.Configure(config)
}

// Generate produces a completion for prompt. It makes exactly one API call;
// recovery from failure is the caller's concern.
func (p *CohereProvider) Generate(ctx context.Context, prompt string, opts types.GenerateOptions) (string, error) {
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

	text := p.extractText(response)

	p.RecordSuccess(time.Since(start))
	p.Logger().Debug("generation complete",
		zap.String("provider", "cohere"),
		zap.String("model", request.Model),
		zap.Int("output_tokens", response.Usage.Tokens.OutputTokens))
	return text, nil
}

// buildRequest constructs the API request payload.
func (p *CohereProvider) buildRequest(prompt string, opts types.GenerateOptions) CohereRequest {
	return CohereRequest{
		Model:         p.ResolveModel(opts, defaultModel),
		Messages:      []CohereMessage{{Role: "user", Content: prompt}},
		Temperature:   p.ResolveTemperature(opts),
		MaxTokens:     p.ResolveMaxTokens(opts, defaultMaxTokens),
		StopSequences: opts.Stop,
	}
}

// makeAPICall performs the HTTP request to the v2 chat endpoint.
func (p *CohereProvider) makeAPICall(ctx context.Context, request CohereRequest) (*CohereResponse, error) {
	config := p.GetConfig()

	url := baseURL(config) + "/v2/chat"
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

	var response CohereResponse
	if err := json.Unmarshal([]byte(body), &response); err != nil {
		return nil, types.NewInvalidRequestError(p.Type(), "failed to parse API response").
			WithOperation("generate").
			WithOriginalErr(err)
	}
	return &response, nil
}

// extractText joins the text parts of the assistant message. An assistant
// message with no text parts is the empty response case, not an error.
func (p *CohereProvider) extractText(response *CohereResponse) string {
	var text strings.Builder
	for _, part := range response.Message.Content {
		if part.Type == "" || part.Type == "text" {
			text.WriteString(part.Text)
		}
	}
	return base.NormalizeText(text.String())
}

// HealthCheck verifies the configured key against the model listing endpoint.
func (p *CohereProvider) HealthCheck(ctx context.Context) error {
	if err := p.CheckAvailable(); err != nil {
		return err
	}
	config := p.GetConfig()

	req, err := httpclient.NewJSONRequest(http.MethodGet, baseURL(config)+"/v1/models", nil)
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

// Cohere data structures

// CohereRequest represents the request payload for the v2 chat endpoint.
type CohereRequest struct {
	Model         string          `json:"model"`
	Messages      []CohereMessage `json:"messages"`
	Temperature   float64         `json:"temperature,omitempty"`
	MaxTokens     int             `json:"max_tokens,omitempty"`
	StopSequences []string        `json:"stop_sequences,omitempty"`
}

// CohereMessage represents a message in the conversation.
type CohereMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CohereResponse represents the response from the v2 chat endpoint.
type CohereResponse struct {
	ID           string                 `json:"id"`
	Message      CohereAssistantMessage `json:"message"`
	FinishReason string                 `json:"finish_reason"`
	Usage        CohereUsage            `json:"usage"`
}

// CohereAssistantMessage is the assistant turn with its typed content parts.
type CohereAssistantMessage struct {
	Role    string              `json:"role"`
	Content []CohereContentPart `json:"content"`
}

// CohereContentPart represents one part of the assistant content.
type CohereContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CohereUsage represents token usage information.
type CohereUsage struct {
	BilledUnits CohereTokenCount `json:"billed_units"`
	Tokens      CohereTokenCount `json:"tokens"`
}

// CohereTokenCount holds input and output token counts.
type CohereTokenCount struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
