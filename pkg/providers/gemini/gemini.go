// Package gemini provides the Google Gemini provider adapter. Gemini does not
// return rate limit headers, so the adapter keeps a client-side limiter sized
// for the free tier; UpdateRateLimitTier adjusts it for paid tiers. Auth is
// either an API key header or an OAuth token source.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/cecil-the-coder/llm-fallback/internal/httpclient"
	"github.com/cecil-the-coder/llm-fallback/pkg/providers/base"
	"github.com/cecil-the-coder/llm-fallback/pkg/types"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.0-flash"

	// Free tier allows 15 requests per minute.
	freeTierRPM = 15

	// Upper bound on how long a call blocks waiting for the client-side
	// limiter before giving up.
	rateLimitWaitMax = 10 * time.Second
)

// GeminiProvider implements the Provider interface for Google Gemini.
type GeminiProvider struct {
	*base.BaseProvider

	limiterMu sync.RWMutex
	limiter   *rate.Limiter

	tokenSource oauth2.TokenSource
}

var (
	_ types.Provider      = (*GeminiProvider)(nil)
	_ types.HealthChecker = (*GeminiProvider)(nil)
)

// Option configures optional provider behavior.
type Option func(*GeminiProvider)

// WithTokenSource authenticates requests with OAuth tokens instead of an API
// key. A provider holding a token source is available even without a key.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(p *GeminiProvider) {
		p.tokenSource = ts
	}
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(config types.ProviderConfig, logger *zap.Logger, opts ...Option) *GeminiProvider {
	config.Type = types.ProviderTypeGemini
	if config.Name == "" {
		config.Name = "gemini"
	}

	client := httpclient.NewClient(httpclient.Config{
		Timeout:   config.Timeout,
		UserAgent: "llm-fallback/1.0",
	})

	p := &GeminiProvider{
		BaseProvider: base.NewBaseProvider("gemini", config, client, logger),
		limiter:      rate.NewLimiter(rate.Every(time.Minute/freeTierRPM), freeTierRPM),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *GeminiProvider) Type() types.ProviderType {
	return types.ProviderTypeGemini
}

func (p *GeminiProvider) Description() string {
	return "Google Gemini generative language API"
}

// Configure replaces the provider configuration.
func (p *GeminiProvider) Configure(config types.ProviderConfig) error {
	if config.Type != types.ProviderTypeGemini {
		return fmt.Errorf("invalid provider type for Gemini: %s", config.Type)
	}
	return p.BaseProvider.Configure(config)
}

// IsAvailable reports whether the provider can authenticate, by key or token
// source. It never performs network I/O.
func (p *GeminiProvider) IsAvailable() bool {
	if p.tokenSource != nil {
		return true
	}
	return p.BaseProvider.IsAvailable()
}

// checkAvailable guards Generate. BaseProvider.CheckAvailable consults the
// embedded IsAvailable, not this type's override, so the token source check
// has to live here.
func (p *GeminiProvider) checkAvailable() error {
	if p.IsAvailable() {
		return nil
	}
	return types.NewUnconfiguredError(p.Type(), "no API key or token source configured")
}

// UpdateRateLimitTier resizes the client-side limiter. Gemini publishes
// per-tier request budgets (15 RPM free, 360 RPM pay-as-you-go) but sends no
// rate limit headers, so the tier has to be set manually.
func (p *GeminiProvider) UpdateRateLimitTier(requestsPerMinute int) {
	if requestsPerMinute <= 0 {
		return
	}
	p.limiterMu.Lock()
	defer p.limiterMu.Unlock()
	p.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute)
}

// Generate produces a completion for prompt. It makes exactly one API call;
// recovery from failure is the caller's concern.
func (p *GeminiProvider) Generate(ctx context.Context, prompt string, opts types.GenerateOptions) (string, error) {
	p.IncrementRequestCount()
	start := time.Now()

	if err := p.checkAvailable(); err != nil {
		p.RecordError(err)
		return "", err
	}

	if err := p.applyRateLimiting(ctx); err != nil {
		p.RecordError(err)
		return "", err
	}

	model := p.ResolveModel(opts, defaultModel)
	request := p.buildRequest(prompt, opts)

	response, err := p.makeAPICall(ctx, model, request)
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
	fields := []zap.Field{zap.String("provider", "gemini"), zap.String("model", model)}
	if response.UsageMetadata != nil {
		fields = append(fields, zap.Int("total_tokens", response.UsageMetadata.TotalTokenCount))
	}
	p.Logger().Debug("generation complete", fields...)
	return text, nil
}

// applyRateLimiting blocks until the client-side limiter admits the request.
// A canceled parent context surfaces as a transport error; exhausting the
// wait budget surfaces as a rate limit error.
func (p *GeminiProvider) applyRateLimiting(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, rateLimitWaitMax)
	defer cancel()

	p.limiterMu.RLock()
	limiter := p.limiter
	p.limiterMu.RUnlock()

	if err := limiter.Wait(waitCtx); err != nil {
		if ctx.Err() != nil {
			return p.TransportError("generate", ctx.Err())
		}
		return types.NewRateLimitError(p.Type(), 0).
			WithOperation("generate").
			WithOriginalErr(err)
	}
	return nil
}

// buildRequest constructs the API request payload.
func (p *GeminiProvider) buildRequest(prompt string, opts types.GenerateOptions) GenerateContentRequest {
	return GenerateContentRequest{
		Contents: []Content{
			{Role: "user", Parts: []Part{{Text: prompt}}},
		},
		GenerationConfig: &GenerationConfig{
			Temperature:     p.ResolveTemperature(opts),
			MaxOutputTokens: p.ResolveMaxTokens(opts, types.DefaultMaxTokens),
			StopSequences:   opts.Stop,
		},
	}
}

// makeAPICall performs the HTTP request to the generateContent endpoint.
func (p *GeminiProvider) makeAPICall(ctx context.Context, model string, request GenerateContentRequest) (*GenerateContentResponse, error) {
	config := p.GetConfig()

	url := fmt.Sprintf("%s/models/%s:generateContent", baseURL(config), model)
	req, err := httpclient.NewJSONRequest(http.MethodPost, url, request)
	if err != nil {
		return nil, types.NewInvalidRequestError(p.Type(), "failed to create request").
			WithOperation("generate").
			WithOriginalErr(err)
	}
	if err := p.setAuthHeaders(req, config); err != nil {
		return nil, err
	}

	body, resp, err := p.Client().DoWithFullResponse(ctx, req)
	if err != nil {
		return nil, p.TransportError("generate", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, p.HTTPError("generate", resp, []byte(body))
	}

	var response GenerateContentResponse
	if err := json.Unmarshal([]byte(body), &response); err != nil {
		return nil, types.NewInvalidRequestError(p.Type(), "failed to parse API response").
			WithOperation("generate").
			WithOriginalErr(err)
	}
	return &response, nil
}

// setAuthHeaders attaches OAuth bearer credentials when a token source is
// present, otherwise the API key header.
func (p *GeminiProvider) setAuthHeaders(req *http.Request, config types.ProviderConfig) error {
	if p.tokenSource != nil {
		token, err := p.tokenSource.Token()
		if err != nil {
			return types.NewAuthError(p.Type(), "authentication failed: could not obtain OAuth token").
				WithOperation("generate").
				WithOriginalErr(err)
		}
		token.SetAuthHeader(req)
		return nil
	}
	req.Header.Set("x-goog-api-key", config.APIKey)
	return nil
}

// extractText pulls the completion text out of the response. A candidate
// stopped for safety is an error; a candidate with no text is the empty
// response case.
func (p *GeminiProvider) extractText(response *GenerateContentResponse) (string, error) {
	if len(response.Candidates) == 0 {
		return "", types.NewInvalidRequestError(p.Type(), "no candidates in API response").
			WithOperation("generate")
	}

	candidate := response.Candidates[0]
	if candidate.FinishReason == "SAFETY" {
		return "", types.NewInvalidRequestError(p.Type(), "content was filtered due to safety concerns").
			WithOperation("generate")
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}
	return base.NormalizeText(text.String()), nil
}

// HealthCheck verifies credentials against the model listing endpoint.
func (p *GeminiProvider) HealthCheck(ctx context.Context) error {
	if err := p.checkAvailable(); err != nil {
		return err
	}
	config := p.GetConfig()

	req, err := httpclient.NewJSONRequest(http.MethodGet, baseURL(config)+"/models", nil)
	if err != nil {
		return types.NewInvalidRequestError(p.Type(), "failed to create request").
			WithOperation("health_check").
			WithOriginalErr(err)
	}
	if err := p.setAuthHeaders(req, config); err != nil {
		return err
	}

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
