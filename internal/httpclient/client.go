// Package httpclient provides the shared HTTP layer used by provider
// adapters. Every call is a single attempt: failures surface immediately so
// the caller can move on to the next provider instead of waiting out a retry
// schedule.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation ID. The client stamps
// it on every outgoing request that does not already set one.
const RequestIDHeader = "X-Request-ID"

// RequestInterceptor allows modification of requests before they are sent
type RequestInterceptor interface {
	Intercept(req *http.Request) error
}

// ResponseInterceptor allows inspection of responses before they are returned
type ResponseInterceptor interface {
	Intercept(resp *http.Response) error
}

// Config holds configuration for the HTTP client
type Config struct {
	Timeout             time.Duration
	Headers             map[string]string
	UserAgent           string
	RequestInterceptor  RequestInterceptor
	ResponseInterceptor ResponseInterceptor

	// Transport tuning. Zero values fall back to the package defaults.
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	MaxConnsPerHost       int
	IdleConnTimeout       time.Duration
	TLSHandshakeTimeout   time.Duration
	ExpectContinueTimeout time.Duration
}

// Metrics tracks request statistics for a client
type Metrics struct {
	TotalRequests  int64
	SuccessfulReqs int64
	FailedReqs     int64
	TotalLatency   time.Duration
	AvgLatency     time.Duration
	StatusCounts   map[int]int64
}

// Client wraps http.Client with default headers, request IDs, and per-client
// statistics. It performs exactly one attempt per call.
type Client struct {
	client  *http.Client
	config  Config
	mu      sync.RWMutex
	metrics *Metrics
}

// NewClient creates a client with the given configuration
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.Headers == nil {
		config.Headers = make(map[string]string)
	}
	if config.UserAgent != "" {
		config.Headers["User-Agent"] = config.UserAgent
	}

	return &Client{
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: newTransport(config),
		},
		config: config,
		metrics: &Metrics{
			StatusCounts: make(map[int]int64),
		},
	}
}

// newTransport builds a pooled transport, filling in defaults for any
// settings the config leaves at zero.
func newTransport(config Config) *http.Transport {
	maxIdleConns := config.MaxIdleConns
	if maxIdleConns == 0 {
		maxIdleConns = 100
	}
	maxIdleConnsPerHost := config.MaxIdleConnsPerHost
	if maxIdleConnsPerHost == 0 {
		maxIdleConnsPerHost = 10
	}
	idleConnTimeout := config.IdleConnTimeout
	if idleConnTimeout == 0 {
		idleConnTimeout = 90 * time.Second
	}
	tlsHandshakeTimeout := config.TLSHandshakeTimeout
	if tlsHandshakeTimeout == 0 {
		tlsHandshakeTimeout = 10 * time.Second
	}
	expectContinueTimeout := config.ExpectContinueTimeout
	if expectContinueTimeout == 0 {
		expectContinueTimeout = 1 * time.Second
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          maxIdleConns,
		MaxIdleConnsPerHost:   maxIdleConnsPerHost,
		MaxConnsPerHost:       config.MaxConnsPerHost,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ExpectContinueTimeout: expectContinueTimeout,
		ForceAttemptHTTP2:     true,
	}
}

// Do executes a single HTTP request. Default headers are applied only where
// the request does not already set them, and a request ID is stamped if the
// caller did not provide one. There is no retry on any failure.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)

	for key, value := range c.config.Headers {
		if req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.New().String())
	}

	if c.config.RequestInterceptor != nil {
		if err := c.config.RequestInterceptor.Intercept(req); err != nil {
			return nil, fmt.Errorf("request interceptor failed: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	c.recordResult(resp, err, time.Since(start))

	if err != nil {
		// Surface the context error directly so callers can distinguish
		// cancellation from transport failures.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	if c.config.ResponseInterceptor != nil {
		if err := c.config.ResponseInterceptor.Intercept(resp); err != nil {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("response interceptor failed: %w", err)
		}
	}

	return resp, nil
}

// DoWithFullResponse executes a request and returns the body as a string
// along with the response. The body is fully read and closed.
func (c *Client) DoWithFullResponse(ctx context.Context, req *http.Request) (string, *http.Response, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return "", nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp, fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), resp, nil
}

// PostJSON sends a POST request with a JSON-encoded body
func (c *Client) PostJSON(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	return c.DoJSON(ctx, http.MethodPost, url, body)
}

// DoJSON sends a request with a JSON-encoded body
func (c *Client) DoJSON(ctx context.Context, method, url string, body interface{}) (*http.Response, error) {
	req, err := NewJSONRequest(method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create JSON request: %w", err)
	}
	return c.Do(ctx, req)
}

func (c *Client) recordResult(resp *http.Response, err error, latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metrics.TotalRequests++
	c.metrics.TotalLatency += latency
	c.metrics.AvgLatency = c.metrics.TotalLatency / time.Duration(c.metrics.TotalRequests)

	if err != nil {
		c.metrics.FailedReqs++
		return
	}

	c.metrics.StatusCounts[resp.StatusCode]++
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		c.metrics.SuccessfulReqs++
	} else {
		c.metrics.FailedReqs++
	}
}

// GetMetrics returns a snapshot of the client's request statistics
func (c *Client) GetMetrics() Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := *c.metrics
	snapshot.StatusCounts = make(map[int]int64, len(c.metrics.StatusCounts))
	for code, count := range c.metrics.StatusCounts {
		snapshot.StatusCounts[code] = count
	}
	return snapshot
}

// ResetMetrics clears all recorded statistics
func (c *Client) ResetMetrics() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = &Metrics{StatusCounts: make(map[int]int64)}
}

// Builder provides a fluent API for constructing clients
type Builder struct {
	config Config
}

// NewBuilder creates a client builder with empty configuration
func NewBuilder() *Builder {
	return &Builder{
		config: Config{
			Headers: make(map[string]string),
		},
	}
}

// WithTimeout sets the total request timeout
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithHeaders adds default headers applied to every request
func (b *Builder) WithHeaders(headers map[string]string) *Builder {
	for k, v := range headers {
		b.config.Headers[k] = v
	}
	return b
}

// WithHeader adds a single default header
func (b *Builder) WithHeader(key, value string) *Builder {
	b.config.Headers[key] = value
	return b
}

// WithUserAgent sets the User-Agent header
func (b *Builder) WithUserAgent(userAgent string) *Builder {
	b.config.UserAgent = userAgent
	return b
}

// WithRequestInterceptor sets a request interceptor
func (b *Builder) WithRequestInterceptor(interceptor RequestInterceptor) *Builder {
	b.config.RequestInterceptor = interceptor
	return b
}

// WithResponseInterceptor sets a response interceptor
func (b *Builder) WithResponseInterceptor(interceptor ResponseInterceptor) *Builder {
	b.config.ResponseInterceptor = interceptor
	return b
}

// WithTransportConfig tunes the connection pool
func (b *Builder) WithTransportConfig(maxIdleConns, maxIdleConnsPerHost, maxConnsPerHost int) *Builder {
	b.config.MaxIdleConns = maxIdleConns
	b.config.MaxIdleConnsPerHost = maxIdleConnsPerHost
	b.config.MaxConnsPerHost = maxConnsPerHost
	return b
}

// WithIdleConnTimeout sets how long idle connections are kept open
func (b *Builder) WithIdleConnTimeout(timeout time.Duration) *Builder {
	b.config.IdleConnTimeout = timeout
	return b
}

// Build creates the client
func (b *Builder) Build() *Client {
	return NewClient(b.config)
}
