package base

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/cecil-the-coder/llm-fallback/internal/httpclient"
	"github.com/cecil-the-coder/llm-fallback/pkg/ratelimit"
	"github.com/cecil-the-coder/llm-fallback/pkg/types"
)

// HTTPError converts a non-2xx API response into a normalized provider
// error. Authentication failures and rate limits get uniform messages so
// callers can treat them alike across vendors; other statuses keep the
// vendor's own message.
func (p *BaseProvider) HTTPError(operation string, resp *http.Response, body []byte) *types.ProviderError {
	detail := httpclient.ExtractErrorMessage(string(body))
	code := types.ClassifyHTTPError(resp.StatusCode)

	var perr *types.ProviderError
	switch code {
	case types.ErrCodeAuthentication:
		msg := "authentication failed"
		if detail != "" {
			msg += ": " + detail
		}
		perr = types.NewAuthError(p.Type(), msg)
	case types.ErrCodeRateLimit:
		perr = types.NewRateLimitError(p.Type(), ratelimit.RetryAfter(resp.Header))
	default:
		msg := detail
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		perr = types.NewProviderError(p.Type(), code, msg)
	}

	requestID := resp.Header.Get("x-request-id")
	if requestID == "" && resp.Request != nil {
		requestID = resp.Request.Header.Get(httpclient.RequestIDHeader)
	}

	return perr.WithOperation(operation).WithStatusCode(resp.StatusCode).WithRequestID(requestID)
}

// TransportError converts a failure from the HTTP client itself into a
// provider error. The original error stays in the chain, so context
// cancellation remains visible through errors.Is.
func (p *BaseProvider) TransportError(operation string, err error) *types.ProviderError {
	var perr *types.ProviderError
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		perr = types.NewProviderError(p.Type(), types.ErrCodeCanceled, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		perr = types.NewTimeoutError(p.Type(), "request timed out")
	case errors.As(err, &netErr) && netErr.Timeout():
		perr = types.NewTimeoutError(p.Type(), "request timed out")
	default:
		perr = types.NewNetworkError(p.Type(), "request failed")
	}
	return perr.WithOperation(operation).WithOriginalErr(err)
}
