package base

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cecil-the-coder/llm-fallback/pkg/types"
)

func newErrorResponse(statusCode int, headers http.Header) *http.Response {
	if headers == nil {
		headers = http.Header{}
	}
	return &http.Response{
		StatusCode: statusCode,
		Header:     headers,
	}
}

func TestHTTPError(t *testing.T) {
	provider := NewBaseProvider("openrouter", types.ProviderConfig{Type: types.ProviderTypeOpenRouter}, nil, nil)

	t.Run("AuthWithDetail", func(t *testing.T) {
		resp := newErrorResponse(http.StatusUnauthorized, nil)
		body := []byte(`{"error": {"message": "invalid api key"}}`)

		perr := provider.HTTPError("generate", resp, body)

		assert.Equal(t, types.ErrCodeAuthentication, perr.Code)
		assert.Equal(t, "authentication failed: invalid api key", perr.Message)
		assert.Equal(t, http.StatusUnauthorized, perr.StatusCode)
		assert.Equal(t, "generate", perr.Operation)
		assert.True(t, types.IsAuthError(perr))
	})

	t.Run("AuthWithoutDetail", func(t *testing.T) {
		resp := newErrorResponse(http.StatusForbidden, nil)

		perr := provider.HTTPError("generate", resp, nil)

		assert.Equal(t, types.ErrCodeAuthentication, perr.Code)
		assert.Equal(t, "authentication failed", perr.Message)
	})

	t.Run("RateLimitNormalized", func(t *testing.T) {
		headers := http.Header{}
		headers.Set("Retry-After", "30")
		resp := newErrorResponse(http.StatusTooManyRequests, headers)
		body := []byte(`{"error": {"message": "you have been rate limited, slow down"}}`)

		perr := provider.HTTPError("generate", resp, body)

		assert.Equal(t, types.ErrCodeRateLimit, perr.Code)
		assert.Equal(t, "rate limit exceeded", perr.Message)
		assert.Equal(t, 30*time.Second, perr.RetryAfter)
		assert.True(t, types.IsRateLimitError(perr))
	})

	t.Run("ServerErrorKeepsVendorMessage", func(t *testing.T) {
		resp := newErrorResponse(http.StatusBadGateway, nil)
		body := []byte(`{"message": "upstream exploded"}`)

		perr := provider.HTTPError("generate", resp, body)

		assert.Equal(t, types.ErrCodeServerError, perr.Code)
		assert.Equal(t, "upstream exploded", perr.Message)
		assert.Equal(t, http.StatusBadGateway, perr.StatusCode)
	})

	t.Run("EmptyBodyFallsBackToStatusText", func(t *testing.T) {
		resp := newErrorResponse(http.StatusServiceUnavailable, nil)

		perr := provider.HTTPError("generate", resp, nil)

		assert.Equal(t, types.ErrCodeServerError, perr.Code)
		assert.Equal(t, "Service Unavailable", perr.Message)
	})

	t.Run("BadRequestClassified", func(t *testing.T) {
		resp := newErrorResponse(http.StatusBadRequest, nil)
		body := []byte(`{"error": {"message": "model is required"}}`)

		perr := provider.HTTPError("generate", resp, body)

		assert.Equal(t, types.ErrCodeInvalidRequest, perr.Code)
		assert.Equal(t, "model is required", perr.Message)
	})

	t.Run("RequestIDFromResponseHeader", func(t *testing.T) {
		headers := http.Header{}
		headers.Set("x-request-id", "req-abc123")
		resp := newErrorResponse(http.StatusInternalServerError, headers)

		perr := provider.HTTPError("generate", resp, nil)

		assert.Equal(t, "req-abc123", perr.RequestID)
	})

	t.Run("RequestIDFallsBackToSentHeader", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "http://example.com", nil)
		req.Header.Set("X-Request-ID", "sent-id-456")
		resp := newErrorResponse(http.StatusInternalServerError, nil)
		resp.Request = req

		perr := provider.HTTPError("generate", resp, nil)

		assert.Equal(t, "sent-id-456", perr.RequestID)
	})
}

func TestTransportError(t *testing.T) {
	provider := NewBaseProvider("gemini", types.ProviderConfig{Type: types.ProviderTypeGemini}, nil, nil)

	t.Run("Canceled", func(t *testing.T) {
		perr := provider.TransportError("generate", context.Canceled)

		assert.Equal(t, types.ErrCodeCanceled, perr.Code)
		assert.True(t, errors.Is(perr, context.Canceled))
	})

	t.Run("DeadlineExceeded", func(t *testing.T) {
		perr := provider.TransportError("generate", context.DeadlineExceeded)

		assert.Equal(t, types.ErrCodeTimeout, perr.Code)
		assert.True(t, errors.Is(perr, context.DeadlineExceeded))
	})

	t.Run("WrappedCancellation", func(t *testing.T) {
		wrapped := &url.Error{Op: "Post", URL: "http://example.com", Err: context.Canceled}
		perr := provider.TransportError("generate", wrapped)

		assert.Equal(t, types.ErrCodeCanceled, perr.Code)
		assert.True(t, errors.Is(perr, context.Canceled))
	})

	t.Run("PlainNetworkFailure", func(t *testing.T) {
		perr := provider.TransportError("generate", errors.New("connection refused"))

		assert.Equal(t, types.ErrCodeNetwork, perr.Code)
		assert.Equal(t, "request failed", perr.Message)
		assert.Equal(t, "generate", perr.Operation)
		assert.Equal(t, types.ProviderTypeGemini, perr.Provider)
	})
}
