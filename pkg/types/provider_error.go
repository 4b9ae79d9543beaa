package types

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode categorizes provider errors
type ErrorCode string

const (
	ErrCodeUnknown        ErrorCode = "unknown"
	ErrCodeUnconfigured   ErrorCode = "unconfigured"
	ErrCodeAuthentication ErrorCode = "authentication"
	ErrCodeRateLimit      ErrorCode = "rate_limit"
	ErrCodeInvalidRequest ErrorCode = "invalid_request"
	ErrCodeNotFound       ErrorCode = "not_found"
	ErrCodeServerError    ErrorCode = "server_error"
	ErrCodeTimeout        ErrorCode = "timeout"
	ErrCodeNetwork        ErrorCode = "network"
	ErrCodeCanceled       ErrorCode = "canceled"
)

// ProviderError represents a standardized error from a provider.
// ErrCodeUnconfigured means the provider never reached the network; every
// other code describes an attempted call that failed.
type ProviderError struct {
	Code        ErrorCode     // Categorized error code
	Message     string        // Human-readable message
	StatusCode  int           // HTTP status code (0 if not applicable)
	Provider    ProviderType  // Which provider generated this error
	Operation   string        // What operation failed (e.g., "generate", "health_check")
	OriginalErr error         // Wrapped original error
	RetryAfter  time.Duration // Wait hint from the backend (for rate limits)
	RequestID   string        // Request ID sent with the failing call, if any
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] %s (status=%d, code=%s)", e.Provider, e.Message, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("[%s] %s (code=%s)", e.Provider, e.Message, e.Code)
}

// Unwrap returns the original error for errors.Is/As
func (e *ProviderError) Unwrap() error {
	return e.OriginalErr
}

// IsRetryable returns true if a later attempt against the same provider could
// plausibly succeed. The fallback router does not retry; this is advisory for
// callers invoking a provider directly.
func (e *ProviderError) IsRetryable() bool {
	switch e.Code {
	case ErrCodeRateLimit, ErrCodeServerError, ErrCodeTimeout, ErrCodeNetwork:
		return true
	}
	return false
}

// WithOperation sets the operation field and returns the error for chaining
func (e *ProviderError) WithOperation(operation string) *ProviderError {
	e.Operation = operation
	return e
}

// WithStatusCode sets the status code field and returns the error for chaining
func (e *ProviderError) WithStatusCode(statusCode int) *ProviderError {
	e.StatusCode = statusCode
	return e
}

// WithOriginalErr sets the original error field and returns the error for chaining
func (e *ProviderError) WithOriginalErr(err error) *ProviderError {
	e.OriginalErr = err
	return e
}

// WithRequestID sets the request ID field and returns the error for chaining
func (e *ProviderError) WithRequestID(requestID string) *ProviderError {
	e.RequestID = requestID
	return e
}

// WithRetryAfter sets the retry-after hint and returns the error for chaining
func (e *ProviderError) WithRetryAfter(retryAfter time.Duration) *ProviderError {
	e.RetryAfter = retryAfter
	return e
}

// NewProviderError creates a new ProviderError
func NewProviderError(provider ProviderType, code ErrorCode, message string) *ProviderError {
	return &ProviderError{
		Code:     code,
		Message:  message,
		Provider: provider,
	}
}

// NewUnconfiguredError creates the error raised when Generate is invoked on a
// provider whose availability check would fail. It is always produced before
// any network I/O.
func NewUnconfiguredError(provider ProviderType, message string) *ProviderError {
	return &ProviderError{
		Code:     ErrCodeUnconfigured,
		Message:  message,
		Provider: provider,
	}
}

// NewAuthError creates a new authentication error
func NewAuthError(provider ProviderType, message string) *ProviderError {
	return &ProviderError{
		Code:     ErrCodeAuthentication,
		Message:  message,
		Provider: provider,
	}
}

// NewRateLimitError creates a new rate limit error
func NewRateLimitError(provider ProviderType, retryAfter time.Duration) *ProviderError {
	return &ProviderError{
		Code:       ErrCodeRateLimit,
		Message:    "rate limit exceeded",
		Provider:   provider,
		RetryAfter: retryAfter,
	}
}

// NewInvalidRequestError creates a new invalid request error
func NewInvalidRequestError(provider ProviderType, message string) *ProviderError {
	return &ProviderError{
		Code:     ErrCodeInvalidRequest,
		Message:  message,
		Provider: provider,
	}
}

// NewServerError creates a new server error
func NewServerError(provider ProviderType, statusCode int, message string) *ProviderError {
	return &ProviderError{
		Code:       ErrCodeServerError,
		Message:    message,
		Provider:   provider,
		StatusCode: statusCode,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(provider ProviderType, message string) *ProviderError {
	return &ProviderError{
		Code:     ErrCodeTimeout,
		Message:  message,
		Provider: provider,
	}
}

// NewNetworkError creates a new network error
func NewNetworkError(provider ProviderType, message string) *ProviderError {
	return &ProviderError{
		Code:     ErrCodeNetwork,
		Message:  message,
		Provider: provider,
	}
}

// ClassifyHTTPError determines error code from HTTP status
func ClassifyHTTPError(statusCode int) ErrorCode {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrCodeAuthentication
	case http.StatusTooManyRequests:
		return ErrCodeRateLimit
	case http.StatusBadRequest:
		return ErrCodeInvalidRequest
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusRequestTimeout:
		return ErrCodeTimeout
	default:
		if statusCode >= 500 {
			return ErrCodeServerError
		}
		return ErrCodeUnknown
	}
}

// IsUnconfigured reports whether err is a ProviderError with
// ErrCodeUnconfigured anywhere in its chain.
func IsUnconfigured(err error) bool {
	return hasCode(err, ErrCodeUnconfigured)
}

// IsAuthError reports whether err is an authentication ProviderError.
func IsAuthError(err error) bool {
	return hasCode(err, ErrCodeAuthentication)
}

// IsRateLimitError reports whether err is a rate-limit ProviderError.
func IsRateLimitError(err error) bool {
	return hasCode(err, ErrCodeRateLimit)
}

func hasCode(err error, code ErrorCode) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}
