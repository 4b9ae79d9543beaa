package ratelimit

import (
	"net/http"
	"testing"
	"time"
)

func TestGeminiParser_Parse_SuccessResponse(t *testing.T) {
	parser := NewGeminiParser()

	// Successful Gemini responses carry no rate limit headers at all
	info, err := parser.Parse(http.Header{}, "gemini-2.0-flash")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if info.Provider != "gemini" {
		t.Errorf("Provider = %v, want gemini", info.Provider)
	}
	if info.Model != "gemini-2.0-flash" {
		t.Errorf("Model = %v, want gemini-2.0-flash", info.Model)
	}
	if info.RequestsLimit != 0 || info.TokensLimit != 0 {
		t.Error("Expected zero limits, Gemini does not report them")
	}
	if info.RetryAfter != 0 {
		t.Errorf("RetryAfter = %v, want 0", info.RetryAfter)
	}
}

func TestGeminiParser_Parse_RetryAfterSeconds(t *testing.T) {
	parser := NewGeminiParser()

	headers := http.Header{
		"Retry-After": []string{"45"},
	}

	info, err := parser.Parse(headers, "gemini-2.0-flash")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if info.RetryAfter != 45*time.Second {
		t.Errorf("RetryAfter = %v, want 45s", info.RetryAfter)
	}
}

func TestGeminiParser_Parse_RetryAfterHTTPDate(t *testing.T) {
	parser := NewGeminiParser()

	headers := http.Header{
		"Retry-After": []string{time.Now().Add(2 * time.Minute).UTC().Format(time.RFC1123)},
	}

	info, err := parser.Parse(headers, "gemini-2.0-flash")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if info.RetryAfter <= 0 || info.RetryAfter > 2*time.Minute {
		t.Errorf("RetryAfter = %v, want near 2m", info.RetryAfter)
	}
}

func TestGeminiParser_Parse_RequestID(t *testing.T) {
	parser := NewGeminiParser()

	headers := http.Header{
		"X-Request-Id": []string{"req_gem_456"},
	}

	info, err := parser.Parse(headers, "gemini-2.0-flash")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if info.RequestID != "req_gem_456" {
		t.Errorf("RequestID = %v, want req_gem_456", info.RequestID)
	}
}
