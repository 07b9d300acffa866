package llm

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
)

// Category buckets provider failures by how the caller should react.
type Category int

const (
	// CategoryGeneric is any failure without a more specific bucket.
	CategoryGeneric Category = iota
	// CategoryInvalidCredential means the API key is missing or rejected.
	// Retrying cannot help.
	CategoryInvalidCredential
	// CategoryRateLimited means the provider throttled the request.
	CategoryRateLimited
	// CategoryNetwork is a transport-level failure.
	CategoryNetwork
	// CategoryCancelled means the caller's context ended the call.
	CategoryCancelled
)

func (c Category) String() string {
	switch c {
	case CategoryInvalidCredential:
		return "invalid_credential"
	case CategoryRateLimited:
		return "rate_limited"
	case CategoryNetwork:
		return "network"
	case CategoryCancelled:
		return "cancelled"
	default:
		return "generic"
	}
}

// UserMessage is a safe, user-facing description of the failure bucket.
func (c Category) UserMessage() string {
	switch c {
	case CategoryInvalidCredential:
		return "The model provider rejected the configured API key."
	case CategoryRateLimited:
		return "The model provider is rate limiting requests. Try again shortly."
	case CategoryNetwork:
		return "Could not reach the model provider."
	case CategoryCancelled:
		return "The request was cancelled."
	default:
		return "The model request failed."
	}
}

// Classify maps a provider error to a Category.
func Classify(err error) Category {
	if err == nil {
		return CategoryGeneric
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CategoryCancelled
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode)
	}
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return CategoryGeneric
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return CategoryNetwork
	}
	return CategoryGeneric
}

func classifyStatus(status int) Category {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return CategoryInvalidCredential
	case http.StatusTooManyRequests:
		return CategoryRateLimited
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return CategoryNetwork
	default:
		return CategoryGeneric
	}
}

// Retryable reports whether another attempt could plausibly succeed.
func Retryable(err error) bool {
	switch Classify(err) {
	case CategoryCancelled, CategoryInvalidCredential:
		return false
	default:
		return true
	}
}
