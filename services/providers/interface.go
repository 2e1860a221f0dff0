package providers

import (
	"context"
	"time"

	"github.com/upb/route-optimizer/models"
	"github.com/upb/route-optimizer/services/prompt"
)

// DefaultTimeout bounds a single model call when none is configured
const DefaultTimeout = 30 * time.Second

// Provider is a language-model backend able to answer an assignment prompt
type Provider interface {
	// Name returns the backend name (e.g., "openai", "ollama")
	Name() string

	// Kind reports whether the backend is remote or local
	Kind() models.ProviderKind

	// Model returns the model identifier sent with each request
	Model() string

	// Generate sends the prompt and returns the raw reply text.
	// Errors are services.DomainError values of the LLM path taxonomy.
	Generate(ctx context.Context, p prompt.Prompt) (string, error)

	// Ping checks that the backend answers at all
	Ping(ctx context.Context) error
}

// Config holds the settings shared by every backend
type Config struct {
	// APIKey authenticates against remote backends
	APIKey string

	// BaseURL overrides the backend endpoint
	BaseURL string

	// Model to request
	Model string

	// Timeout for one request, including reading the body
	Timeout time.Duration

	// Temperature sent with each request
	Temperature float64

	// Headers added to every request
	Headers map[string]string
}

// DefaultConfig returns a configuration with the default timeout and a low temperature
func DefaultConfig() Config {
	return Config{
		Timeout:     DefaultTimeout,
		Temperature: 0.1,
		Headers:     make(map[string]string),
	}
}

// ProviderError carries the backend's own description of a failed call
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Code is the backend error code or type, when it sent one
	Code string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
	}
}
