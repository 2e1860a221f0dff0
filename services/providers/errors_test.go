package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/upb/route-optimizer/services"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestTransportError(t *testing.T) {
	dialErr := &url.Error{Op: "Post", URL: "http://localhost:1", Err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}}

	tests := []struct {
		name     string
		err      error
		expected services.ErrorType
	}{
		{name: "context deadline", err: fmt.Errorf("do: %w", context.DeadlineExceeded), expected: services.ErrorTypeTimeout},
		{name: "net timeout", err: &url.Error{Op: "Get", URL: "http://x", Err: timeoutErr{}}, expected: services.ErrorTypeTimeout},
		{name: "canceled", err: context.Canceled, expected: services.ErrorTypeTimeout},
		{name: "connection refused", err: dialErr, expected: services.ErrorTypeUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := TransportError("ollama", tt.err)
			assert.Equal(t, tt.expected, services.GetErrorType(err))
			assert.ErrorIs(t, err, tt.err)
			assert.Contains(t, err.Error(), "ollama")
		})
	}
}

func TestStatusError(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		authenticated bool
		expected      services.ErrorType
	}{
		{name: "401 authenticated", status: http.StatusUnauthorized, authenticated: true, expected: services.ErrorTypeAuth},
		{name: "403 authenticated", status: http.StatusForbidden, authenticated: true, expected: services.ErrorTypeAuth},
		{name: "401 unauthenticated backend", status: http.StatusUnauthorized, authenticated: false, expected: services.ErrorTypeProvider},
		{name: "500", status: http.StatusInternalServerError, authenticated: true, expected: services.ErrorTypeProvider},
		{name: "429", status: http.StatusTooManyRequests, authenticated: true, expected: services.ErrorTypeProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provErr := NewProviderError("openai", "code", "failed", tt.status, nil)
			err := StatusError(provErr, tt.authenticated)

			assert.Equal(t, tt.expected, services.GetErrorType(err))
			assert.Equal(t, tt.status, services.GetErrorDetails(err)["status_code"])

			var unwrapped *ProviderError
			assert.True(t, errors.As(err, &unwrapped))
			assert.Equal(t, tt.status, unwrapped.StatusCode)
		})
	}
}

func TestResponseError(t *testing.T) {
	err := ResponseError("openai", "empty choices", nil)
	assert.True(t, services.IsProviderError(err))
	assert.Contains(t, err.Error(), "empty choices")
}

func TestProviderError_Error(t *testing.T) {
	assert.Equal(t, "bad", NewProviderError("x", "", "bad", 0, nil).Error())
	assert.Equal(t, "bad: cause", NewProviderError("x", "", "bad", 0, errors.New("cause")).Error())
}
