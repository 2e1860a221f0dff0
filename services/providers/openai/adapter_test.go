package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/route-optimizer/models"
	"github.com/upb/route-optimizer/services"
	"github.com/upb/route-optimizer/services/prompt"
	"github.com/upb/route-optimizer/services/providers"
)

var testPrompt = prompt.Prompt{System: "system text", User: "user text"}

func chatResponse(content string) OpenAIChatResponse {
	return OpenAIChatResponse{
		ID:      "chatcmpl-test123",
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   "gpt-4o-mini",
		Choices: []OpenAIChoice{
			{Index: 0, Message: OpenAIMessage{Role: "assistant", Content: content}, FinishReason: "stop"},
		},
	}
}

func newTestAdapter(url string) *OpenAIAdapter {
	return NewOpenAIAdapter(providers.Config{
		APIKey:      "test-key",
		BaseURL:     url,
		Timeout:     2 * time.Second,
		Temperature: 0.1,
	})
}

func TestNewOpenAIAdapter(t *testing.T) {
	adapter := NewOpenAIAdapter(providers.Config{APIKey: "k"})

	assert.Equal(t, "openai", adapter.Name())
	assert.Equal(t, models.ProviderKindRemote, adapter.Kind())
	assert.Equal(t, defaultModel, adapter.Model())
	assert.Equal(t, defaultBaseURL, adapter.config.BaseURL)
	assert.Equal(t, providers.DefaultTimeout, adapter.config.Timeout)

	trimmed := NewOpenAIAdapter(providers.Config{BaseURL: "http://proxy/v1/", Model: "gpt-4o"})
	assert.Equal(t, "http://proxy/v1", trimmed.config.BaseURL)
	assert.Equal(t, "gpt-4o", trimmed.Model())
}

func TestBuild(t *testing.T) {
	p, err := Build(providers.Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
}

func TestOpenAIAdapter_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req OpenAIChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "system text", req.Messages[0].Content)
		assert.Equal(t, "user", req.Messages[1].Role)
		assert.Equal(t, "user text", req.Messages[1].Content)
		require.NotNil(t, req.Temperature)
		assert.Equal(t, 0.1, *req.Temperature)
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse(`{"version":"route-assignment/v1","assignments":[]}`))
	}))
	defer server.Close()

	reply, err := newTestAdapter(server.URL).Generate(context.Background(), testPrompt)

	require.NoError(t, err)
	assert.Equal(t, `{"version":"route-assignment/v1","assignments":[]}`, reply)
}

func TestOpenAIAdapter_Generate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		expected services.ErrorType
	}{
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(OpenAIErrorResponse{Error: OpenAIError{Message: "Incorrect API key", Type: "invalid_request_error", Code: "invalid_api_key"}})
			},
			expected: services.ErrorTypeAuth,
		},
		{
			name: "forbidden",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
			expected: services.ErrorTypeAuth,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte("upstream down"))
			},
			expected: services.ErrorTypeProvider,
		},
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(OpenAIErrorResponse{Error: OpenAIError{Message: "Rate limit reached", Type: "requests"}})
			},
			expected: services.ErrorTypeProvider,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("{not json"))
			},
			expected: services.ErrorTypeProvider,
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(OpenAIChatResponse{ID: "x"})
			},
			expected: services.ErrorTypeProvider,
		},
		{
			name: "empty content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(chatResponse("  "))
			},
			expected: services.ErrorTypeProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := newTestAdapter(server.URL).Generate(context.Background(), testPrompt)

			require.Error(t, err)
			assert.Equal(t, tt.expected, services.GetErrorType(err), err.Error())
			assert.True(t, services.IsLLMPathError(err))
		})
	}
}

func TestOpenAIAdapter_Generate_ErrorMessageFromBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(OpenAIErrorResponse{Error: OpenAIError{Message: "Invalid request", Type: "invalid_request_error"}})
	}))
	defer server.Close()

	_, err := newTestAdapter(server.URL).Generate(context.Background(), testPrompt)

	var provErr *providers.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusBadRequest, provErr.StatusCode)
	assert.Equal(t, "invalid_request_error", provErr.Code)
	assert.Equal(t, "Invalid request", provErr.Message)
}

func TestOpenAIAdapter_Generate_MissingKey(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(providers.Config{BaseURL: server.URL})
	_, err := adapter.Generate(context.Background(), testPrompt)

	assert.True(t, services.IsAuthError(err))
	assert.False(t, called)
	assert.True(t, services.IsAuthError(adapter.Ping(context.Background())))
}

func TestOpenAIAdapter_Generate_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	adapter := NewOpenAIAdapter(providers.Config{APIKey: "k", BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	_, err := adapter.Generate(context.Background(), testPrompt)

	assert.True(t, services.IsTimeoutError(err), "got %v", err)
}

func TestOpenAIAdapter_Generate_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestAdapter(url).Generate(context.Background(), testPrompt)

	assert.True(t, services.IsUnreachableError(err), "got %v", err)
}

func TestOpenAIAdapter_Generate_NoRetry(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestAdapter(server.URL).Generate(context.Background(), testPrompt)

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestOpenAIAdapter_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/models", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	assert.NoError(t, newTestAdapter(server.URL).Ping(context.Background()))

	wrongKey := NewOpenAIAdapter(providers.Config{APIKey: "other", BaseURL: server.URL})
	assert.True(t, services.IsAuthError(wrongKey.Ping(context.Background())))
}
