package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/upb/route-optimizer/models"
	"github.com/upb/route-optimizer/services"
	"github.com/upb/route-optimizer/services/prompt"
	"github.com/upb/route-optimizer/services/providers"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"

	// maxResponseBytes caps how much of a reply body is read
	maxResponseBytes = 4 << 20
)

// OpenAIAdapter implements the Provider interface for OpenAI-compatible chat completion APIs
type OpenAIAdapter struct {
	config     providers.Config
	httpClient *http.Client
}

// NewOpenAIAdapter creates a new OpenAI adapter
func NewOpenAIAdapter(config providers.Config) *OpenAIAdapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if config.Model == "" {
		config.Model = defaultModel
	}

	if config.Timeout <= 0 {
		config.Timeout = providers.DefaultTimeout
	}

	return &OpenAIAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Build is the registry builder for this backend
func Build(config providers.Config) (providers.Provider, error) {
	return NewOpenAIAdapter(config), nil
}

// Name returns the provider name
func (a *OpenAIAdapter) Name() string {
	return "openai"
}

// Kind returns the remote kind
func (a *OpenAIAdapter) Kind() models.ProviderKind {
	return models.ProviderKindRemote
}

// Model returns the configured model
func (a *OpenAIAdapter) Model() string {
	return a.config.Model
}

// Generate performs one chat completion request in JSON mode. It never retries.
func (a *OpenAIAdapter) Generate(ctx context.Context, p prompt.Prompt) (string, error) {
	if a.config.APIKey == "" {
		return "", services.NewDomainError(services.ErrorTypeAuth, "openai API key is not configured", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	temperature := a.config.Temperature
	reqBody, err := json.Marshal(&OpenAIChatRequest{
		Model: a.config.Model,
		Messages: []OpenAIMessage{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
		Temperature:    &temperature,
		ResponseFormat: &OpenAIResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", services.WrapInternal("failed to marshal openai request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", services.WrapInternal("failed to create openai request", err)
	}
	a.setHeaders(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	respBody, err := a.do(httpReq)
	if err != nil {
		return "", err
	}

	var openaiResp OpenAIChatResponse
	if err := json.Unmarshal(respBody, &openaiResp); err != nil {
		return "", providers.ResponseError(a.Name(), "malformed response body", err)
	}
	if len(openaiResp.Choices) == 0 {
		return "", providers.ResponseError(a.Name(), "response has no choices", nil)
	}

	content := openaiResp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", providers.ResponseError(a.Name(), "response content is empty", nil)
	}
	return content, nil
}

// Ping lists models, which exercises both reachability and the credential
func (a *OpenAIAdapter) Ping(ctx context.Context) error {
	if a.config.APIKey == "" {
		return services.NewDomainError(services.ErrorTypeAuth, "openai API key is not configured", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.config.BaseURL+"/models", nil)
	if err != nil {
		return services.WrapInternal("failed to create openai request", err)
	}
	a.setHeaders(req)

	_, err = a.do(req)
	return err
}

func (a *OpenAIAdapter) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	for k, v := range a.config.Headers {
		req.Header.Set(k, v)
	}
}

// do executes req and returns the body of a 2xx response
func (a *OpenAIAdapter) do(req *http.Request) ([]byte, error) {
	httpResp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, providers.TransportError(a.Name(), err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, providers.TransportError(a.Name(), err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, a.handleErrorResponse(httpResp.StatusCode, respBody)
	}
	return respBody, nil
}

// handleErrorResponse handles OpenAI error responses
func (a *OpenAIAdapter) handleErrorResponse(statusCode int, body []byte) error {
	var errResp OpenAIErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return providers.StatusError(
			providers.NewProviderError(a.Name(), "UNKNOWN_ERROR", http.StatusText(statusCode), statusCode, nil),
			true,
		)
	}

	return providers.StatusError(
		providers.NewProviderError(a.Name(), errResp.Error.Type, errResp.Error.Message, statusCode, nil),
		true,
	)
}

// OpenAI-specific request/response types

type OpenAIChatRequest struct {
	Model          string                `json:"model"`
	Messages       []OpenAIMessage       `json:"messages"`
	Temperature    *float64              `json:"temperature,omitempty"`
	ResponseFormat *OpenAIResponseFormat `json:"response_format,omitempty"`
}

type OpenAIResponseFormat struct {
	Type string `json:"type"`
}

type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type OpenAIChatResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []OpenAIChoice `json:"choices"`
}

type OpenAIChoice struct {
	Index        int           `json:"index"`
	Message      OpenAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type OpenAIErrorResponse struct {
	Error OpenAIError `json:"error"`
}

type OpenAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}
