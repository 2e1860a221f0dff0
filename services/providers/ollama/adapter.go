// Package ollama talks to a local Ollama instance over its REST API.
// Endpoints used:
//   - POST /api/chat  non-streaming chat completion in JSON format
//   - GET  /api/tags  health check (lists installed models)
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/upb/route-optimizer/models"
	"github.com/upb/route-optimizer/services"
	"github.com/upb/route-optimizer/services/prompt"
	"github.com/upb/route-optimizer/services/providers"
)

const (
	DefaultBaseURL = "http://localhost:11434"
	defaultModel   = "llama3.1"

	mimeJSON          = "application/json"
	headerContentType = "Content-Type"
	maxResponseBytes  = 4 << 20
)

// Adapter implements providers.Provider against a running Ollama instance
type Adapter struct {
	baseURL     string
	model       string
	temperature float64
	timeout     time.Duration
	headers     map[string]string
	httpClient  *http.Client
}

// NewAdapter creates an Adapter; empty settings fall back to the local defaults
func NewAdapter(config providers.Config) *Adapter {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := config.Model
	if model == "" {
		model = defaultModel
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = providers.DefaultTimeout
	}

	return &Adapter{
		baseURL:     baseURL,
		model:       model,
		temperature: config.Temperature,
		timeout:     timeout,
		headers:     config.Headers,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Build is the registry builder for this backend
func Build(config providers.Config) (providers.Provider, error) {
	return NewAdapter(config), nil
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return "ollama"
}

// Kind returns the local kind
func (a *Adapter) Kind() models.ProviderKind {
	return models.ProviderKindLocal
}

// Model returns the configured model
func (a *Adapter) Model() string {
	return a.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message    chatMessage `json:"message"`
	DoneReason string      `json:"done_reason"`
	Done       bool        `json:"done"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Generate performs a non-streaming chat via POST /api/chat
func (a *Adapter) Generate(ctx context.Context, p prompt.Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
		Stream:  false,
		Format:  "json",
		Options: map[string]any{"temperature": a.temperature},
	})
	if err != nil {
		return "", services.WrapInternal("failed to marshal ollama request", err)
	}

	respBody, err := a.doPost(ctx, "/api/chat", body)
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", providers.ResponseError(a.Name(), "malformed chat response", err)
	}
	if strings.TrimSpace(resp.Message.Content) == "" {
		return "", providers.ResponseError(a.Name(), "chat response content is empty", nil)
	}
	return resp.Message.Content, nil
}

// Ping calls GET /api/tags and succeeds if Ollama answers with 200
func (a *Adapter) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/tags", nil)
	if err != nil {
		return services.WrapInternal("ollama healthcheck: build request", err)
	}
	_, err = a.do(req)
	return err
}

// doPost sends a JSON POST to baseURL+path and returns the 2xx response body
func (a *Adapter) doPost(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, services.WrapInternal(fmt.Sprintf("ollama post %s: build request", path), err)
	}
	req.Header.Set(headerContentType, mimeJSON)
	return a.do(req)
}

func (a *Adapter) do(req *http.Request) ([]byte, error) {
	for k, v := range a.headers {
		req.Header.Set(k, v)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, providers.TransportError(a.Name(), err)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, providers.TransportError(a.Name(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := http.StatusText(resp.StatusCode)
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			message = errResp.Error
		}
		return nil, providers.StatusError(
			providers.NewProviderError(a.Name(), "", message, resp.StatusCode, nil),
			false,
		)
	}
	return respBody, nil
}
