package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/upb/route-optimizer/config"
	"github.com/upb/route-optimizer/models"
	"github.com/upb/route-optimizer/services/providers"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            8000,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			ShutdownTimeout: time.Second,
			RequestTimeout:  5 * time.Second,
		},
		LLM: config.LLMConfig{
			Enabled:       true,
			Provider:      config.ProviderNone,
			LocalURL:      "http://localhost:11434",
			Timeout:       2 * time.Second,
			StatusTimeout: time.Second,
			Temperature:   0.1,
		},
		Observability: config.ObservabilityConfig{
			LogLevel:       "debug",
			LogFormat:      "console",
			MetricsEnabled: true,
		},
	}
}

func request() *models.OptimizationRequest {
	return &models.OptimizationRequest{
		Deliveries: []models.RawDelivery{{ID: "d1", Weight: 10.0}, {ID: "d2", Weight: 30.0}},
		Fleet:      []models.RawVehicle{{ID: "v1", Capacity: 35.0}},
	}
}

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry()
	assert.Equal(t, []string{"local", "ollama", "openai", "remote"}, registry.Names())
}

func TestNewDependencies(t *testing.T) {
	t.Run("no provider selected", func(t *testing.T) {
		ctx := context.Background()
		deps, err := NewDependencies(ctx, testConfig(t), zaptest.NewLogger(t))
		require.NoError(t, err)

		assert.NotNil(t, deps.Config)
		assert.NotNil(t, deps.Logger)
		assert.NotNil(t, deps.Metrics)
		assert.NotNil(t, deps.Registry)
		assert.Nil(t, deps.Provider)
		require.NotNil(t, deps.Optimizer)

		status := deps.Optimizer.Status(ctx)
		assert.Equal(t, models.ProviderKindNone, status.Provider)
		assert.False(t, status.Configured)

		result, err := deps.Optimizer.Optimize(ctx, request())
		require.NoError(t, err)
		assert.Equal(t, models.MethodBasicAlgorithm, result.OptimizationMethod)

		assert.NoError(t, deps.Close(ctx))
	})

	t.Run("metrics disabled", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Observability.MetricsEnabled = false

		deps, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.Nil(t, deps.Metrics)

		_, err = deps.Optimizer.Optimize(context.Background(), request())
		assert.NoError(t, err)
	})

	t.Run("remote provider without key is built but not configured", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.LLM.Provider = config.ProviderRemote
		cfg.LLM.Model = "gpt-4o"

		deps, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		require.NotNil(t, deps.Provider)
		assert.Equal(t, "openai", deps.Provider.Name())
		assert.Equal(t, "gpt-4o", deps.Provider.Model())

		status := deps.Optimizer.Status(context.Background())
		assert.Equal(t, models.ProviderKindRemote, status.Provider)
		assert.False(t, status.Configured)
		assert.Equal(t, models.ReachableUnknown, status.Reachable)

		result, err := deps.Optimizer.Optimize(context.Background(), request())
		require.NoError(t, err)
		assert.False(t, result.LLMUsed)
		assert.Empty(t, result.FallbackReason)
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.LLM.Provider = "anthropic"

		deps, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
		assert.Nil(t, deps)
		require.Error(t, err)
		assert.ErrorIs(t, err, providers.ErrProviderNotFound)
		assert.Contains(t, err.Error(), "failed to initialize provider")
	})
}

func TestNewDependencies_LocalBackendEndToEnd(t *testing.T) {
	reply := `{"version":"route-assignment/v1","assignments":[{"deliveryId":"d2","vehicleId":"v1"}]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[]}`))
		case "/api/chat":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"message": map[string]string{"role": "assistant", "content": reply},
				"done":    true,
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cfg := testConfig(t)
	cfg.LLM.Provider = config.ProviderLocal
	cfg.LLM.LocalURL = server.URL
	cfg.LLM.CheckReachability = true

	deps, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "ollama", deps.Provider.Name())

	status := deps.Optimizer.Status(context.Background())
	assert.Equal(t, models.ProviderKindLocal, status.Provider)
	assert.Equal(t, models.ReachableYes, status.Reachable)

	result, err := deps.Optimizer.Optimize(context.Background(), request())
	require.NoError(t, err)
	assert.True(t, result.LLMUsed)
	assert.Equal(t, models.OptimizationMethod("llm_ollama"), result.OptimizationMethod)
	require.Len(t, result.OptimizedRoutes, 1)
	assert.Equal(t, 30.0, result.OptimizedRoutes[0].TotalWeight)
	require.Len(t, result.UnassignedDeliveries, 1)
	assert.Equal(t, "d1", result.UnassignedDeliveries[0].ID)
}
