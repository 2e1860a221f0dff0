package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/upb/route-optimizer/config"
	"github.com/upb/route-optimizer/internal/metrics"
	"github.com/upb/route-optimizer/services/optimizer"
	"github.com/upb/route-optimizer/services/providers"
	"github.com/upb/route-optimizer/services/providers/ollama"
	"github.com/upb/route-optimizer/services/providers/openai"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	// LLM backends
	Registry *providers.Registry
	Provider providers.Provider

	// Services
	Optimizer *optimizer.Service
}

// NewRegistry returns a registry with every supported backend registered
func NewRegistry() *providers.Registry {
	return providers.NewRegistry().
		MustRegister(config.ProviderOpenAI, openai.Build, config.ProviderRemote).
		MustRegister(config.ProviderOllama, ollama.Build, config.ProviderLocal)
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:   cfg,
		Logger:   logger,
		Registry: NewRegistry(),
	}

	if cfg.Observability.MetricsEnabled {
		deps.Metrics = metrics.New()
	}

	// Initialize the LLM backend
	if err := deps.initProvider(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize provider: %w", err)
	}

	deps.Optimizer = optimizer.NewService(optimizer.Settings{
		Enabled:           cfg.LLM.Enabled,
		Kind:              cfg.LLM.Kind(),
		Configured:        cfg.LLM.Configured(),
		CheckReachability: cfg.LLM.CheckReachability,
		StatusTimeout:     cfg.LLM.StatusTimeout,
		MaxCallsPerSecond: cfg.LLM.MaxCallsPerSecond,
	}, deps.Provider, deps.Metrics, logger)

	logger.Info("all dependencies initialized successfully",
		zap.String("llm_provider", string(cfg.LLM.Kind())),
		zap.Bool("llm_enabled", cfg.LLM.Enabled),
		zap.Bool("llm_configured", cfg.LLM.Configured()),
		zap.Bool("metrics_enabled", deps.Metrics != nil))
	return deps, nil
}

// initProvider builds the selected backend. A remote backend without a
// credential is still built so status can report it; the optimizer
// never calls an unconfigured backend.
func (d *Dependencies) initProvider(cfg *config.Config) error {
	if cfg.LLM.Provider == "" || cfg.LLM.Provider == config.ProviderNone {
		d.Logger.Info("no LLM provider selected, using basic algorithm only")
		return nil
	}

	pc := providers.DefaultConfig()
	pc.APIKey = cfg.LLM.APIKey
	pc.BaseURL = cfg.LLM.Endpoint()
	pc.Model = cfg.LLM.Model
	pc.Temperature = cfg.LLM.Temperature
	if cfg.LLM.Timeout > 0 {
		pc.Timeout = cfg.LLM.Timeout
	}

	provider, err := d.Registry.Build(cfg.LLM.Provider, pc)
	if err != nil {
		return err
	}
	d.Provider = provider

	if !cfg.LLM.Configured() {
		d.Logger.Warn("LLM provider selected but not configured",
			zap.String("provider", provider.Name()))
	}
	d.Logger.Info("provider registered",
		zap.String("provider", provider.Name()),
		zap.String("model", provider.Model()))
	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}
	return nil
}
