package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/upb/route-optimizer/app"
	"github.com/upb/route-optimizer/config"
	"github.com/upb/route-optimizer/internal/observability"
)

// commandContext lazily resolves configuration and dependencies shared by subcommands
type commandContext struct {
	configFlag *string

	cfg  *config.Config
	deps *app.Dependencies
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig(ctx context.Context) (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	if c.configFlag != nil && *c.configFlag != "" {
		if err := os.Setenv("CONFIG_FILE", *c.configFlag); err != nil {
			return nil, fmt.Errorf("set config file: %w", err)
		}
	}
	cfg, err := config.New(ctx)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) dependencies(ctx context.Context) (*app.Dependencies, error) {
	if c.deps != nil {
		return c.deps, nil
	}
	cfg, err := c.ensureConfig(ctx)
	if err != nil {
		return nil, err
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = logger.With(zap.String("environment", cfg.Environment))

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	c.deps = deps
	return deps, nil
}
