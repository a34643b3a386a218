package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/matiasleandrokruk/ideaforge/internal/infra/config"
	"github.com/matiasleandrokruk/ideaforge/internal/infra/llm"
	"github.com/matiasleandrokruk/ideaforge/internal/infra/logger"
	"github.com/matiasleandrokruk/ideaforge/internal/infra/sqlite"
)

// commandContext lazily loads configuration shared by subcommands.
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (config.Config, error) {
	c.configOnce.Do(func() {
		if c.configFlag != nil {
			if path := strings.TrimSpace(*c.configFlag); path != "" {
				if err := os.Setenv("IDEAFORGE_CONFIG", path); err != nil {
					c.configErr = err
					return
				}
			}
		}
		c.config, c.configErr = config.Load()
	})
	return c.config, c.configErr
}

// providerConfig returns configuration validated for talking to a provider.
func (c *commandContext) providerConfig() (config.Config, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *commandContext) logger(cfg config.Config) *slog.Logger {
	l := logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(l)
	return l
}

func (c *commandContext) openDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	db, err := sqlite.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// orchestrator builds the configured submitter behind an orchestrator.
func (c *commandContext) orchestrator(cfg config.Config, log *slog.Logger, obs llm.Observer) (*llm.Orchestrator, error) {
	sub, err := cfg.Submitter()
	if err != nil {
		return nil, err
	}
	opts := []llm.Option{llm.WithLogger(log)}
	if obs != nil {
		opts = append(opts, llm.WithObserver(obs))
	}
	return llm.NewOrchestrator(sub, opts...), nil
}
