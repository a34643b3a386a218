package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matiasleandrokruk/ideaforge/internal/api"
	"github.com/matiasleandrokruk/ideaforge/internal/api/handlers"
	"github.com/matiasleandrokruk/ideaforge/internal/domain/history"
	"github.com/matiasleandrokruk/ideaforge/internal/domain/ideas"
	"github.com/matiasleandrokruk/ideaforge/internal/infra/config"
	"github.com/matiasleandrokruk/ideaforge/internal/infra/eventbus"
	"github.com/matiasleandrokruk/ideaforge/internal/infra/llm"
	"github.com/matiasleandrokruk/ideaforge/internal/infra/metrics"
	"github.com/matiasleandrokruk/ideaforge/internal/server"
	"github.com/matiasleandrokruk/ideaforge/internal/version"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var noWarmup bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.providerConfig()
			if err != nil {
				return err
			}
			if noWarmup {
				cfg.Warmup.Enabled = false
			}
			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(sigCtx, ctx, cfg)
		},
	}
	cmd.Flags().BoolVar(&noWarmup, "no-warmup", false, "Skip the background model warm-up")
	return cmd
}

// runServe wires every component and supervises them until ctx ends or one
// of them fails.
func runServe(ctx context.Context, cc *commandContext, cfg config.Config) error {
	log := cc.logger(cfg)
	log.InfoContext(ctx, "starting ideaforge",
		slog.String("version", version.Version),
		slog.String("provider", cfg.LLMProvider),
		slog.String("addr", cfg.Addr()),
		slog.Bool("auth", cfg.AuthEnabled()),
	)

	m := metrics.New()
	orch, err := cc.orchestrator(cfg, log, m)
	if err != nil {
		return err
	}

	db, err := cc.openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	bus := eventbus.New()
	recorder := history.NewRecorder(db, log)
	svc := ideas.NewService(orch, cfg.RetryPolicy(), bus, log)

	var (
		warmer    *llm.Warmer
		readiness handlers.ReadinessSource
	)
	if cfg.Warmup.Enabled {
		warmer = llm.NewWarmer(orch, cfg.WarmupPolicy(), log, m.SetReadiness)
		readiness = warmer
	} else {
		m.SetReadiness(llm.ReadinessReady)
	}

	router := api.NewRouter(api.Deps{
		Logger:               log,
		Ideas:                svc,
		History:              recorder,
		Readiness:            readiness,
		Model:                orch.ModelInfo(),
		Metrics:              m,
		CORSOrigins:          cfg.CORSAllowedOrigins,
		RetryAfter:           retryAfter(cfg),
		JWTSecret:            []byte(cfg.JWTSecret),
		JWTExpiry:            cfg.JWTExpiry,
		AuthClientID:         cfg.AuthClientID,
		AuthClientSecretHash: cfg.AuthClientSecretHash,
	})

	srvCfg := server.DefaultConfig()
	srvCfg.Host = cfg.Host
	srvCfg.Port = cfg.Port
	srv := server.NewServer(router, srvCfg, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Start(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		bus.Close()
		return err
	})
	g.Go(func() error {
		recorder.Start(gctx, bus)
		return nil
	})
	if warmer != nil {
		g.Go(func() error {
			warmer.Run(gctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("ideaforge stopped")
	return nil
}

// retryAfter is the wait advertised to clients after an exhausted budget:
// the warm-up delay when set, since exhaustion almost always means loading.
func retryAfter(cfg config.Config) time.Duration {
	if cfg.Retry.WarmupDelay > 0 {
		return cfg.Retry.WarmupDelay
	}
	return cfg.Retry.Delay
}
