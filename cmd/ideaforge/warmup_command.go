package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matiasleandrokruk/ideaforge/internal/infra/llm"
)

func newWarmupCommand(ctx *commandContext) *cobra.Command {
	var attempts int
	cmd := &cobra.Command{
		Use:   "warmup",
		Short: "Poll the model until it is loaded, then exit",
		Long: "Runs the same status polling the server does at startup and prints the final readiness.\n" +
			"Exits non-zero when the model did not become ready within the warm-up budget.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.providerConfig()
			if err != nil {
				return err
			}
			log := ctx.logger(cfg)
			orch, err := ctx.orchestrator(cfg, log, nil)
			if err != nil {
				return err
			}

			policy := cfg.WarmupPolicy()
			if attempts > 0 {
				policy.MaxAttempts = attempts
			}
			snap := llm.NewWarmer(orch, policy, log, nil).Run(cmd.Context())

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(snap); err != nil {
				return err
			}
			if snap.State != llm.ReadinessReady {
				return fmt.Errorf("model %s not ready: %s", snap.Model, snap.Error)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&attempts, "attempts", 0, "Override the warm-up attempt budget")
	return cmd
}
