package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matiasleandrokruk/ideaforge/internal/infra/sqlite"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			db, err := sqlite.NewDB(cmd.Context(), cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			applied, err := sqlite.MigrateUpCount(cmd.Context(), db)
			if err != nil {
				return err
			}
			v, err := sqlite.MigrationVersion(cmd.Context(), db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s); schema version %d (%s)\n", applied, v, cfg.DatabasePath) //nolint:errcheck
			return nil
		},
	}
}
