package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/matiasleandrokruk/ideaforge/internal/domain/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit  int
		offset int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent generation calls, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			db, err := ctx.openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			records, err := history.NewRecorder(db, nil).List(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "no generation history") //nolint:errcheck
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tENDPOINT\tPROVIDER\tOUTCOME\tATTEMPTS\tDURATION") //nolint:errcheck
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", //nolint:errcheck
					r.CreatedAt.Local().Format(time.DateTime), r.Endpoint, r.Provider, r.Outcome,
					r.Attempts, (time.Duration(r.DurationMs) * time.Millisecond).String())
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", history.DefaultLimit, "Maximum rows to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}
