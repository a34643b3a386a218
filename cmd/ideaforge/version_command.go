package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matiasleandrokruk/ideaforge/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version.String()) //nolint:errcheck
			return nil
		},
	}
}
