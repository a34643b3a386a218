package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	pkgauth "github.com/matiasleandrokruk/ideaforge/pkg/auth"
)

func newHashSecretCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "hash-secret [secret]",
		Short:       "Print the bcrypt hash for AUTH_CLIENT_SECRET_HASH",
		Long:        "Hashes the client secret given as an argument, or read from the first line of stdin.",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var secret string
			if len(args) == 1 {
				secret = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no secret given on the command line or stdin")
				}
				secret = strings.TrimRight(line, "\r\n")
			}
			if secret == "" {
				return errors.New("secret must not be empty")
			}

			hash, err := pkgauth.HashSecret(secret)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash) //nolint:errcheck
			return nil
		},
	}
}
