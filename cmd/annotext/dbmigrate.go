package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDBMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "db-migrate",
		Short: "Apply the embedded schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}

			results, err := a.MigrateSchema(cmd.Context())
			out := cmd.OutOrStdout()
			for _, r := range results {
				if r.Error != nil {
					fmt.Fprintf(out, "FAILED  %s: %v\n", r.Source.Path, r.Error)
					continue
				}
				fmt.Fprintf(out, "OK      %s (%s)\n", r.Source.Path, formatDuration(r.Duration))
			}
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(out, "Schema is up to date")
			}
			return nil
		},
	}
}
