package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/annotext/internal/app/migrator"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Parse every sheet of the index without writing to the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			if err := a.Config().RequireSheets(); err != nil {
				return err
			}
			if err := a.Lock(); err != nil {
				return err
			}

			m := a.Migrator(nil)
			index, err := m.LoadIndex(cmd.Context())
			if err != nil {
				return fmt.Errorf("load index: %w", err)
			}

			report, runErr := m.Run(cmd.Context(), migrator.ModeValidate, index)
			renderReport(cmd.OutOrStdout(), report)
			if runErr != nil {
				return runErr
			}
			if report.HasErrors() {
				return fmt.Errorf("%d of %d sheets failed validation", len(report.Failed()), len(report.Items))
			}
			return nil
		},
	}
}
