package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/annotext/internal/app/migrator"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Commit the index to the database, stopping at the first failed sheet",
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

			store, err := a.OpenStore(cmd.Context())
			if err != nil {
				return err
			}
			m := a.Migrator(store)
			index, err := m.LoadIndex(cmd.Context())
			if err != nil {
				return fmt.Errorf("load index: %w", err)
			}

			report, runErr := m.Run(cmd.Context(), migrator.ModeCommit, index)
			renderReport(cmd.OutOrStdout(), report)
			if runErr != nil {
				return runErr
			}
			if report.Aborted {
				failed := report.Failed()
				return fmt.Errorf("migration aborted at sheet %s: %w", failed[0].Item.SheetID, failed[0].Err)
			}
			return nil
		},
	}
}
