package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List migrated documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			store, err := a.OpenStore(cmd.Context())
			if err != nil {
				return err
			}

			docs, err := store.ListDocuments(cmd.Context())
			if err != nil {
				return fmt.Errorf("list documents: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(docs) == 0 {
				fmt.Fprintln(out, "No documents migrated")
				return nil
			}
			rows := make([][]string, len(docs))
			words := 0
			for i, d := range docs {
				rows[i] = []string{d.CollectionTitle, strconv.Itoa(d.OrderIndex), d.ShortName, d.Title, strconv.Itoa(d.Words)}
				words += d.Words
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Collection", "#", "Document", "Title", "Words"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignRight},
			))
			fmt.Fprintf(out, "%d documents, %d words\n", len(docs), words)
			return nil
		},
	}
}
