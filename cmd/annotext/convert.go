package main

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/annotext/internal/orthography"
)

func newConvertCommand() *cobra.Command {
	var keepGlottal bool

	cmd := &cobra.Command{
		Use:   "convert [TEXT...]",
		Short: "Rewrite t/th transcriptions into the d/t convention",
		Long: "Converts each argument, or each line of standard input when no " +
			"arguments are given, and prints one result per line.",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			conv := orthography.Converter{KeepGlottalStops: keepGlottal}
			out := cmd.OutOrStdout()

			if len(args) > 0 {
				for _, arg := range args {
					fmt.Fprintln(out, conv.ConvertString(arg))
				}
				return nil
			}

			sc := bufio.NewScanner(cmd.InOrStdin())
			for sc.Scan() {
				fmt.Fprintln(out, conv.ConvertString(sc.Text()))
			}
			if err := sc.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&keepGlottal, "keep-glottal", false, "Keep glottal stops instead of writing apostrophes")
	return cmd
}
