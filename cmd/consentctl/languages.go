package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLanguagesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported consent languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			langs, err := ctx.client().Languages(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(langs.Languages))
			for _, l := range langs.Languages {
				code := l.Code
				if code == langs.Default {
					code += " *"
				}
				rows = append(rows, []string{code, l.Name, l.NativeName})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Code", "Name", "Native"}, rows, nil, isTerminal(out)))
			return nil
		},
	}
}
