package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ledger",
		Short: "List the consent ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := ctx.client().Ledger(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(l.Entries) == 0 {
				fmt.Fprintf(out, "Ledger %s is empty\n", l.Key)
				return nil
			}
			rows := make([][]string, 0, len(l.Entries))
			for i, e := range l.Entries {
				rows = append(rows, []string{strconv.Itoa(i + 1), e.RecordingKey, e.Campaign})
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Recording", "Campaign"}, rows, []columnAlignment{alignRight}, isTerminal(out)))
			fmt.Fprintf(out, "%d entries in %s\n", l.Total, l.Key)
			return nil
		},
	}
}
