package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"dailybread/internal/content"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "List verse references already used",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return ctx.withStore(func(store *content.Store) error {
				entries, err := store.ListLedger(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(out, "No references used yet")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					recorded := ""
					if !entry.CreatedAt.IsZero() {
						recorded = humanize.Time(entry.CreatedAt)
					}
					rows = append(rows, []string{entry.Date, entry.Reference, entry.ReferenceKey, recorded})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Date", "Reference", "Key", "Recorded"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	return cmd
}
