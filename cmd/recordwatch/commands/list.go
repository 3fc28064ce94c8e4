package commands

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var listSoldOut bool

func init() {
	listCmd.Flags().BoolVar(&listSoldOut, "sold-out", false, "Include sold out entries.")
	rootCmd.AddCommand(listCmd)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

var listCmd = &cobra.Command{
	Use:   "list [--sold-out]",
	Short: "Lists the recorded entries.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := getApp(cmd.Context())

		records, err := a.store.Records(cmd.Context())
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader(table.Row{"Title", "Price", "Pre-order", "Sold out", "First seen", "Updated"})
		shown := 0
		for _, r := range records {
			if r.IsSoldOut && !listSoldOut {
				continue
			}
			t.AppendRow(table.Row{
				r.Title,
				r.FullPrice,
				yesNo(r.IsPreOrder),
				yesNo(r.IsSoldOut),
				r.FirstSeen.In(a.clock.Location()).Format(time.DateTime),
				r.UpdatedAt.In(a.clock.Location()).Format(time.DateTime),
			})
			shown++
		}
		t.AppendFooter(table.Row{"", "", "", "", "Total", shown})
		t.Render()
		return nil
	},
}
