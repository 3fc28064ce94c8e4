package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(firstCmd)
}

var firstCmd = &cobra.Command{
	Use:   "first",
	Short: "Sends the first page of the first collection as it is now, without recording anything.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := getApp(cmd.Context())

		lines, err := a.watcher.FirstPage(cmd.Context())
		if len(lines) > 0 {
			t := newTable()
			t.AppendHeader(table.Row{"#", "Notification"})
			for i, line := range lines {
				t.AppendRow(table.Row{i + 1, line})
			}
			t.Render()
		}
		return err
	},
}
