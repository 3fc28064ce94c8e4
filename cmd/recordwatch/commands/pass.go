package commands

import (
	"fmt"
	"recordwatch/internal/watcher"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(passCmd)
}

func renderPass(res watcher.PassResult) {
	t := newTable()
	t.SetTitle(fmt.Sprintf("rate %.4f (%s)", res.Rate.Value, res.Rate.EffectiveDate))
	t.AppendHeader(table.Row{"Collection", "Entries", "New or changed", "Sent", "Error"})
	for _, c := range res.Collections {
		errText := ""
		if c.Err != nil {
			errText = c.Err.Error()
		}
		t.AppendRow(table.Row{c.Template, c.Entries, len(c.Notified), len(c.Lines), errText})
	}
	t.Render()

	if len(res.Lines) == 0 {
		return
	}
	lines := newTable()
	lines.SetTitle("notifications")
	for _, line := range res.Lines {
		lines.AppendRow(table.Row{line})
	}
	lines.Render()
}

var passCmd = &cobra.Command{
	Use:   "pass",
	Short: "Runs a single pass over every collection and sends notifications.",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := getApp(cmd.Context()).watcher.Pass(cmd.Context())
		renderPass(res)
		return err
	},
}
