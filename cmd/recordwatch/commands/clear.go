package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(clearCmd)
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forgets every recorded entry, the next pass reports everything as new.",
	RunE: func(cmd *cobra.Command, args []string) error {
		reply, err := getApp(cmd.Context()).watcher.Clear(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), reply)
		return nil
	},
}
