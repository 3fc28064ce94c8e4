package commands

import (
	"recordwatch/internal/components/chrono"
	libtelemetry "recordwatch/lib/telemetry"
	"time"

	"github.com/spf13/cobra"
)

const report_watch = "watch"

var watchNow bool

func init() {
	watchCmd.Flags().BoolVar(&watchNow, "now", true, "Run a pass right away instead of waiting for the first tick.")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Runs a pass on the configured cron schedule until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a := getApp(ctx)
		tel := scoped(a, "watch")

		libtelemetry.InstrumentPerfStats(ctx, time.Minute)

		cron := chrono.NewStandardCron(a.clock, tel)
		err := a.watcher.Schedule(ctx, cron, a.cfg.CronSpec)
		if err != nil {
			<-cron.Stop().Done()
			return err
		}
		tel.ReportDebug("scheduled", a.cfg.CronSpec, a.cfg.Collections)

		if watchNow {
			_, err := a.watcher.Pass(ctx)
			if err != nil {
				tel.ReportWarning(report_watch, "initial pass finished with errors", err)
			}
		}

		<-ctx.Done()
		<-cron.Stop().Done()
		return nil
	},
}
