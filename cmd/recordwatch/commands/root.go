package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"recordwatch/internal/components/telemetry"
	libtelemetry "recordwatch/lib/telemetry"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	dumpDir    string

	// opened is the app built for the running command, closed by execute
	// whether or not the command failed.
	opened *app
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "Path to the config file, <name>.local.json5 next to it overrides it.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output.")
	rootCmd.PersistentFlags().StringVar(&dumpDir, "dump", "", "Write every fetched page into this directory (it is cleared first).")
}

var rootCmd = &cobra.Command{
	Use:          "recordwatch",
	Short:        "recordwatch watches a record shop for new and changed releases.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger := libtelemetry.InitSlog(verbose)

		cfg, err := LoadConfig(configPath)
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, logger, dumpDir)
		if err != nil {
			return err
		}
		opened = a
		cmd.SetContext(withApp(cmd.Context(), a))
		return nil
	},
}

func closeOpened() error {
	if opened == nil {
		return nil
	}
	a := opened
	opened = nil

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	return a.Close(ctx)
}

// execute runs rootCmd with args and closes the app afterwards, cobra skips
// post run hooks once a command has failed.
func execute(ctx context.Context, args []string) error {
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	closeErr := closeOpened()
	if closeErr != nil {
		closeErr = fmt.Errorf("close: %w", closeErr)
	}
	return errors.Join(err, closeErr)
}

func ExecuteContext(ctx context.Context) {
	if err := execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

// scoped returns the app telemetry namespaced to a command.
func scoped(a *app, command string) telemetry.API {
	return telemetry.NewScopedAPI(command, a.tel)
}
