package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/mklimuk/i2cbus/cmd/dev/cmd"
)

func main() {
	// ctrl-c stops a running build or smoke run
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := newRootCmd().ExecuteContext(ctx)
	if err != nil {
		slog.Error("unexpected error", "error", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var debug, noColor bool
	rootCmd := &cobra.Command{
		Use:          "dev",
		Short:        "build/test/lint tool for the i2cbus project",
		Long:         "A custom build tool easing common build/test/lint tasks. Run `dev build` before `dev smoke`.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(slog.New(newLogger(cmd.OutOrStdout(), debug, noColor)))
		},
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored log output")

	rootCmd.AddCommand(
		cmd.BuildCmd(),
		cmd.TestCmd(),
		cmd.LintCmd(),
		cmd.IntegrationTestCmd(),
		cmd.SmokeCmd(),
	)
	return rootCmd
}

func newLogger(w io.Writer, debug, noColor bool) *log.Logger {
	charm := log.NewWithOptions(w, log.Options{
		ReportCaller:    debug,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "i2c",
	})
	charm.SetColorProfile(termenv.TrueColor)
	if noColor {
		charm.SetColorProfile(termenv.Ascii)
	}
	charm.SetLevel(log.InfoLevel)
	if debug {
		charm.SetLevel(log.DebugLevel)
	}
	return charm
}
