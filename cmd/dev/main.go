package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/hepingood/adxl345/cmd/dev/cmd"
)

func newLogger(debug bool) *slog.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(os.Stdout, log.Options{
		Level:           level,
		Prefix:          "adxl",
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})
	handler.SetColorProfile(termenv.TrueColor)
	return slog.New(handler)
}

func main() {
	var debug bool
	root := &cobra.Command{
		Use:           "dev",
		Short:         "build and test tool for the adxl345 driver",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			slog.SetDefault(newLogger(debug))
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	root.AddCommand(
		cmd.BuildCmd(),
		cmd.TestCmd(),
		cmd.IntegrationTestCmd(),
		cmd.LintCmd(),
		cmd.ChangelogCmd(),
	)
	if err := root.Execute(); err != nil {
		slog.Error("dev command failed", "error", err)
		os.Exit(1)
	}
}
