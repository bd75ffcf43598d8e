package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"lorad2d-sim/internal/experiment"
	"lorad2d-sim/internal/logging"
	"lorad2d-sim/internal/report"
)

var (
	campFormat      string
	campLogFile     string
	campLogDir      string
	campPrintOnly   bool
	campSummaryOnly bool
	campRunTable    bool
)

var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Run a seeded simulation campaign",
	Long:  "campaign runs the configured number of iterations, streams every event record and prints the packet loss summary.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd.Flags(), cfgFile)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		start := time.Now()
		sink, cleanup, err := newWriters(cfg, writerOptions{
			format:      campFormat,
			printOnly:   campPrintOnly,
			summaryOnly: campSummaryOnly,
			logFile:     campLogFile,
			logDir:      campLogDir,
			start:       start,
		}, os.Stdout)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		c := experiment.NewCampaign(cfg, experiment.Options{Sink: sink, Logger: logging.FromContext(ctx)})
		stats, runErr := c.Run(ctx)
		if stats.Completed() == 0 && len(stats.Failed) == 0 {
			return runErr
		}

		out := cmd.ErrOrStderr()
		if campSummaryOnly {
			out = cmd.OutOrStdout()
		}
		if campRunTable {
			if err := report.RunTable(out, stats); err != nil {
				return err
			}
		}
		if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			width, _, err := term.GetSize(int(f.Fd()))
			if err != nil {
				width = 80
			}
			fmt.Fprintln(out, report.StyledSummary(stats, width))
		} else if err := report.Summary(out, stats); err != nil {
			return err
		}
		return runErr
	},
}

func init() {
	addConfigFlags(campaignCmd.Flags())
	campaignCmd.Flags().StringVar(&campFormat, "format", formatAuto, "Record format on STDOUT: auto, csv, json or color")
	campaignCmd.Flags().StringVar(&campLogFile, "log-file", "", "Path to export event records (JSONL)")
	campaignCmd.Flags().StringVar(&campLogDir, "log-dir", "", "Directory for a CSV log named after the campaign parameters")
	campaignCmd.Flags().BoolVar(&campPrintOnly, "print-only", false, "Print records to STDOUT even when GREPTIMEDB_ENDPOINT is set")
	campaignCmd.Flags().BoolVar(&campSummaryOnly, "summary-only", false, "Only print the summary")
	campaignCmd.Flags().BoolVar(&campRunTable, "runs", false, "Print a per-run table before the summary")
}
