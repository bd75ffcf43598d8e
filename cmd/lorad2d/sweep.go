package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"lorad2d-sim/internal/config"
	"lorad2d-sim/internal/eventlog"
	"lorad2d-sim/internal/experiment"
	"lorad2d-sim/internal/logging"
	"lorad2d-sim/internal/report"
	"lorad2d-sim/internal/sweep"
)

var (
	sweepPlan   string
	sweepLogDir string
	sweepList   bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one campaign per experiment of a sweep plan",
	Long:  "sweep expands a YAML plan (or a built-in plan name) into campaigns and prints one CSV result row per experiment.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if sweepList {
			return listPlans(cmd)
		}
		if sweepPlan == "" {
			return fmt.Errorf("--plan required")
		}
		plan, err := sweep.Resolve(sweepPlan)
		if err != nil {
			return err
		}
		base, err := resolveConfig(cmd.Flags(), cfgFile)
		if err != nil {
			return err
		}
		named, err := plan.Configs(base)
		if err != nil {
			return err
		}
		logPaths, err := experimentLogPaths(sweepLogDir, named)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rows := make([]report.Row, 0, len(named))
		for _, n := range named {
			row, err := runExperiment(ctx, n, logPaths[n.Name])
			if errors.Is(err, context.Canceled) {
				return err
			}
			rows = append(rows, row)
		}
		return report.WriteCSV(cmd.OutOrStdout(), rows)
	},
}

// experimentLogPaths gives every experiment its own directory under dir,
// keeping the log file name the evaluation loader parses. Names that map to
// the same path are rejected before anything runs.
func experimentLogPaths(dir string, named []sweep.Named) (map[string]string, error) {
	if dir == "" {
		return nil, nil
	}
	paths := make(map[string]string, len(named))
	owner := make(map[string]string, len(named))
	for _, n := range named {
		p := filepath.Join(dir, experimentDirName(n.Name), eventlog.LogFileName(n.Config))
		if prev, ok := owner[p]; ok {
			return nil, fmt.Errorf("%w: experiments %q and %q write the same log %s", config.ErrConfiguration, prev, n.Name, p)
		}
		owner[p] = n.Name
		paths[n.Name] = p
	}
	return paths, nil
}

var unsafeDirChars = strings.NewReplacer("/", "-", "\\", "-", " ", "-")

func experimentDirName(name string) string {
	s := unsafeDirChars.Replace(name)
	if s == "." || s == ".." {
		s = "_" + s
	}
	return s
}

func runExperiment(ctx context.Context, n sweep.Named, logPath string) (report.Row, error) {
	logger := logging.FromContext(ctx).With("experiment", n.Name)
	opts := experiment.Options{Logger: logger}
	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return report.Row{Name: n.Name, Config: n.Config, Err: err}, err
		}
		f, err := os.Create(logPath)
		if err != nil {
			return report.Row{Name: n.Name, Config: n.Config, Err: err}, err
		}
		defer f.Close()
		opts.Sink = eventlog.NewCSVWriter(f)
	}
	stats, err := experiment.NewCampaign(n.Config, opts).Run(ctx)
	if err != nil {
		logger.Error("experiment failed", "err", err)
	}
	return report.Row{Name: n.Name, Config: n.Config, Stats: stats, Err: err}, err
}

func listPlans(cmd *cobra.Command) error {
	plans, err := sweep.BuiltIn()
	if err != nil {
		return err
	}
	names := make([]string, 0, len(plans))
	for name := range plans {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d experiments\t%s\n", name, len(plans[name].Experiments), plans[name].Description)
	}
	return nil
}

func init() {
	addConfigFlags(sweepCmd.Flags())
	sweepCmd.Flags().StringVar(&sweepPlan, "plan", "", "Sweep plan YAML file or built-in plan name")
	sweepCmd.Flags().StringVar(&sweepLogDir, "log-dir", "", "Directory for one CSV log per experiment")
	sweepCmd.Flags().BoolVar(&sweepList, "list", false, "List built-in plans")
}
