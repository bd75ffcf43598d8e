package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"lorad2d-sim/internal/config"
	"lorad2d-sim/internal/eventlog"
	"lorad2d-sim/internal/experiment"
	"lorad2d-sim/internal/report"
)

var (
	analyzeInput     string
	analyzeCSV       bool
	analyzePositions bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Recompute statistics from an exported event log",
	Long:  "analyze reads a JSONL export written with --log-file and prints the same statistics a live campaign would.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd.Flags(), cfgFile)
		if err != nil {
			return err
		}
		exp, err := eventlog.ReadExportFile(analyzeInput)
		if err != nil {
			return err
		}
		if analyzeCSV {
			return exportCSV(cmd.OutOrStdout(), exp)
		}
		if analyzePositions {
			if len(exp.Placements) == 0 {
				return fmt.Errorf("no placements in %s", analyzeInput)
			}
			return report.PlacementTable(cmd.OutOrStdout(), exp.Placements)
		}
		return analyze(cmd.OutOrStdout(), cfg, exp.Records)
	},
}

// exportCSV writes an export in the evaluation CSV layout: the position lines
// of a run precede its records, which are ordered by simulated time.
func exportCSV(w io.Writer, exp eventlog.Export) error {
	csvw := eventlog.NewCSVWriter(w)
	byRun := make(map[int]*eventlog.Log)
	var runs []int
	logFor := func(run int) *eventlog.Log {
		l, ok := byRun[run]
		if !ok {
			l = eventlog.New(nil)
			byRun[run] = l
			runs = append(runs, run)
		}
		return l
	}
	placements := make(map[int][]eventlog.Placement)
	for _, p := range exp.Placements {
		logFor(p.Run)
		placements[p.Run] = append(placements[p.Run], p)
	}
	for _, r := range exp.Records {
		logFor(r.Run).Record(r)
	}
	slices.Sort(runs)
	for _, run := range runs {
		for _, p := range placements[run] {
			if err := csvw.WritePlacement(p); err != nil {
				return err
			}
		}
		if err := eventlog.WriteAll(csvw, byRun[run].SortedByTime()); err != nil {
			return err
		}
	}
	return nil
}

// analyze groups records by run and prints per-run and campaign statistics.
func analyze(w io.Writer, cfg config.SimulationConfig, records []eventlog.Record) error {
	if len(records) == 0 {
		return fmt.Errorf("no records to analyze")
	}
	byRun := make(map[int][]eventlog.Record)
	seeds := make(map[int]int64)
	for _, r := range records {
		byRun[r.Run] = append(byRun[r.Run], r)
		seeds[r.Run] = r.Seed
	}
	runs := make([]int, 0, len(byRun))
	for run := range byRun {
		runs = append(runs, run)
	}
	slices.Sort(runs)

	stats := make([]experiment.RunStatistics, 0, len(runs))
	for _, run := range runs {
		stats = append(stats, experiment.ComputeRunStatistics(cfg, run, seeds[run], slices.Values(byRun[run])))
	}
	cs := experiment.Aggregate(stats, nil)
	if err := report.RunTable(w, cs); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return report.Summary(w, cs)
}

func init() {
	addConfigFlags(analyzeCmd.Flags())
	analyzeCmd.Flags().StringVar(&analyzeInput, "input", "", "Path to a JSONL event log")
	analyzeCmd.Flags().BoolVar(&analyzeCSV, "csv", false, "Convert the log to the CSV evaluation format instead")
	analyzeCmd.Flags().BoolVar(&analyzePositions, "positions", false, "Print the node placements of every run instead")
	analyzeCmd.MarkFlagRequired("input")
}
