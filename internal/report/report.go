// Package report renders campaign statistics for humans and for the
// evaluation scripts.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"lorad2d-sim/internal/config"
	"lorad2d-sim/internal/eventlog"
	"lorad2d-sim/internal/experiment"
)

// Summary prints the campaign totals as plain text.
func Summary(w io.Writer, stats experiment.CampaignStatistics) error {
	_, err := fmt.Fprintf(w,
		"Runs completed: %d\nTotal packets transmitted: %d\nTotal packets received: %d\nPacket loss: %.2f%%\n",
		stats.Completed(), stats.Transmitted, stats.Received, stats.LossRate*100)
	if err != nil {
		return err
	}
	for _, f := range stats.Failed {
		if _, err := fmt.Fprintf(w, "Run %d (seed %d) failed: %v\n", f.Run, f.Seed, f.Err); err != nil {
			return err
		}
	}
	return nil
}

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// StyledSummary renders the totals in a bordered box for terminals. Failure
// causes are wrapped to width.
func StyledSummary(stats experiment.CampaignStatistics, width int) string {
	if width <= 0 {
		width = 80
	}
	loss := goodStyle
	if stats.LossRate >= 0.5 {
		loss = badStyle
	}
	rows := [][2]string{
		{"runs", strconv.Itoa(stats.Completed())},
		{"transmitted", strconv.Itoa(stats.Transmitted)},
		{"received", strconv.Itoa(stats.Received)},
		{"packet loss", loss.Render(fmt.Sprintf("%.2f%%", stats.LossRate*100))},
		{"mean ± sd", fmt.Sprintf("%.2f%% ± %.2f%%", stats.MeanLossRate*100, stats.StdDevLossRate*100)},
		{"95% CI", fmt.Sprintf("[%.2f%%, %.2f%%]", stats.CILow*100, stats.CIHigh*100)},
	}
	lines := []string{titleStyle.Render("LoRa D2D campaign")}
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render(fmt.Sprintf("%-12s", r[0])), r[1]))
	}
	for _, f := range stats.Failed {
		msg := fmt.Sprintf("run %d (seed %d) failed: %v", f.Run, f.Seed, f.Err)
		lines = append(lines, badStyle.Render(wordwrap.String(msg, width-4)))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// RunTable prints one line per completed run.
func RunTable(w io.Writer, stats experiment.CampaignStatistics) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSEED\tTX\tRX\tLOST\tLOSS\tWRONG STATE\tINTERFERENCE\tUNDER SENS.\tEVENTS")
	for _, r := range stats.Runs {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%.2f%%\t%d\t%d\t%d\t%d\n",
			r.Run, r.Seed, r.Transmitted, r.Received, r.Lost, r.LossRate*100,
			r.WrongState, r.Interference, r.UnderSensitivity, r.EventsExecuted)
	}
	return tw.Flush()
}

// PlacementTable prints node positions, one line per node and run.
func PlacementTable(w io.Writer, placements []eventlog.Placement) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSEED\tNODE\tX\tY")
	for _, p := range placements {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\n", p.Run, p.Seed, p.Node,
			strconv.FormatFloat(p.X, 'f', -1, 64), strconv.FormatFloat(p.Y, 'f', -1, 64))
	}
	return tw.Flush()
}

// Row is one experiment of a sweep.
type Row struct {
	Name   string
	Config config.SimulationConfig
	Stats  experiment.CampaignStatistics
	Err    error
}

var sweepHeader = []string{
	"experiment", "nodes", "area", "freq", "sf", "cr", "bw", "payload", "msg", "iterations", "seed",
	"transmitted", "received", "loss_rate", "mean_loss_rate", "stddev_loss_rate", "ci_low", "ci_high", "error",
}

// WriteCSV prints sweep results, one row per experiment.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(sweepHeader); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for _, r := range rows {
		c, s := r.Config, r.Stats
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		rec := []string{
			r.Name,
			strconv.Itoa(c.Nodes),
			strconv.FormatFloat(c.Area, 'g', -1, 64),
			strconv.FormatFloat(c.FrequencyMHz, 'g', -1, 64),
			strconv.Itoa(c.SpreadingFactor),
			strconv.Itoa(c.CodingRate),
			strconv.Itoa(c.BandwidthHz),
			strconv.Itoa(c.PayloadSize),
			strconv.Itoa(c.MessagesPerNode),
			strconv.Itoa(c.Iterations),
			strconv.FormatInt(c.Seed, 10),
			strconv.Itoa(s.Transmitted),
			strconv.Itoa(s.Received),
			f(s.LossRate), f(s.MeanLossRate), f(s.StdDevLossRate), f(s.CILow), f(s.CIHigh),
			errText,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
