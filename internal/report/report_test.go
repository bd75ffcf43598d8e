package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lorad2d-sim/internal/config"
	"lorad2d-sim/internal/eventlog"
	"lorad2d-sim/internal/experiment"
)

func sampleStats() experiment.CampaignStatistics {
	return experiment.Aggregate([]experiment.RunStatistics{
		{Run: 0, Seed: 35039, Transmitted: 50, Received: 40, Lost: 10, LossRate: 0.2, Interference: 7},
		{Run: 1, Seed: 35040, Transmitted: 50, Received: 45, Lost: 5, LossRate: 0.1},
	}, nil)
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Summary(&buf, sampleStats()))
	out := buf.String()
	assert.Contains(t, out, "Total packets transmitted: 100")
	assert.Contains(t, out, "Total packets received: 85")
	assert.Contains(t, out, "Packet loss: 15.00%")
	assert.Equal(t, 1, strings.Count(out, "Packet loss"))
}

func TestSummaryFailedRuns(t *testing.T) {
	stats := experiment.Aggregate(nil, []experiment.FailedRun{{Run: 2, Seed: 9, Err: errors.New("device refused")}})
	var buf bytes.Buffer
	require.NoError(t, Summary(&buf, stats))
	assert.Contains(t, buf.String(), "Run 2 (seed 9) failed: device refused")
	assert.Contains(t, buf.String(), "Packet loss: 0.00%")
}

func TestStyledSummary(t *testing.T) {
	stats := sampleStats()
	stats.Failed = []experiment.FailedRun{{Run: 2, Seed: 35041, Err: errors.New(strings.Repeat("long cause ", 20))}}
	out := StyledSummary(stats, 40)
	assert.Contains(t, out, "LoRa D2D campaign")
	assert.Contains(t, out, "15.00%")
	assert.Contains(t, out, "run 2 (seed 35041)")
	assert.Greater(t, strings.Count(out, "\n"), 8)
}

func TestRunTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RunTable(&buf, sampleStats()))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "RUN"))
	assert.Contains(t, lines[1], "35039")
	assert.Contains(t, lines[1], "20.00%")
}

func TestPlacementTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PlacementTable(&buf, []eventlog.Placement{
		{Run: 0, Seed: 35039, Node: 0, X: 4871, Y: 5203},
		{Run: 0, Seed: 35039, Node: 1, X: -12, Y: 1000000},
	}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"RUN", "SEED", "NODE", "X", "Y"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"0", "35039", "1", "-12", "1000000"}, strings.Fields(lines[2]))
}

func TestWriteCSV(t *testing.T) {
	cfg := config.Defaults()
	rows := []Row{
		{Name: "baseline", Config: cfg, Stats: sampleStats()},
		{Name: "broken", Config: cfg, Err: errors.New("aborted")},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "experiment", recs[0][0])
	assert.Equal(t, "baseline", recs[1][0])
	assert.Equal(t, "50", recs[1][1])
	assert.Equal(t, "0.150000", recs[1][13])
	assert.Equal(t, "aborted", recs[2][len(recs[2])-1])
}
