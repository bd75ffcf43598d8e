package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lorad2d-sim/internal/config"
	"lorad2d-sim/internal/eventlog"
	"lorad2d-sim/internal/experiment"
	"lorad2d-sim/internal/logging"
	"lorad2d-sim/internal/report"
)

func TestAnalyzeMatchesLiveCampaign(t *testing.T) {
	cfg := config.Defaults()
	cfg.Nodes = 5
	cfg.Area = 1000
	cfg.PlacementVariance = 200 * 200
	cfg.MessagesPerNode = 2
	cfg.Iterations = 3
	cfg.Horizon = 10 * time.Second

	path := filepath.Join(t.TempDir(), "events.jsonl")
	fw, err := eventlog.NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	live, err := experiment.NewCampaign(cfg, experiment.Options{Sink: fw, Logger: logging.Discard()}).Run(context.Background())
	if err != nil {
		t.Fatalf("campaign: %v", err)
	}
	fw.Close()

	records, err := eventlog.ReadLogFile(path)
	if err != nil {
		t.Fatalf("ReadLogFile: %v", err)
	}
	exp, err := eventlog.ReadExportFile(path)
	if err != nil {
		t.Fatalf("ReadExportFile: %v", err)
	}
	if len(exp.Placements) != cfg.Nodes*cfg.Iterations {
		t.Fatalf("expected %d placements, got %d", cfg.Nodes*cfg.Iterations, len(exp.Placements))
	}
	var buf bytes.Buffer
	if err := analyze(&buf, cfg, records); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Total packets transmitted: 30",
		"Runs completed: 3",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	var summary bytes.Buffer
	if err := report.Summary(&summary, live); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, summary.String()) {
		t.Fatalf("offline summary differs from live one:\nlive:\n%s\noffline:\n%s", summary.String(), out)
	}
}

func TestExportCSVGroupsRuns(t *testing.T) {
	rx := eventlog.Reception(2*time.Second, eventlog.KindRX, 1, 1, 50)
	tx := eventlog.Transmission(time.Second, 0, 1, 50, true)
	late := eventlog.Transmission(500*time.Millisecond, 0, 2, 50, true)
	late.Run = 1
	exp := eventlog.Export{
		Records: []eventlog.Record{late, rx, tx},
		Placements: []eventlog.Placement{
			{Run: 1, Node: 0, X: 5, Y: 6},
			{Run: 0, Node: 0, X: 1, Y: 2},
		},
	}
	var buf bytes.Buffer
	if err := exportCSV(&buf, exp); err != nil {
		t.Fatalf("exportCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		"Position: X=1, Y=2, ID=0",
		"Simulation Time,Event,Receiver ID,Packet Size,Packet ID,Sender ID,Success,Current Seed",
		"1,TX,,50,1,0,1,0",
		"2,RX,1,50,1,,,0",
		"Position: X=5, Y=6, ID=0",
		"0.5,TX,,50,2,0,1,0",
	}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Fatalf("unexpected CSV:\n%s", buf.String())
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	if err := analyze(&bytes.Buffer{}, config.Defaults(), nil); err == nil {
		t.Fatalf("expected error for empty log")
	}
}
