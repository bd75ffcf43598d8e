package main

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"lorad2d-sim/internal/config"
	"lorad2d-sim/internal/eventlog"
	"lorad2d-sim/internal/sweep"
)

func TestExperimentLogPathsSeparateExperiments(t *testing.T) {
	short := config.Defaults()
	long := config.Defaults()
	long.Horizon = 2 * time.Hour

	paths, err := experimentLogPaths("out", []sweep.Named{
		{Name: "SF12/125kHz/50B", Config: short},
		{Name: "long horizon", Config: long},
	})
	if err != nil {
		t.Fatalf("experimentLogPaths: %v", err)
	}
	name := eventlog.LogFileName(short)
	if got := paths["SF12/125kHz/50B"]; got != filepath.Join("out", "SF12-125kHz-50B", name) {
		t.Fatalf("unexpected path %s", got)
	}
	if got := paths["long horizon"]; got != filepath.Join("out", "long-horizon", name) {
		t.Fatalf("unexpected path %s", got)
	}
}

func TestExperimentLogPathsCollision(t *testing.T) {
	_, err := experimentLogPaths("out", []sweep.Named{
		{Name: "a/b", Config: config.Defaults()},
		{Name: "a-b", Config: config.Defaults()},
	})
	if !errors.Is(err, config.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestExperimentLogPathsDisabled(t *testing.T) {
	paths, err := experimentLogPaths("", []sweep.Named{{Name: "x", Config: config.Defaults()}})
	if err != nil || paths != nil {
		t.Fatalf("no log dir must give no paths, got %v %v", paths, err)
	}
}
