package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"lorad2d-sim/internal/config"
)

func parseFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addConfigFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return fs
}

func TestResolveConfigDefaults(t *testing.T) {
	cfg, err := resolveConfig(parseFlags(t), "")
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}
	if cfg != config.Defaults() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestResolveConfigLayering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("nodes: 10\nmsg: 3\nsf: 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LORAD2D_MSG", "4")
	t.Setenv("LORAD2D_SF", "10")
	t.Setenv("LORAD2D_SIM_TIME", "60")

	cfg, err := resolveConfig(parseFlags(t, "--sf", "12", "--drain-margin", "2m"), path)
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}
	if cfg.Nodes != 10 {
		t.Fatalf("nodes from YAML expected 10, got %d", cfg.Nodes)
	}
	if cfg.MessagesPerNode != 4 {
		t.Fatalf("env should override YAML, got msg=%d", cfg.MessagesPerNode)
	}
	if cfg.SpreadingFactor != 12 {
		t.Fatalf("flag should override env, got sf=%d", cfg.SpreadingFactor)
	}
	if cfg.Horizon != time.Minute || cfg.DrainMargin != 2*time.Minute {
		t.Fatalf("unexpected durations %s %s", cfg.Horizon, cfg.DrainMargin)
	}
}

func TestResolveConfigNonNumeric(t *testing.T) {
	if _, err := resolveConfig(parseFlags(t, "--nodes", "many"), ""); !errors.Is(err, config.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for flag, got %v", err)
	}
	t.Setenv("LORAD2D_SEED", "abc")
	if _, err := resolveConfig(parseFlags(t), ""); !errors.Is(err, config.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for env, got %v", err)
	}
}

func TestResolveConfigDecimalOnly(t *testing.T) {
	cfg, err := resolveConfig(parseFlags(t, "--nodes", "010", "--seed", "007"), "")
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}
	if cfg.Nodes != 10 || cfg.Seed != 7 {
		t.Fatalf("leading zeros must parse as decimal, got nodes=%d seed=%d", cfg.Nodes, cfg.Seed)
	}
	for _, args := range [][]string{
		{"--payload-size", "0x20"},
		{"--nodes", "0b11"},
		{"--seed", "0o17"},
		{"--area", "0x1p4"},
	} {
		if _, err := resolveConfig(parseFlags(t, args...), ""); !errors.Is(err, config.ErrConfiguration) {
			t.Fatalf("%v: expected ErrConfiguration, got %v", args, err)
		}
	}
}

func TestResolveConfigBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("nodes: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := resolveConfig(parseFlags(t), path); !errors.Is(err, config.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
