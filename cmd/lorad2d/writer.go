package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/term"

	"lorad2d-sim/internal/config"
	"lorad2d-sim/internal/eventlog"
)

// Output formats of the record stream.
const (
	formatAuto  = "auto"
	formatCSV   = "csv"
	formatJSON  = "json"
	formatColor = "color"
)

type writerOptions struct {
	format      string
	printOnly   bool
	summaryOnly bool
	logFile     string
	logDir      string
	start       time.Time
}

// newWriters sets up the record sinks based on flags and env vars. It returns
// the combined writer (nil when nothing should be written) and a cleanup
// function closing any files.
func newWriters(cfg config.SimulationConfig, opts writerOptions, stdout io.Writer) (eventlog.Writer, func(), error) {
	var (
		writers []eventlog.Writer
		closers []io.Closer
	)
	cleanup := func() {
		for _, c := range closers {
			c.Close()
		}
	}

	base, err := baseWriter(opts, stdout)
	if err != nil {
		return nil, cleanup, err
	}
	if base != nil {
		writers = append(writers, base)
	}

	if opts.logFile != "" {
		fw, err := eventlog.NewFileWriter(opts.logFile)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		writers = append(writers, fw)
		closers = append(closers, fw)
	}
	if opts.logDir != "" {
		if err := os.MkdirAll(opts.logDir, 0o755); err != nil {
			cleanup()
			return nil, func() {}, err
		}
		f, err := os.Create(filepath.Join(opts.logDir, eventlog.LogFileName(cfg)))
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		writers = append(writers, eventlog.NewCSVWriter(f))
		closers = append(closers, f)
	}

	switch len(writers) {
	case 0:
		return nil, cleanup, nil
	case 1:
		return writers[0], cleanup, nil
	}
	return eventlog.NewMultiWriter(writers...), cleanup, nil
}

// baseWriter chooses GreptimeDB when GREPTIMEDB_ENDPOINT is set, the
// terminal otherwise.
func baseWriter(opts writerOptions, stdout io.Writer) (eventlog.Writer, error) {
	if endpoint := os.Getenv("GREPTIMEDB_ENDPOINT"); endpoint != "" && !opts.printOnly {
		db := os.Getenv("GREPTIMEDB_DATABASE")
		if db == "" {
			db = "public"
		}
		w, err := eventlog.NewGreptimeDBWriter(endpoint, db, opts.start, slog.Default())
		if err != nil {
			return nil, err
		}
		slog.Info("streaming records to GreptimeDB", "endpoint", endpoint, "database", db, "table", eventlog.DefaultGreptimeTable)
		return w, nil
	}
	if opts.summaryOnly {
		return nil, nil
	}

	format := opts.format
	if format == formatAuto || format == "" {
		format = formatCSV
		if isTerminal(stdout) {
			format = formatColor
		}
	}
	switch format {
	case formatCSV:
		return eventlog.NewCSVWriter(stdout), nil
	case formatJSON:
		return eventlog.NewJSONWriter(stdout), nil
	case formatColor:
		return eventlog.NewColorWriter(stdout), nil
	}
	return nil, fmt.Errorf("%w: unknown format %q", config.ErrConfiguration, opts.format)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
