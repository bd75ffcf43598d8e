package eventlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"
)

var csvHeader = []string{
	"Simulation Time", "Event", "Receiver ID", "Packet Size",
	"Packet ID", "Sender ID", "Success", "Current Seed",
}

// CSVWriter writes records in the column layout the evaluation scripts load.
// The header is written with the first record, so an aborted configuration
// leaves no header. Placements are written as raw position lines, which the
// scripts skip when loading the table.
type CSVWriter struct {
	mu     sync.Mutex
	out    io.Writer
	w      *csv.Writer
	header bool
}

// NewCSVWriter creates a CSVWriter on out.
func NewCSVWriter(out io.Writer) *CSVWriter {
	return &CSVWriter{out: out, w: csv.NewWriter(out)}
}

// Write outputs one record and flushes.
func (c *CSVWriter) Write(r Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.write(r); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

// WriteBatch outputs rows with a single flush.
func (c *CSVWriter) WriteBatch(rows []Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range rows {
		if err := c.write(r); err != nil {
			return err
		}
	}
	c.w.Flush()
	return c.w.Error()
}

// WritePlacement outputs a position line.
func (c *CSVWriter) WritePlacement(p Placement) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(c.out, p.String())
	return err
}

func (c *CSVWriter) write(r Record) error {
	if !c.header {
		if err := c.w.Write(csvHeader); err != nil {
			return err
		}
		c.header = true
	}
	return c.w.Write([]string{
		strconv.FormatFloat(r.Time.Seconds(), 'f', -1, 64),
		string(r.Kind),
		optInt(r.Receiver),
		strconv.Itoa(r.Size),
		strconv.FormatUint(r.PacketID, 10),
		optInt(r.Sender),
		optBool(r.Success),
		strconv.FormatInt(r.Seed, 10),
	})
}
