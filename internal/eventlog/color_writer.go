package eventlog

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// ColorWriter prints records as colorized, human-friendly lines.
type ColorWriter struct {
	mu    sync.Mutex
	out   io.Writer
	time  *color.Color
	kinds map[Kind]*color.Color
	dim   *color.Color
}

// NewColorWriter creates a ColorWriter on out, or os.Stdout when out is nil.
func NewColorWriter(out io.Writer) *ColorWriter {
	if out == nil {
		out = os.Stdout
	}
	return &ColorWriter{
		out:  out,
		time: color.New(color.FgHiBlack),
		dim:  color.New(color.FgCyan),
		kinds: map[Kind]*color.Color{
			KindTX:               color.New(color.FgBlue, color.Bold),
			KindRX:               color.New(color.FgGreen, color.Bold),
			KindWrongState:       color.New(color.FgYellow),
			KindInterference:     color.New(color.FgMagenta),
			KindUnderSensitivity: color.New(color.FgRed),
		},
	}
}

// WritePlacement outputs a node position.
func (w *ColorWriter) WritePlacement(p Placement) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := fmt.Fprintf(w.out, "%s %s %s node=%d x=%s y=%s\n",
		w.time.Sprintf("[%12s ]", "setup"),
		color.New(color.FgCyan, color.Bold).Sprint("POS"),
		w.dim.Sprintf("run=%d", p.Run),
		p.Node, formatCoord(p.X), formatCoord(p.Y))
	return err
}

// Write outputs a single record.
func (w *ColorWriter) Write(r Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	kc, ok := w.kinds[r.Kind]
	if !ok {
		kc = color.New(color.Reset)
	}
	line := fmt.Sprintf("%s %s %s pkt=%d size=%d",
		w.time.Sprintf("[%12.6fs]", r.Time.Seconds()),
		kc.Sprintf("%-2s", r.Kind),
		w.dim.Sprintf("run=%d", r.Run),
		r.PacketID, r.Size)
	if r.Sender != nil {
		line += fmt.Sprintf(" from=%d", *r.Sender)
	}
	if r.Receiver != nil {
		line += fmt.Sprintf(" at=%d", *r.Receiver)
	}
	if r.Success != nil && !*r.Success {
		line += " " + color.New(color.FgRed).Sprint("send-failed")
	}
	_, err := fmt.Fprintln(w.out, line)
	return err
}
