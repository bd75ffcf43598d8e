package eventlog

import (
	"encoding/json"
	"io"
	"os"
	"sync"
)

// JSONWriter prints records as JSON lines.
type JSONWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONWriter creates a JSONWriter on out, or os.Stdout when out is nil.
func NewJSONWriter(out io.Writer) *JSONWriter {
	if out == nil {
		out = os.Stdout
	}
	return &JSONWriter{enc: json.NewEncoder(out)}
}

// Write outputs a record in JSON format.
func (w *JSONWriter) Write(r Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(r)
}

type placementLine struct {
	Kind Kind `json:"kind"`
	Placement
}

// WritePlacement outputs a placement line tagged with KindPlacement.
func (w *JSONWriter) WritePlacement(p Placement) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(placementLine{Kind: KindPlacement, Placement: p})
}

// FileWriter exports records to a JSONL file.
type FileWriter struct {
	f *os.File
	*JSONWriter
}

// NewFileWriter creates (or truncates) path.
func NewFileWriter(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileWriter{f: f, JSONWriter: NewJSONWriter(f)}, nil
}

// Path returns the file being written.
func (f *FileWriter) Path() string { return f.f.Name() }

// Close closes the underlying file.
func (f *FileWriter) Close() error {
	return f.f.Close()
}
