package eventlog

// Writer receives records as they are produced.
type Writer interface {
	Write(Record) error
}

type batchWriter interface {
	WriteBatch([]Record) error
}

// WriteAll sends rows to w, batching when w supports it.
func WriteAll(w Writer, rows []Record) error {
	if bw, ok := w.(batchWriter); ok {
		return bw.WriteBatch(rows)
	}
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// MultiWriter fans records out to multiple writers.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a new MultiWriter. Nil writers are skipped.
func NewMultiWriter(ws ...Writer) *MultiWriter {
	mw := &MultiWriter{}
	for _, w := range ws {
		if w != nil {
			mw.writers = append(mw.writers, w)
		}
	}
	return mw
}

// Write sends a record to all writers.
func (mw *MultiWriter) Write(r Record) error {
	for _, w := range mw.writers {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatch sends multiple records to all writers, using batch if supported.
func (mw *MultiWriter) WriteBatch(rows []Record) error {
	for _, w := range mw.writers {
		if err := WriteAll(w, rows); err != nil {
			return err
		}
	}
	return nil
}

// WritePlacement sends a placement to the writers that export placements.
func (mw *MultiWriter) WritePlacement(p Placement) error {
	for _, w := range mw.writers {
		if err := WritePlacement(w, p); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of wrapped writers.
func (mw *MultiWriter) Len() int { return len(mw.writers) }
