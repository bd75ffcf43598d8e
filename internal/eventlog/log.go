package eventlog

import (
	"iter"
	"log/slog"
	"slices"
	"sync"
)

// Log is the append-only record store of a single run. Every record is
// forwarded to the sink as soon as it is appended.
type Log struct {
	logger  *slog.Logger
	mu      sync.Mutex
	records []Record
	sink    Writer
}

// New creates a Log streaming to sink. A nil sink only stores records.
func New(sink Writer) *Log {
	return &Log{logger: slog.Default(), sink: sink}
}

// WithLogger sets the logger used to report sink failures.
func (l *Log) WithLogger(logger *slog.Logger) *Log {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// Record appends r and forwards it to the sink. The sink is called under the
// log's lock, so it sees records in append order. Sink failures are logged
// and do not affect the stored record.
func (l *Log) Record(r Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, r)

	if l.sink == nil {
		return
	}
	if err := l.sink.Write(r); err != nil {
		l.logger.Warn("event sink write failed", "kind", r.Kind, "packet_id", r.PacketID, "err", err)
	}
}

// Len returns the number of stored records.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Query yields the records matching pred, in append order. Each iteration
// works on a snapshot taken when it starts. A nil pred matches everything.
func (l *Log) Query(pred func(Record) bool) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for _, r := range l.snapshot() {
			if pred != nil && !pred(r) {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

// SortedByTime returns a copy of the records ordered by simulated time.
// Records sharing a time keep their append order.
func (l *Log) SortedByTime() []Record {
	out := l.snapshot()
	slices.SortStableFunc(out, func(a, b Record) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return 0
	})
	return out
}

func (l *Log) snapshot() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.records)
}

// OfKind matches records of kind k.
func OfKind(k Kind) func(Record) bool {
	return func(r Record) bool { return r.Kind == k }
}
