package eventlog

import (
	"errors"
	"slices"
	"sync"
	"testing"
	"time"
)

type captureWriter struct {
	rows []Record
	err  error
}

func (c *captureWriter) Write(r Record) error {
	c.rows = append(c.rows, r)
	return c.err
}

func TestLogRecordStreamsToSink(t *testing.T) {
	sink := &captureWriter{}
	l := New(sink)
	l.Record(Transmission(time.Second, 1, 7, 50, true))
	l.Record(Reception(2*time.Second, KindRX, 2, 7, 50))

	if l.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", l.Len())
	}
	if len(sink.rows) != 2 || sink.rows[1].Kind != KindRX {
		t.Fatalf("sink did not receive records: %+v", sink.rows)
	}
}

func TestSinkSeesAppendOrder(t *testing.T) {
	sink := &captureWriter{}
	l := New(sink)

	var wg sync.WaitGroup
	for p := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				l.Record(Transmission(time.Duration(i), p, uint64(p*100+i), 50, true))
			}
		}()
	}
	wg.Wait()

	stored := slices.Collect(l.Query(nil))
	if len(stored) != 800 || len(sink.rows) != 800 {
		t.Fatalf("expected 800 records, stored %d sink %d", len(stored), len(sink.rows))
	}
	for i := range stored {
		if stored[i].PacketID != sink.rows[i].PacketID {
			t.Fatalf("sink order differs from append order at %d: %d vs %d", i, sink.rows[i].PacketID, stored[i].PacketID)
		}
	}
}

func TestLogSinkErrorIsSwallowed(t *testing.T) {
	sink := &captureWriter{err: errors.New("boom")}
	l := New(sink)
	l.Record(Transmission(0, 0, 1, 50, true))
	if l.Len() != 1 {
		t.Fatalf("record must be stored despite sink failure")
	}
}

func TestQueryFiltersAndRestarts(t *testing.T) {
	l := New(nil)
	l.Record(Transmission(0, 0, 1, 50, true))
	l.Record(Reception(time.Millisecond, KindRX, 1, 1, 50))
	l.Record(Reception(time.Millisecond, KindInterference, 2, 1, 50))
	l.Record(Reception(2*time.Millisecond, KindRX, 3, 1, 50))

	seq := l.Query(OfKind(KindRX))
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 RX records on both passes, got %d and %d", len(first), len(second))
	}
	if *first[0].Receiver != 1 || *first[1].Receiver != 3 {
		t.Fatalf("unexpected order: %+v", first)
	}
	if all := slices.Collect(l.Query(nil)); len(all) != 4 {
		t.Fatalf("nil predicate should match all, got %d", len(all))
	}
}

func TestQueryEarlyBreak(t *testing.T) {
	l := New(nil)
	for i := range 5 {
		l.Record(Transmission(time.Duration(i), i, uint64(i+1), 50, true))
	}
	n := 0
	for range l.Query(nil) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Fatalf("expected to stop after 2, got %d", n)
	}
}

func TestSortedByTimeIsStable(t *testing.T) {
	l := New(nil)
	l.Record(Reception(3*time.Millisecond, KindRX, 0, 1, 50))
	l.Record(Reception(time.Millisecond, KindRX, 1, 2, 50))
	l.Record(Reception(time.Millisecond, KindRX, 2, 3, 50))

	got := l.SortedByTime()
	want := []uint64{2, 3, 1}
	for i, r := range got {
		if r.PacketID != want[i] {
			t.Fatalf("position %d: got packet %d want %d", i, r.PacketID, want[i])
		}
	}
	// the log itself keeps append order
	if first := slices.Collect(l.Query(nil))[0]; first.PacketID != 1 {
		t.Fatalf("SortedByTime must not reorder the log")
	}
}
