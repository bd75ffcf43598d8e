// Package engine is a single-threaded discrete-event scheduler driven by a
// simulated clock.
package engine

import (
	"container/heap"
	"context"
	"time"
)

type event struct {
	at     time.Duration
	seq    uint64
	action func()
}

// eventQueue orders events by time, then by enqueue order.
type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) { *q = append(*q, x.(*event)) }

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return ev
}

// Scheduler executes callbacks in non-decreasing simulated time. Callbacks at
// the same time run in the order they were scheduled. Callbacks may schedule
// further callbacks at the same or a later time.
type Scheduler struct {
	now      time.Duration
	queue    eventQueue
	seq      uint64
	executed int
	stopped  bool
}

// New returns an empty scheduler at time zero.
func New() *Scheduler {
	return &Scheduler{}
}

// Now returns the current simulated time.
func (s *Scheduler) Now() time.Duration { return s.now }

// Schedule runs action after delay. A negative delay counts as zero.
func (s *Scheduler) Schedule(delay time.Duration, action func()) {
	if delay < 0 {
		delay = 0
	}
	s.ScheduleAt(s.now+delay, action)
}

// ScheduleAt runs action at the absolute time at. Times in the past are
// raised to Now so the clock never runs backwards.
func (s *Scheduler) ScheduleAt(at time.Duration, action func()) {
	if at < s.now {
		at = s.now
	}
	heap.Push(&s.queue, &event{at: at, seq: s.seq, action: action})
	s.seq++
}

// Run executes queued callbacks up to and including until. When it returns,
// every callback not yet executed has been discarded and Now is until, or the
// time of the last executed callback if Stop ended the run early.
//
// Cancelling ctx discards the queue and returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context, until time.Duration) error {
	s.stopped = false
	defer s.clear()
	for s.queue.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		next := s.queue[0]
		if next.at > until {
			break
		}
		heap.Pop(&s.queue)
		s.now = next.at
		next.action()
		s.executed++
		if s.stopped {
			return nil
		}
	}
	if s.now < until {
		s.now = until
	}
	return nil
}

// Stop ends the current Run after the executing callback returns. Pending
// callbacks are discarded without error.
func (s *Scheduler) Stop() { s.stopped = true }

// Pending returns the number of queued callbacks.
func (s *Scheduler) Pending() int { return s.queue.Len() }

// Executed returns how many callbacks have run so far.
func (s *Scheduler) Executed() int { return s.executed }

// NextEventTime returns the time of the earliest queued callback.
func (s *Scheduler) NextEventTime() (time.Duration, bool) {
	if s.queue.Len() == 0 {
		return 0, false
	}
	return s.queue[0].at, true
}

func (s *Scheduler) clear() {
	s.queue = nil
}
