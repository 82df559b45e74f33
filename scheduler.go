// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package gobench

import (
	"container/heap"
	"context"
	"time"
)

// scheduler is the single delay-scheduling primitive behind all three
// suspension points named in spec §5: the inter-cycle delay (async
// [Benchmark]), the deferred-resolve continuation (§4.4), and the
// inter-benchmark pause inside [Invoker]. There is exactly one producer and
// one consumer — the same goroutine — so no lock guards the heap; this is
// deliberately simpler than a general-purpose event loop's timer facility.
type scheduler struct {
	timers schedulerHeap
	now    func() time.Time
}

// newScheduler creates an empty scheduler. now defaults to time.Now if nil.
func newScheduler(now func() time.Time) *scheduler {
	if now == nil {
		now = time.Now
	}
	return &scheduler{now: now}
}

// schedulerEntry is one pending callback, ordered by when it fires.
type schedulerEntry struct {
	when time.Time
	fn   func()
}

// schedulerHeap is a min-heap of schedulerEntry ordered by when.
type schedulerHeap []schedulerEntry

func (h schedulerHeap) Len() int           { return len(h) }
func (h schedulerHeap) Less(i, j int) bool { return h[i].when.Before(h[j].when) }
func (h schedulerHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *schedulerHeap) Push(x any) { *h = append(*h, x.(schedulerEntry)) }

func (h *schedulerHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// after schedules fn to run once delay has elapsed, as measured by the
// scheduler's own clock. A non-positive delay fires as soon as the
// scheduler is next drained.
func (s *scheduler) after(delay time.Duration, fn func()) {
	heap.Push(&s.timers, schedulerEntry{when: s.now().Add(delay), fn: fn})
}

// pending reports whether any callback is still outstanding.
func (s *scheduler) pending() bool { return len(s.timers) > 0 }

// run blocks until every scheduled callback has fired (popping and invoking
// callbacks as their deadlines elapse) or ctx is cancelled. It is the
// cooperative "sleep until next suspension point resolves" loop, called by
// [Benchmark.Run] for async and deferred benchmarks; [Sampler], [Suite] and
// [Invoker] reach it only through Benchmark.Run.
//
// run returns nil once s.timers is empty. Each fired callback may itself
// schedule further callbacks (e.g. the next cycle's delay); run keeps
// draining until none remain.
func (s *scheduler) run(ctx context.Context) error {
	for s.pending() {
		if err := ctx.Err(); err != nil {
			return err
		}

		next := s.timers[0]
		wait := next.when.Sub(s.now())
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		entry := heap.Pop(&s.timers).(schedulerEntry)
		entry.fn()
	}
	return nil
}
