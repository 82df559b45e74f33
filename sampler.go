// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package gobench

import (
	"context"
	"time"
)

// Sampler drives a source [Benchmark] through repeated clone measurements,
// accumulating a sample distribution of per-operation periods (C5, spec
// §4.5) until at least minSamples samples exist and the clocked time
// exceeds maxTime, or a clone aborts or fails; there is no stop on a
// confidence target. The source itself is never run directly — only its
// clones are.
// Sampler delegates the actual clone-by-clone dispatch to an [Invoker] in
// [ModeQueue] (spec §2: "C5 enqueues clone benchmarks into the invoker
// (C6); C6 calls each clone's run").
type Sampler struct {
	source *Benchmark

	initialTimeStamp time.Time
	elapsed          time.Duration
	maxedOut         bool
}

// NewSampler creates a Sampler for b.
func NewSampler(b *Benchmark) *Sampler {
	return &Sampler{source: b}
}

// Run drives the sampling loop to completion, or until ctx is cancelled.
// A new clone is pushed onto the invoker's queue after each one finishes,
// until the sample-count/time budget is met, and the source's accumulated
// error, if any, is reported on return.
func (s *Sampler) Run(ctx context.Context) error {
	b := s.source

	if b.registry == nil {
		registry, err := defaultTimerRegistry()
		if err != nil {
			b.fail(err)
			return err
		}
		b.registry = registry
	}
	if b.sched == nil {
		b.sched = newScheduler(b.registry.Now)
	}

	s.initialTimeStamp = b.registry.Now()
	s.elapsed = 0
	s.maxedOut = false

	b.running = true
	b.aborted = false
	b.err = nil
	b.stats = Stats{}
	b.cycles = 0

	b.Emit(&Event{Type: "start"})

	inv := NewInvoker(ModeQueue, s.newWiredClone())
	inv.On("cycle", func(ev *Event) bool {
		clone, _ := ev.Result.(*Benchmark)
		s.afterCycle(clone)

		if s.maxedOut || b.aborted || b.err != nil {
			ev.Aborted = true
			return true
		}
		inv.Push(s.newWiredClone())
		return true
	})

	err := inv.Run(ctx)
	s.terminate()
	if err != nil {
		return err
	}
	return b.err
}

// newClone creates a fresh clone of the source, sharing its timer registry
// and scheduler.
func (s *Sampler) newClone() *Benchmark {
	clone := s.source.Clone()
	clone.registry = s.source.registry
	clone.sched = s.source.sched
	return clone
}

// newWiredClone creates a clone and installs its forwarding listeners in
// one step, ready to hand to the invoker.
func (s *Sampler) newWiredClone() *Benchmark {
	clone := s.newClone()
	s.wireClone(clone)
	return clone
}

// wireClone installs the event-forwarding listeners spec §4.5 describes
// for a clone: error and abort propagate to the source; cycle re-fires on
// the source with its target rewritten.
func (s *Sampler) wireClone(clone *Benchmark) {
	b := s.source

	clone.On("error", func(ev *Event) bool {
		b.err = clone.err
		if _, ok := clone.err.(*UnclockableRateError); ok {
			log().Warning().Str(`benchmark`, b.name).Log(`discarding samples: unclockable rate`)
			b.stats = Stats{}
		}
		b.Emit(&Event{Type: "error", Message: ev.Message})
		return true
	})
	clone.On("abort", func(ev *Event) bool {
		// Safety net for an abort reaching the clone by some path other
		// than the cycle forwarder below (which already re-emits "cycle"
		// on the source itself) — just keep the source's flag in sync.
		if !b.aborted {
			b.Abort()
		}
		return true
	})
	clone.On("cycle", func(ev *Event) bool {
		forwarded := &Event{Type: "cycle", Result: ev.Result}
		b.Emit(forwarded)
		// A listener on the source (the only handle a caller ever has — the
		// clone doing the actual measuring is never exposed) may abort via
		// the forwarded event or by calling b.Abort() directly. Either way,
		// the clone itself must see it so its own cycle boundary check
		// (emitCycleAndCheckAbort) stops the batch, per spec §5's "abort is
		// respected at the next cycle boundary."
		if forwarded.Aborted || b.aborted {
			clone.Abort()
		}
		return true
	})

	if b.aborted {
		clone.Off("abort", 0)
		clone.Abort()
	}
}

// afterCycle updates the sampling budget and source statistics once a
// clone has finished its (single) measurement cycle.
//
// A clone aborted after already reaching cycleDone (completeCycle already
// pushed its sample onto b.stats via source mirroring) stopped sampling
// cleanly with a good measurement in hand — that sample is kept. A clone
// aborted before reaching a conclusive measurement (growth phase) has
// nothing usable, so that discards the accumulated sample set. An
// unclockable rate is handled before afterCycle ever runs: it fails the
// clone's Run outright (wireClone's "error" listener resets b.stats), so
// the invoker's queue never reaches the point of emitting "cycle" for it.
func (s *Sampler) afterCycle(clone *Benchmark) {
	b := s.source

	s.elapsed += clone.times.Cycle

	if clone.aborted {
		s.maxedOut = true
		if len(clone.stats.Sample) == 0 {
			log().Warning().Str(`benchmark`, b.name).Log(`discarding samples: clone aborted before a conclusive measurement`)
			b.stats = Stats{}
			return
		}
	}

	n := len(b.stats.Sample)
	s.maxedOut = s.maxedOut || (n >= b.cfg.minSamples && s.elapsed > b.cfg.maxTime)

	if b.stats.Mean > 0 {
		b.hz = float64(time.Second) / b.stats.Mean
		b.times.Period = time.Duration(b.stats.Mean)
		b.times.Cycle = time.Duration(b.stats.Mean) * time.Duration(clone.count)
	}
}

// terminate finalizes the source benchmark once sampling has stopped
// (spec §4.5's "Termination"): records the elapsed wall time, restores
// initCount, and emits completion.
func (s *Sampler) terminate() {
	b := s.source
	b.times.Elapsed = b.registry.Now().Sub(s.initialTimeStamp)
	b.count = b.cfg.initCount
	b.running = false
	b.Emit(&Event{Type: "complete", Result: b})
}
