// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package gobench

import "time"

// DeferredContext is attached to an in-flight cycle of a deferred benchmark
// (spec §3's "Deferred context", §4.4). The test body calls Resolve once it
// considers one iteration complete.
type DeferredContext struct {
	benchmark *Benchmark
	cycles    int64
	elapsed   time.Duration
	timeStamp time.Time

	target  int64 // bm.count at the start of this batch
	pending bool  // true between fn being invoked and Resolve being called
}

// Benchmark returns the benchmark this context belongs to.
func (d *DeferredContext) Benchmark() *Benchmark { return d.benchmark }

// Cycles returns how many times the body has resolved within the current
// clocked batch.
func (d *DeferredContext) Cycles() int64 { return d.cycles }

// startDeferredBatch begins a deferred batch: binds this cycle's
// continuation, starts the timer, and invokes the body once (spec §4.4,
// step 1).
func (bm *Benchmark) startDeferredBatch() error {
	if bm.cfg.fn == nil {
		err := &EmptyBodyError{}
		bm.fail(err)
		return err
	}

	bm.deferred = &DeferredContext{
		benchmark: bm,
		target:    bm.count,
		timeStamp: bm.registry.Now(),
	}

	if bm.cfg.setup != nil {
		if err := bm.cfg.setup(); err != nil {
			bm.fail(&BodyThrewInRunError{Cause: err})
			return err
		}
	}

	return bm.invokeDeferredIteration()
}

// invokeDeferredIteration runs bm.cfg.fn once more within the current
// deferred batch. Setup runs once at batch start (startDeferredBatch), not
// per iteration.
func (bm *Benchmark) invokeDeferredIteration() error {
	d := bm.deferred
	d.pending = true

	if err := bm.runOneIteration(); err != nil {
		bm.fail(&BodyThrewInRunError{Cause: err})
		return err
	}
	return nil
}

// Resolve signals that the current iteration of a deferred test body has
// completed (spec §4.4, step 2). Resolve calls must be strictly serialized
// per context; a second call before the next iteration is installed
// returns [DeferredDoubleResolveError].
func (d *DeferredContext) Resolve() error {
	bm := d.benchmark
	if !d.pending {
		err := &DeferredDoubleResolveError{}
		bm.fail(err)
		return err
	}
	d.pending = false
	d.cycles++

	if bm.aborted {
		if bm.cfg.teardown != nil {
			_ = bm.cfg.teardown()
		}
		bm.running = false
		bm.Emit(&Event{Type: "cycle", Result: bm.times})
		bm.Emit(&Event{Type: "complete", Result: bm})
		return nil
	}

	if d.cycles < d.target {
		return bm.invokeDeferredIteration()
	}

	d.elapsed = bm.registry.Now().Sub(d.timeStamp)
	if bm.cfg.teardown != nil {
		if err := bm.cfg.teardown(); err != nil {
			bm.fail(&TimerStopFailedError{Cause: err})
			return err
		}
	}

	elapsed := d.elapsed
	bm.deferred = nil
	bm.sched.after(0, func() { _ = bm.advanceCycle(elapsed) })
	return nil
}
