// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package gobench

import (
	"math"
	"time"
)

// cycleState is one of {Idle, Clocking, Evaluating, Scheduling, Done} (spec
// §4.3). It is a plain field, not an atomic: the engine is single-threaded
// cooperative (spec §5), so compare-and-swap machinery would only obscure
// the (in fact perfectly sequential) transitions below.
type cycleState int

const (
	cycleIdle cycleState = iota
	cycleClocking
	cycleEvaluating
	cycleScheduling
	cycleDone
)

// String returns a human-readable representation of the state.
func (s cycleState) String() string {
	switch s {
	case cycleIdle:
		return "Idle"
	case cycleClocking:
		return "Clocking"
	case cycleEvaluating:
		return "Evaluating"
	case cycleScheduling:
		return "Scheduling"
	case cycleDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// fallbackCountTable maps a cycle index to a per-iteration share of a
// 4e6-iteration target, used when a batch measured exactly zero elapsed time
// (spec §4.3). This is a heuristic carried from the spec, not derived from
// first principles; cycle index 5 means the timer proved unusable.
const fallbackIterationBudget = 4_000_000

var fallbackCountTable = map[int]int64{
	1: fallbackIterationBudget / 4096,
	2: fallbackIterationBudget / 512,
	3: fallbackIterationBudget / 64,
	4: fallbackIterationBudget / 8,
}

// fallbackCount returns the fallback iteration count for cycleIndex, or
// false for cycleIndex >= 5 ("unbounded", meaning the timer is unclockable).
func fallbackCount(cycleIndex int) (int64, bool) {
	n, ok := fallbackCountTable[cycleIndex]
	return n, ok
}

// cycle drives one measurement of period = elapsed / count for a
// [Benchmark] (C3). It is owned by the benchmark it measures; bm.runCycle
// is the sole entry point.
type cycle struct {
	state      cycleState
	cycleIndex int // 1-based, reset each time the benchmark starts sampling
}

// runCycle traverses the cycle controller's Idle→...→Done state machine for
// bm, starting from bm.count. It returns [UnclockableRateError] if the
// iteration count diverges, and surfaces clock-loop failures (EmptyBody,
// PreTestThrew, BodyThrewInRun) via bm.fail.
//
// Cycle control is expressed with an explicit loop, not recursion: the
// async and deferred branches already suspend by yielding to bm.sched, and
// each resumption runs from a fresh call frame, so no call stack
// accumulates across cycles.
func (bm *Benchmark) runCycle() error {
	bm.cycle.state = cycleIdle
	bm.cycle.cycleIndex = 0

	if bm.cfg.deferred {
		return bm.enterClockingDeferred()
	}
	return bm.runSyncLoop()
}

// runSyncLoop drives non-deferred cycles. In synchronous mode it loops
// until Done; in async mode it returns after scheduling a continuation
// through bm.sched, which re-enters runSyncLoop when the delay elapses.
func (bm *Benchmark) runSyncLoop() error {
	for {
		bm.cycle.state = cycleClocking
		bm.cycle.cycleIndex++

		elapsed, err := bm.clockBatch()
		if err != nil {
			bm.fail(err)
			return err
		}

		done, err := bm.evaluateCycle(elapsed)
		if err != nil {
			bm.fail(err)
			return err
		}
		if done {
			bm.completeCycle()
			return nil
		}
		if bm.emitCycleAndCheckAbort() {
			return nil
		}
		if bm.cfg.async {
			bm.sched.after(bm.cfg.delay, func() { _ = bm.runSyncLoop() })
			return nil
		}
	}
}

// enterClockingDeferred performs one Clocking step for a deferred body:
// installs the first iteration of the asynchronous batch (§4.4). Later
// iterations, and the eventual transition to Evaluating, run through
// [DeferredContext.Resolve] and advanceCycle.
func (bm *Benchmark) enterClockingDeferred() error {
	bm.cycle.state = cycleClocking
	bm.cycle.cycleIndex++
	return bm.startDeferredBatch()
}

// advanceCycle runs Evaluating, then either Done or Scheduling→(next
// batch). It is invoked by [DeferredContext.Resolve] once a deferred
// batch's elapsed time is known; the next batch (if any) is always
// dispatched through bm.sched, since the deferred protocol's continuation
// is itself a suspension point (spec §5).
func (bm *Benchmark) advanceCycle(elapsed time.Duration) error {
	done, err := bm.evaluateCycle(elapsed)
	if err != nil {
		bm.fail(err)
		return err
	}
	if done {
		bm.completeCycle()
		return nil
	}

	if bm.emitCycleAndCheckAbort() {
		return nil
	}

	bm.sched.after(bm.cfg.delay, func() { _ = bm.enterClockingDeferred() })
	return nil
}

// evaluateCycle computes times.period/hz from elapsed and count, then
// decides whether the cycle is definitive (Done) or needs a larger count
// (Scheduling). Returns done=true once minTime has been reached.
func (bm *Benchmark) evaluateCycle(elapsed time.Duration) (done bool, err error) {
	bm.cycle.state = cycleEvaluating
	bm.recordTimes(elapsed)

	if elapsed >= bm.minTime() {
		bm.cycle.state = cycleDone
		return true, nil
	}

	var nextCount int64
	if elapsed == 0 || bm.count <= 0 {
		n, ok := fallbackCount(bm.cycle.cycleIndex)
		if !ok {
			return false, &UnclockableRateError{}
		}
		nextCount = n
	} else {
		period := elapsed / time.Duration(bm.count)
		remaining := bm.minTime() - elapsed
		growth := int64(math.Ceil(float64(remaining) / float64(period)))
		nextCount = bm.count + growth
	}

	if nextCount <= 0 || nextCount == math.MaxInt64 {
		bm.cycle.state = cycleDone
		return false, &UnclockableRateError{}
	}

	log().Debug().
		Str(`benchmark`, bm.name).
		Int(`cycleIndex`, bm.cycle.cycleIndex).
		Int(`nextCount`, int(nextCount)).
		Log(`cycle scheduling growth`)

	bm.count = nextCount
	bm.cycle.state = cycleScheduling
	return false, nil
}

// emitCycleAndCheckAbort emits the "cycle" event and reports whether a
// listener aborted the benchmark (spec §4.3's "Abort" paragraph).
func (bm *Benchmark) emitCycleAndCheckAbort() bool {
	ev := &Event{Type: "cycle", Result: bm.times}
	bm.Emit(ev)
	if ev.Aborted || bm.aborted {
		bm.cycle.state = cycleDone
		bm.aborted = true
		bm.running = false
		bm.Emit(&Event{Type: "complete", Result: bm})
		return true
	}
	return false
}

// completeCycle records the final measured period as one statistics sample
// (spec §4.5's running mean/variance), mirrors it onto a clone's source
// benchmark, and emits the defining "cycle" event. It runs exactly once,
// when evaluateCycle reports done.
func (bm *Benchmark) completeCycle() {
	period := float64(bm.times.Period)
	bm.stats.pushSample(period)
	if bm.source != nil {
		bm.source.stats.pushSample(period)
	}

	log().Debug().
		Str(`benchmark`, bm.name).
		Int(`cycleIndex`, bm.cycle.cycleIndex).
		Dur(`period`, bm.times.Period).
		Log(`cycle done`)

	bm.Emit(&Event{Type: "cycle", Result: bm.times})
	bm.running = false
	bm.Emit(&Event{Type: "complete", Result: bm})
}
