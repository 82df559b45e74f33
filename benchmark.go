// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package gobench

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/benchcore/gobench/gobenchcmp"
)

// benchmarkIDCounter hands out the numeric identity named in spec §3.
var benchmarkIDCounter atomic.Int64

// sharedTimerRegistry is the process-wide timer registry (spec §5: "the
// compiled timer ... is effectively process-wide but read-only after
// selection"). It is initialized lazily, once, on first use.
var sharedTimerRegistry struct {
	registry *TimerRegistry
	err      error
	done     bool
}

func defaultTimerRegistry() (*TimerRegistry, error) {
	if !sharedTimerRegistry.done {
		sharedTimerRegistry.registry, sharedTimerRegistry.err = NewTimerRegistry()
		sharedTimerRegistry.done = true
	}
	return sharedTimerRegistry.registry, sharedTimerRegistry.err
}

// Times is a benchmark's timing result record (spec §3's "times" record).
type Times struct {
	Cycle     time.Duration // = Period * count
	Elapsed   time.Duration // set once the sampling controller terminates
	Period    time.Duration // = Cycle / count
	TimeStamp time.Time     // when the most recent cycle was evaluated, after its batch ended
}

// Benchmark describes a test plus its running state and results (spec §3).
// Benchmarks are created detached, transition to running on Run, may be
// cloned by a [Sampler], and terminate on sampler completion or abort.
type Benchmark struct {
	*EventTarget

	id   int64
	name string
	cfg  *config

	registry *TimerRegistry
	sched    *scheduler

	count  int64 // current iterations per cycle
	cycles int64 // cycles completed
	hz     float64

	times Times
	stats Stats

	running bool
	aborted bool
	err     error

	// source is set on clones (spec §3's "Lineage"): mutations are
	// mirrored into it for externally visible fields. nil on a
	// non-clone benchmark.
	source *Benchmark

	cycle    cycle
	deferred *DeferredContext

	// resetInProgress/abortInProgress guard against mutual recursion
	// between Reset and Abort (spec §9's "Reentrancy guards" design note:
	// state on the benchmark, not process-global flags).
	resetInProgress bool
	abortInProgress bool
}

// New constructs a detached [Benchmark] named name, with fn as its test
// body plus any configuring [Option]s.
func New(name string, fn TestFunc, opts ...Option) *Benchmark {
	allOpts := append([]Option{WithFn(fn)}, opts...)
	cfg := resolveOptions(allOpts)
	cfg.name = name

	bm := &Benchmark{
		EventTarget: NewEventTarget(),
		id:          benchmarkIDCounter.Add(1),
		name:        name,
		cfg:         cfg,
		count:       cfg.initCount,
	}
	bm.wireConfigListeners()
	return bm
}

// wireConfigListeners registers the listeners set via WithOnStart/WithOnCycle/
// etc as real EventTarget subscriptions, so they behave identically to
// listeners added later via On.
func (bm *Benchmark) wireConfigListeners() {
	for _, pair := range []struct {
		typ string
		l   Listener
	}{
		{"start", bm.cfg.onStart},
		{"cycle", bm.cfg.onCycle},
		{"error", bm.cfg.onError},
		{"abort", bm.cfg.onAbort},
		{"reset", bm.cfg.onReset},
		{"complete", bm.cfg.onComplete},
	} {
		if pair.l != nil {
			bm.On(pair.typ, pair.l)
		}
	}
}

// ID returns the benchmark's process-unique numeric identity.
func (bm *Benchmark) ID() int64 { return bm.id }

// Name returns the benchmark's name.
func (bm *Benchmark) Name() string { return bm.name }

// Running reports whether the benchmark is currently running.
func (bm *Benchmark) Running() bool { return bm.running }

// Aborted reports whether the benchmark was aborted.
func (bm *Benchmark) Aborted() bool { return bm.aborted }

// Err returns the last error recorded against the benchmark, if any.
func (bm *Benchmark) Err() error { return bm.err }

// Count returns the current per-cycle iteration count.
func (bm *Benchmark) Count() int64 { return bm.count }

// Cycles returns the number of cycles completed.
func (bm *Benchmark) Cycles() int64 { return bm.cycles }

// Hz returns operations per second (= 1/mean period), valid once at least
// one cycle has completed.
func (bm *Benchmark) Hz() float64 { return bm.hz }

// Times returns the benchmark's timing result record.
func (bm *Benchmark) Times() Times { return bm.times }

// Stats returns the benchmark's running statistics record. The returned
// value is a snapshot; it does not alias the benchmark's internal sample
// slice.
func (bm *Benchmark) Stats() Stats {
	cp := bm.stats
	cp.Sample = append([]float64(nil), bm.stats.Sample...)
	return cp
}

// Deferred returns the context for the in-flight deferred cycle, or nil if
// none is in flight.
func (bm *Benchmark) Deferred() *DeferredContext { return bm.deferred }

// minTime returns the configured target per-cycle duration, computing one
// from the timer's resolution (≤1% measurement uncertainty, spec §3) if
// unset.
func (bm *Benchmark) minTime() time.Duration {
	if bm.cfg.minTime > 0 {
		return bm.cfg.minTime
	}
	if bm.registry != nil {
		return bm.registry.Resolution() * 100
	}
	return DefaultMinTimeFloor
}

// DefaultMinTimeFloor is used when minTime is unset and no timer registry
// is available to derive one from (should not occur once Run has started).
const DefaultMinTimeFloor = 50 * time.Millisecond

// Run starts the benchmark: binds a timer registry and scheduler if not
// already set (a [Sampler] shares both across clones), fires start, and
// drives the cycle controller to completion. For an async or deferred
// benchmark it drains the benchmark's scheduler before returning; that
// scheduler is shared with every clone a [Sampler] creates.
func (bm *Benchmark) Run(ctx context.Context) error {
	if bm.running {
		return nil
	}

	if bm.registry == nil {
		registry, err := defaultTimerRegistry()
		if err != nil {
			bm.fail(err)
			return err
		}
		bm.registry = registry
	}
	if bm.sched == nil {
		bm.sched = newScheduler(bm.registry.Now)
	}

	bm.running = true
	bm.aborted = false
	bm.err = nil
	bm.cycles = 0
	bm.stats = Stats{}
	bm.count = bm.cfg.initCount

	bm.Emit(&Event{Type: "start"})

	err := bm.runCycle()
	bm.cycles++

	// completeCycle and emitCycleAndCheckAbort already fire "complete" at
	// the actual point of termination (synchronously for the plain case,
	// from within the scheduler drain below for async/deferred).
	if bm.cfg.async || bm.cfg.deferred {
		return bm.sched.run(ctx)
	}
	return err
}

// fail records err as the benchmark's last error (mirrored onto a clone's
// source), fires an error event, marks the benchmark as no longer running
// at once, and fires complete.
func (bm *Benchmark) fail(err error) {
	bm.err = err
	if bm.source != nil {
		bm.source.err = err
	}
	log().Err().Str(`benchmark`, bm.name).Log(err.Error())
	bm.Emit(&Event{Type: "error", Message: err.Error()})
	bm.running = false
	bm.Emit(&Event{Type: "complete", Result: bm})
}

// recordTimes updates bm.times from a cycle's measured elapsed time (spec
// §3's invariants: hz*period=1, times.cycle=period*count).
func (bm *Benchmark) recordTimes(elapsed time.Duration) {
	bm.times.Cycle = elapsed
	bm.times.TimeStamp = bm.registry.Now()
	if bm.count > 0 {
		bm.times.Period = elapsed / time.Duration(bm.count)
	}
	if bm.times.Period > 0 {
		bm.hz = float64(time.Second) / float64(bm.times.Period)
	}
}

// Abort cooperatively cancels the benchmark (spec §5: "calling abort() ...
// clears any pending suspension ... fires an abort event"). It is
// idempotent and safe to call even when not running.
func (bm *Benchmark) Abort() {
	if bm.abortInProgress || bm.aborted {
		return
	}
	bm.abortInProgress = true
	defer func() { bm.abortInProgress = false }()

	bm.aborted = true
	if bm.sched != nil {
		bm.sched.timers = nil // clears any pending suspension
	}
	log().Debug().Str(`benchmark`, bm.name).Log(`benchmark aborted`)
	bm.Emit(&Event{Type: "abort"})
	if !bm.resetInProgress {
		bm.running = false
	}
}

// Reset returns the benchmark to a state indistinguishable from just after
// construction: same configuration, empty sample, zero counters, not
// running (spec §8's round-trip property).
func (bm *Benchmark) Reset() {
	if bm.resetInProgress {
		return
	}
	bm.resetInProgress = true
	defer func() { bm.resetInProgress = false }()

	if bm.running {
		bm.Abort()
	}

	bm.count = bm.cfg.initCount
	bm.cycles = 0
	bm.hz = 0
	bm.times = Times{}
	bm.stats = Stats{}
	bm.running = false
	bm.aborted = false
	bm.err = nil
	bm.deferred = nil

	bm.Emit(&Event{Type: "reset"})
}

// Clone creates a clone of bm sharing its configuration, with a back-
// pointer to bm as its source (spec §3's "Lineage", §4.5's "Clones"). The
// clone shares bm's timer registry and scheduler so it runs on the same
// cooperative thread.
func (bm *Benchmark) Clone() *Benchmark {
	clone := &Benchmark{
		EventTarget: NewEventTarget(),
		id:          benchmarkIDCounter.Add(1),
		name:        bm.name,
		cfg:         bm.cfg.clone(),
		registry:    bm.registry,
		sched:       bm.sched,
		count:       bm.cfg.initCount,
		source:      bm,
	}
	clone.wireConfigListeners()
	return clone
}

// Compare reports the relative throughput of bm versus other, using a
// Mann-Whitney U test on their sample distributions (spec §6's
// benchmark.compare; see the gobenchcmp package for the test itself).
// Returns 1 if bm is faster, -1 if slower, 0 if no significant difference
// (or insufficient data).
func (bm *Benchmark) Compare(other *Benchmark) int {
	return gobenchcmp.Compare(bm.stats.Sample, other.stats.Sample)
}
