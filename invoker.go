// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package gobench

import (
	"context"
)

// InvokerMode selects how an [Invoker] walks its list of benchmarks.
type InvokerMode int

const (
	// ModeList walks a fixed list by index, collecting every item's run
	// error into a result slice regardless of earlier failures (spec
	// §4.6's "map mode", used by [Suite]).
	ModeList InvokerMode = iota

	// ModeQueue drains a live FIFO that may grow while Run is in
	// progress — typically from its own "cycle" listener — and stops at
	// the first run error (spec §4.6's "queue mode", used by [Sampler]
	// to drive its clone queue).
	ModeQueue
)

// Invoker drives a set of benchmarks through Run, firing start/cycle/
// complete around the whole set rather than per benchmark (C6, spec §2:
// "the sampling controller (C5) enqueues clone benchmarks into the
// invoker (C6); C6 calls each clone's run").
type Invoker struct {
	*EventTarget

	mode  InvokerMode
	list  []*Benchmark // ModeList: fixed, walked by index
	queue *cloneQueue  // ModeQueue: live FIFO, growable via Push

	run func(context.Context, *Benchmark) error

	errors []error
}

// NewInvoker creates an Invoker over benchmarks, in the given mode. The
// default runner calls b.Run(ctx) directly; override it with SetRunner to
// drive each item through something else (e.g. [Suite] drives each
// benchmark through its own [Sampler]).
func NewInvoker(mode InvokerMode, benchmarks ...*Benchmark) *Invoker {
	inv := &Invoker{EventTarget: NewEventTarget(), mode: mode}
	inv.run = inv.defaultRun
	if mode == ModeQueue {
		inv.queue = newCloneQueue(len(benchmarks) + 2)
		for _, b := range benchmarks {
			inv.queue.PushBack(b)
		}
	} else {
		inv.list = append([]*Benchmark(nil), benchmarks...)
	}
	return inv
}

// SetRunner overrides how each benchmark is driven to completion.
func (inv *Invoker) SetRunner(fn func(context.Context, *Benchmark) error) {
	inv.run = fn
}

// Push enqueues another benchmark. Only meaningful in ModeQueue; a no-op
// in ModeList. Called from a "cycle" listener, this is how the sampling
// controller (C5) grows its clone queue one clone at a time as each
// measurement completes (spec §4.5's "Queue").
func (inv *Invoker) Push(b *Benchmark) {
	if inv.mode == ModeQueue {
		inv.queue.PushBack(b)
	}
}

// Errors returns the run errors collected during the most recent Run, in
// invocation order. nil entries mean success.
func (inv *Invoker) Errors() []error { return inv.errors }

// Run drives every benchmark to completion, firing "start" once before
// the first, "cycle" once between (or, in ModeQueue, after) each, and
// "complete" once the set is exhausted or iteration stops early.
func (inv *Invoker) Run(ctx context.Context) error {
	if inv.mode == ModeQueue {
		return inv.runQueue(ctx)
	}
	return inv.runList(ctx)
}

// runList walks the fixed list, collecting every item's error and never
// stopping early except on context cancellation or a "cycle" listener
// setting Aborted.
func (inv *Invoker) runList(ctx context.Context) (err error) {
	inv.errors = make([]error, 0, len(inv.list))
	inv.Emit(&Event{Type: "start"})
	defer func() { inv.Emit(&Event{Type: "complete", Result: inv}) }()

	for i, b := range inv.list {
		if ctxErr := ctx.Err(); ctxErr != nil {
			b.Abort()
			return ctxErr
		}

		inv.errors = append(inv.errors, inv.runOne(ctx, b))

		if i+1 < len(inv.list) {
			ev := &Event{Type: "cycle", Result: b}
			inv.Emit(ev)
			if ev.Aborted {
				break
			}
		}
	}
	return nil
}

// runQueue drains the live queue, stopping at the first run error (the
// sampling controller's clones form a single dependent sequence, not
// independent items — unlike ModeList, a failed clone invalidates the
// whole attempt). A "cycle" listener may Push more clones, or set Aborted
// to stop early without an error.
func (inv *Invoker) runQueue(ctx context.Context) error {
	inv.errors = inv.errors[:0]
	inv.Emit(&Event{Type: "start"})
	defer func() { inv.Emit(&Event{Type: "complete", Result: inv}) }()

	for inv.queue.Len() > 0 {
		if err := ctx.Err(); err != nil {
			if peek := inv.queue.PopFront(); peek != nil {
				peek.Abort()
			}
			return err
		}

		b := inv.queue.PopFront()
		runErr := inv.runOne(ctx, b)
		inv.errors = append(inv.errors, runErr)
		if runErr != nil {
			return runErr
		}

		ev := &Event{Type: "cycle", Result: b}
		inv.Emit(ev)
		if ev.Aborted {
			break
		}
	}
	return nil
}

func (inv *Invoker) runOne(ctx context.Context, b *Benchmark) error {
	return inv.run(ctx, b)
}

// defaultRun runs b synchronously if it's configured for that, or
// asynchronously (installing a one-shot completion listener first, per
// spec §4.6's sync/async policy) and draining its scheduler to completion
// otherwise.
func (inv *Invoker) defaultRun(ctx context.Context, b *Benchmark) error {
	if b.cfg.async || b.cfg.deferred {
		// Registered before Run is called and moved to the front of the
		// "complete" listeners, so it fires ahead of any listener the
		// caller already attached (spec §4.6).
		id := b.On("complete", func(*Event) bool { return true })
		entries := b.listeners["complete"]
		b.listeners["complete"] = append([]listenerEntry{entries[len(entries)-1]}, entries[:len(entries)-1]...)
		defer b.Off("complete", id)
	}
	return b.Run(ctx)
}
