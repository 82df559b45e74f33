// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package gobench

import (
	"fmt"
	"sync/atomic"
	"time"
)

// TestFunc is a benchmark's test body. In synchronous mode it returns when
// one iteration is complete; in deferred mode ([WithDefer]) it starts
// whatever work it needs to and signals completion later by calling its
// [DeferredContext]'s Resolve, rather than by returning.
type TestFunc func(b *Benchmark) error

// batchTagCounter hands out per-process-unique integrity tags (spec §4.2).
// Go function calls cannot silently return through the wrong stack frame,
// so the control-flow-hijack threat the source's tag defends against has
// no direct Go analogue. preTest advances the counter once per batch, but
// nothing compares a tag against what the body returns: a [TestFunc]
// returns only an error, which carries no tag.
var batchTagCounter atomic.Uint64

// batchShape selects how the clock loop invokes the test body.
type batchShape int

const (
	// batchInlined names the inlined shape (§4.2). The clock loop does not
	// implement it.
	batchInlined batchShape = iota

	// batchIndirect names the indirect-call shape: the body is called
	// through bm.cfg.fn. It is the only shape the clock loop uses.
	batchIndirect
)

// clockBatch runs bm's test body bm.count times back-to-back and returns
// the elapsed time (spec §4.2). It always runs a pre-test iteration first.
func (bm *Benchmark) clockBatch() (time.Duration, error) {
	if bm.cfg.fn == nil {
		return 0, &EmptyBodyError{}
	}

	if err := bm.preTest(); err != nil {
		return 0, err
	}

	start := bm.registry.Now()
	if err := bm.runBatch(bm.count); err != nil {
		return 0, &BodyThrewInRunError{Cause: err}
	}
	return bm.registry.Now().Sub(start), nil
}

// preTest runs a single tagged iteration to detect a runtime fault before
// committing to the real batch (spec §4.2, (iii)). A thrown error here is
// terminal: the clock loop has no other batch shape to fall back to.
func (bm *Benchmark) preTest() error {
	batchTagCounter.Add(1)

	if err := bm.runOneIteration(); err != nil {
		return &PreTestThrewError{Cause: err}
	}
	return nil
}

// runOneIteration calls bm.cfg.fn exactly once, converting a panic to an error.
func (bm *Benchmark) runOneIteration() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoverToError(r)
		}
	}()
	return bm.cfg.fn(bm)
}

// runBatch invokes bm.cfg.fn count times back-to-back, running setup/
// teardown once around the whole batch.
func (bm *Benchmark) runBatch(count int64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoverToError(r)
		}
	}()

	if bm.cfg.setup != nil {
		if err := bm.cfg.setup(); err != nil {
			return err
		}
	}
	for i := int64(0); i < count; i++ {
		if err := bm.cfg.fn(bm); err != nil {
			return err
		}
	}
	if bm.cfg.teardown != nil {
		if err := bm.cfg.teardown(); err != nil {
			return err
		}
	}
	return nil
}

// recoverToError normalizes a recover() value to an error.
func recoverToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}
