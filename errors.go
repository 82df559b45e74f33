// Package gobench provides error types with cause-chain support for the
// benchmark measurement core (spec §7).
package gobench

import "fmt"

// EmptyBodyError is raised when a benchmark has no test body (a nil
// [TestFunc]); the clock loop checks for this before its pre-test.
type EmptyBodyError struct {
	Cause error
}

// Error implements the error interface.
func (e *EmptyBodyError) Error() string {
	if e.Cause != nil {
		return "gobench: empty body: " + e.Cause.Error()
	}
	return "gobench: empty body"
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *EmptyBodyError) Unwrap() error { return e.Cause }

// PreTestThrewError is raised when the body throws during the pre-test
// iteration. The clock loop only uses the indirect-call shape, so there is
// no other shape to retry with and this error is terminal.
type PreTestThrewError struct {
	Cause error
}

func (e *PreTestThrewError) Error() string {
	if e.Cause != nil {
		return "gobench: pre-test threw: " + e.Cause.Error()
	}
	return "gobench: pre-test threw"
}

func (e *PreTestThrewError) Unwrap() error { return e.Cause }

// BodyThrewInRunError is raised when the body panics or returns an error
// during the real measurement batch (not the pre-test).
type BodyThrewInRunError struct {
	Cause error
}

func (e *BodyThrewInRunError) Error() string {
	if e.Cause != nil {
		return "gobench: body threw during run: " + e.Cause.Error()
	}
	return "gobench: body threw during run"
}

func (e *BodyThrewInRunError) Unwrap() error { return e.Cause }

// NoUsableTimerError is raised when every candidate timer source probed by
// the timer registry turned out broken (non-positive or infinite resolution).
// This is fatal on initialization: the library is unusable without a timer.
type NoUsableTimerError struct {
	Cause error
}

func (e *NoUsableTimerError) Error() string {
	if e.Cause != nil {
		return "gobench: no usable timer: " + e.Cause.Error()
	}
	return "gobench: no usable timer"
}

func (e *NoUsableTimerError) Unwrap() error { return e.Cause }

// UnclockableRateError is raised when Hz becomes infinite: per-iteration
// time falls below timer resolution even after the cycle controller has
// exhausted its fallback iteration-count table (spec §4.3, cycle index 5).
type UnclockableRateError struct {
	Cause error
}

func (e *UnclockableRateError) Error() string {
	if e.Cause != nil {
		return "gobench: unclockable rate: " + e.Cause.Error()
	}
	return "gobench: unclockable rate"
}

func (e *UnclockableRateError) Unwrap() error { return e.Cause }

// ExceededBudgetError signals that minSamples was met but maxTime was
// reached before the confidence target. Unlike the other error kinds this
// one is benign: the [Sampler] stops gracefully with whatever statistics it
// has accumulated, and does not itself return or emit this error.
type ExceededBudgetError struct {
	Cause error
}

func (e *ExceededBudgetError) Error() string {
	if e.Cause != nil {
		return "gobench: exceeded time budget: " + e.Cause.Error()
	}
	return "gobench: exceeded time budget"
}

func (e *ExceededBudgetError) Unwrap() error { return e.Cause }

// CompilationRefusedError names the failure of both the inlined and the
// indirect-call batch shapes. The clock loop in this package only uses the
// indirect-call shape and does not raise it.
type CompilationRefusedError struct {
	Cause error
}

func (e *CompilationRefusedError) Error() string {
	if e.Cause != nil {
		return "gobench: compilation refused: " + e.Cause.Error()
	}
	return "gobench: compilation refused"
}

func (e *CompilationRefusedError) Unwrap() error { return e.Cause }

// TimerStopFailedError is raised for a deferred benchmark whose teardown
// returns an error once the batch's timer has been stopped. A deferred body
// that never calls Resolve is not detected: Run returns with the benchmark
// still running.
type TimerStopFailedError struct {
	Cause error
}

func (e *TimerStopFailedError) Error() string {
	if e.Cause != nil {
		return "gobench: timer stop failed: " + e.Cause.Error()
	}
	return "gobench: timer stop failed"
}

func (e *TimerStopFailedError) Unwrap() error { return e.Cause }

// DeferredDoubleResolveError is raised (best-effort; spec §4.4 calls this
// undefined behavior if undetected) when a deferred test body calls
// DeferredContext.Resolve more than once for the same cycle.
type DeferredDoubleResolveError struct {
	Cause error
}

func (e *DeferredDoubleResolveError) Error() string {
	if e.Cause != nil {
		return "gobench: deferred resolved twice: " + e.Cause.Error()
	}
	return "gobench: deferred resolved twice"
}

func (e *DeferredDoubleResolveError) Unwrap() error { return e.Cause }

// WrapError wraps an error with a message and optional cause chain.
//
// If the original error should be the cause, pass it as both arguments:
//
//	WrapError("context failed", originalErr)
//
// The result satisfies errors.Is(result, originalErr) == true.
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}
