// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package gobench is the measurement and statistics core of a
// micro-benchmarking engine: given a user-supplied test routine, it
// determines how many operations per second the routine performs and
// reports the confidence of that estimate.
//
// # Architecture
//
// Six tightly coupled components do the work, leaves first:
//
//   - A [Timer] registry ([NewTimerRegistry]) enumerates candidate time
//     sources, probes their resolution, and picks the finest-grained one
//     that actually works.
//   - A clock loop (unexported, driven by [Benchmark.runCycle]) runs the
//     test body a chosen number of times back-to-back and returns the
//     elapsed seconds.
//   - A cycle controller grows the iteration count until one batch takes
//     at least MinTime, reporting period and Hz.
//   - A deferred protocol ([DeferredContext]) lets a test body signal
//     completion asynchronously, resuming the cycle controller when the
//     body resolves.
//   - A [Sampler] repeatedly drives a [Benchmark]'s clones through the
//     cycle controller, maintaining running [Stats] and stopping once its
//     sample-count and time budget is met.
//   - An [Invoker] drives a queue or list of benchmarks through their run
//     lifecycle, honoring synchronous vs. asynchronous mode.
//
// Data flow: [Sampler] enqueues clone [Benchmark] values into [Invoker];
// [Invoker] calls each clone's Run, which dispatches to the cycle
// controller; the cycle controller uses the clock loop, which reads time
// from the selected [Timer]; a deferred test suspends the cycle controller,
// and the deferred protocol resumes it.
//
// # Concurrency model
//
// The engine is single-threaded and cooperative. At most one test body
// executes at any instant; nothing here spawns goroutines or shares
// mutable state across threads, and the only lock guards the package-level
// logger set by [SetLogger]. An async [Benchmark]
// or a deferred body explicitly suspends at one of three points: the
// inter-cycle delay, the awaited deferred resolve, or the inter-benchmark
// pause inside [Invoker]. A single [scheduler] (a timer min-heap plus a
// drain loop) models all three.
//
// # Usage
//
//	b := gobench.New("fib(20)", func(b *gobench.Benchmark) error {
//	    fib(20)
//	    return nil
//	})
//
//	s := gobench.NewSampler(b)
//	if err := s.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%.0f ops/sec ± %.2f%%\n", b.Hz(), b.Stats().RME)
//
// # Error types
//
// [EmptyBodyError], [PreTestThrewError], [BodyThrewInRunError],
// [NoUsableTimerError], [UnclockableRateError], [ExceededBudgetError],
// [CompilationRefusedError], [TimerStopFailedError], and
// [DeferredDoubleResolveError] model the failure modes the engine can hit.
// All satisfy the standard [error] interface and [errors.Unwrap].
package gobench
