// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package gobench

import "context"

// Suite is an ordered collection of named benchmarks (spec §1 treats the
// suite as an out-of-scope external collaborator but specifies its
// interface in §6; SPEC_FULL.md §12.2 implements it in full). Running a
// suite drives each benchmark through its own [Sampler] in sequence.
type Suite struct {
	*EventTarget

	name  string
	bench []*Benchmark
}

// NewSuite creates an empty, named Suite.
func NewSuite(name string) *Suite {
	return &Suite{EventTarget: NewEventTarget(), name: name}
}

// Name returns the suite's name.
func (s *Suite) Name() string { return s.name }

// Add appends b to the suite and fires an "add" event (spec §6's event
// taxonomy: "plus suite-level add").
func (s *Suite) Add(b *Benchmark) *Suite {
	s.bench = append(s.bench, b)
	s.Emit(&Event{Type: "add", Result: b})
	return s
}

// Benchmarks returns the suite's benchmarks, in the order they were added.
func (s *Suite) Benchmarks() []*Benchmark {
	return append([]*Benchmark(nil), s.bench...)
}

// Len returns the number of benchmarks in the suite.
func (s *Suite) Len() int { return len(s.bench) }

// Run samples every benchmark in the suite in order, via the invoker
// (C6) in [ModeList], driving each one through its own [Sampler]. A
// cancelled ctx aborts the in-flight benchmark exactly as
// [Benchmark.Abort] would (SPEC_FULL.md §12.4's context-based
// cancellation) and stops iteration.
func (s *Suite) Run(ctx context.Context) error {
	s.Emit(&Event{Type: "start"})

	inv := NewInvoker(ModeList, s.bench...)
	inv.SetRunner(func(ctx context.Context, b *Benchmark) error {
		err := NewSampler(b).Run(ctx)
		if err != nil {
			s.Emit(&Event{Type: "error", Message: err.Error()})
		}
		return err
	})
	inv.On("cycle", func(ev *Event) bool {
		s.Emit(ev)
		return true
	})

	err := inv.Run(ctx)

	s.Emit(&Event{Type: "complete", Result: s})
	return err
}
