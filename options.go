// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package gobench

import "time"

// Default configuration values (spec §6's "recognized keys" table).
const (
	DefaultDelay      = 5 * time.Millisecond
	DefaultInitCount  = 1
	DefaultMaxTime    = 5 * time.Second
	DefaultMinSamples = 5
)

// config holds the immutable-after-construction configuration of a
// [Benchmark] (spec §3's "Configuration" attribute group).
type config struct {
	name       string
	fn         TestFunc
	setup      func() error
	teardown   func() error
	delay      time.Duration
	initCount  int64
	minTime    time.Duration // zero means "compute from timer resolution"
	maxTime    time.Duration
	minSamples int
	async      bool
	deferred   bool

	onStart    Listener
	onCycle    Listener
	onError    Listener
	onAbort    Listener
	onReset    Listener
	onComplete Listener
}

func defaultConfig() *config {
	return &config{
		delay:      DefaultDelay,
		initCount:  DefaultInitCount,
		maxTime:    DefaultMaxTime,
		minSamples: DefaultMinSamples,
	}
}

// Option configures a [Benchmark] at construction time via [New].
type Option interface {
	apply(*config)
}

// optionFunc implements Option.
type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithFn sets the test body. A [TestFunc] that obtains its
// [DeferredContext] through [Benchmark.Deferred] and signals completion by
// calling DeferredContext.Resolve, rather than by returning, should be
// paired with [WithDefer](true).
func WithFn(fn TestFunc) Option {
	return optionFunc(func(c *config) { c.fn = fn })
}

// WithSetup registers a function run once before each cycle's batch starts.
func WithSetup(fn func() error) Option {
	return optionFunc(func(c *config) { c.setup = fn })
}

// WithTeardown registers a function run once after each cycle's batch ends.
func WithTeardown(fn func() error) Option {
	return optionFunc(func(c *config) { c.teardown = fn })
}

// WithDelay sets the inter-cycle pause used in async mode (spec §4.3's
// "scheduling between cycles"). Default [DefaultDelay].
func WithDelay(d time.Duration) Option {
	return optionFunc(func(c *config) { c.delay = d })
}

// WithInitCount sets the starting iteration count per cycle. Default
// [DefaultInitCount].
func WithInitCount(n int64) Option {
	return optionFunc(func(c *config) { c.initCount = n })
}

// WithMinTime sets the target per-cycle duration. If unset (or zero), it is
// computed from the selected timer's resolution such that measurement
// uncertainty is at most 1% (spec §3).
func WithMinTime(d time.Duration) Option {
	return optionFunc(func(c *config) { c.minTime = d })
}

// WithMaxTime sets the total sampling time budget. Default [DefaultMaxTime].
func WithMaxTime(d time.Duration) Option {
	return optionFunc(func(c *config) { c.maxTime = d })
}

// WithMinSamples sets the lower bound on sample count before the sampler is
// allowed to stop on budget exhaustion. Default [DefaultMinSamples].
func WithMinSamples(n int) Option {
	return optionFunc(func(c *config) { c.minSamples = n })
}

// WithAsync marks the benchmark's cycles as running without blocking the
// host (spec §3); the sampler/invoker will suspend between cycles via the
// scheduler rather than looping immediately.
func WithAsync(async bool) Option {
	return optionFunc(func(c *config) { c.async = async })
}

// WithDefer marks the test body as deferred: it signals completion
// explicitly via [DeferredContext.Resolve] instead of returning (spec §4.4).
func WithDefer(deferred bool) Option {
	return optionFunc(func(c *config) { c.deferred = deferred })
}

// WithOnStart registers a listener for the "start" event.
func WithOnStart(l Listener) Option { return optionFunc(func(c *config) { c.onStart = l }) }

// WithOnCycle registers a listener for the "cycle" event.
func WithOnCycle(l Listener) Option { return optionFunc(func(c *config) { c.onCycle = l }) }

// WithOnError registers a listener for the "error" event.
func WithOnError(l Listener) Option { return optionFunc(func(c *config) { c.onError = l }) }

// WithOnAbort registers a listener for the "abort" event.
func WithOnAbort(l Listener) Option { return optionFunc(func(c *config) { c.onAbort = l }) }

// WithOnReset registers a listener for the "reset" event.
func WithOnReset(l Listener) Option { return optionFunc(func(c *config) { c.onReset = l }) }

// WithOnComplete registers a listener for the "complete" event.
func WithOnComplete(l Listener) Option { return optionFunc(func(c *config) { c.onComplete = l }) }

// resolveOptions applies opts over the library defaults, skipping nil
// options gracefully.
func resolveOptions(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(cfg)
	}
	return cfg
}

// clone produces a shallow copy of cfg, used when a [Sampler] creates a
// clone [Benchmark] sharing the source's configuration (spec §4.5).
func (c *config) clone() *config {
	cp := *c
	return &cp
}
