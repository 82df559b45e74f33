// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package gobench

import "time"

// minMillisecondResolution is the floor imposed on the wall-clock
// millisecond source (spec §4.1, §6: "1.5 ms floor").
const minMillisecondResolution = 1500 * time.Microsecond

// resolutionProbeIterations is how many samples the resolution probe takes
// per candidate (spec §4.1: "≥30 iterations").
const resolutionProbeIterations = 30

// resolutionProbeMaxSpins bounds how many consecutive readings the probe
// takes while waiting for a candidate's clock to advance; a clock that has
// not advanced by then is treated as broken.
const resolutionProbeMaxSpins = 1 << 22

// Timer is a candidate time source probed by [NewTimerRegistry]. Now returns
// a monotonic reading; Resolution is filled in by the registry after probing
// and is not meaningful before that.
type Timer struct {
	// Name identifies the candidate for diagnostics (e.g. "monotonic-ns",
	// "wall-clock-ms").
	Name string

	// Now returns the current time. Implementations should prefer a
	// monotonic source; the registry only ever compares readings taken from
	// the same Timer, so wall-clock jumps in a different candidate can't
	// leak in.
	Now func() time.Time

	// Floor is the minimum resolution this candidate is trusted to report,
	// even if the probe measures something finer (spec §4.1's "floor may be
	// imposed per candidate"). Zero means no floor.
	Floor time.Duration

	// Resolution is the probed resolution, set by the registry. Infinity
	// (represented as -1, see [Timer.Broken]) means the candidate is broken.
	Resolution time.Duration
}

// Broken reports whether the candidate was found unusable during probing.
func (t *Timer) Broken() bool { return t.Resolution < 0 }

// defaultCandidates returns the timer sources probed out of the box (spec
// §6: "High-resolution monotonic nanosecond source; wall-clock millisecond
// source with a 1.5ms floor").
func defaultCandidates() []*Timer {
	return []*Timer{
		{
			Name: "monotonic-ns",
			Now:  time.Now,
		},
		{
			Name:  "wall-clock-ms",
			Now:   func() time.Time { return time.Now().Truncate(time.Millisecond) },
			Floor: minMillisecondResolution,
		},
	}
}

// TimerRegistry holds the selected, finest-resolution working [Timer] (C1).
// Construction probes every candidate's resolution once; thereafter Now and
// Resolution are cheap reads.
type TimerRegistry struct {
	selected   *Timer
	candidates []*Timer
}

// NewTimerRegistry probes candidates (or [defaultCandidates] if nil) and
// selects the finest-resolution survivor. Returns [NoUsableTimerError] if
// every candidate is broken.
func NewTimerRegistry(candidates ...*Timer) (*TimerRegistry, error) {
	if len(candidates) == 0 {
		candidates = defaultCandidates()
	}

	for _, c := range candidates {
		c.Resolution = probeResolution(c)
	}

	var best *Timer
	for _, c := range candidates {
		if c.Broken() {
			continue
		}
		if best == nil || c.Resolution < best.Resolution {
			best = c
		}
	}
	if best == nil {
		log().Err().Log(`no usable timer candidate`)
		return nil, &NoUsableTimerError{}
	}

	log().Debug().
		Str(`name`, best.Name).
		Dur(`resolution`, best.Resolution).
		Log(`timer registry selected candidate`)

	return &TimerRegistry{selected: best, candidates: candidates}, nil
}

// probeResolution samples t's clock [resolutionProbeIterations] times,
// recording the smallest nonzero delta seen per iteration, then averages the
// positive deltas (spec §4.1). A negative delta, or a clock that reports a
// zero delta for [resolutionProbeMaxSpins] consecutive readings, marks the
// candidate broken (resolution -1, meaning infinity).
func probeResolution(t *Timer) time.Duration {
	var sum time.Duration
	var count int

	prev := t.Now()
	for i := 0; i < resolutionProbeIterations; i++ {
		var delta time.Duration
		for spins := 0; delta <= 0; spins++ {
			if spins == resolutionProbeMaxSpins {
				return -1
			}
			now := t.Now()
			delta = now.Sub(prev)
			prev = now
			if delta < 0 {
				return -1
			}
		}
		sum += delta
		count++
	}
	if count == 0 {
		return -1
	}

	resolution := sum / time.Duration(count)
	if t.Floor > 0 && resolution < t.Floor {
		resolution = t.Floor
	}
	return resolution
}

// Now returns the current time from the selected timer.
func (r *TimerRegistry) Now() time.Time { return r.selected.Now() }

// Resolution returns the selected timer's probed resolution.
func (r *TimerRegistry) Resolution() time.Duration { return r.selected.Resolution }

// Selected returns the chosen candidate's name, for diagnostics.
func (r *TimerRegistry) Selected() string { return r.selected.Name }
