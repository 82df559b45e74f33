// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package gobench

import "math"

// tTable is the two-tailed, 95%-confidence Student's t critical value keyed
// by degrees of freedom 1..30; index 0 ("∞") is used for df > 30 (spec
// §4.5's literal table).
var tTable = [31]float64{
	1.96, // index 0: ∞ (df > 30)
	12.706, 4.303, 3.182, 2.776, 2.571, 2.447, 2.365, 2.306, 2.262, 2.228,
	2.201, 2.179, 2.16, 2.145, 2.131, 2.12, 2.11, 2.101, 2.093, 2.086,
	2.08, 2.074, 2.069, 2.064, 2.06, 2.056, 2.052, 2.048, 2.045, 2.042,
}

// criticalValue returns the two-tailed 95% Student's t critical value for
// df degrees of freedom (spec §4.5: "df = 0 is treated as df = 1").
func criticalValue(df int) float64 {
	if df <= 0 {
		df = 1
	}
	if df > 30 {
		return tTable[0]
	}
	return tTable[df]
}

// Stats is the sampling controller's running statistics record (spec §3's
// "stats" result, §4.5's formulas). It is recomputed from scratch on every
// sample push — no listener observes a Stats value that disagrees with
// Sample (spec §5's ordering guarantee).
type Stats struct {
	Sample    []float64 // per-cycle periods, in the order cycles completed
	Mean      float64
	Variance  float64
	Deviation float64 // standard deviation
	SEM       float64 // standard error of the mean
	MOE       float64 // margin of error
	RME       float64 // relative margin of error, percent

	percentiles *percentileTracker
}

// defaultPercentileTargets are the quantiles tracked for every Stats value
// (supplemented per SPEC_FULL.md §12.1; spec.md's own Stats record has no
// percentile field, but every sample pushed onto it is also fed to a P²
// tracker so a distribution's tail is visible without retaining samples).
var defaultPercentileTargets = []float64{0.5, 0.9, 0.99}

// Percentile returns the current P² estimate for quantile q (one of
// [defaultPercentileTargets]), or 0 before the first sample, or if q isn't
// one of the tracked targets.
func (s *Stats) Percentile(q float64) float64 {
	if s.percentiles == nil {
		return 0
	}
	return s.percentiles.Percentile(q)
}

// pushSample appends period to s.Sample and recomputes every derived field.
func (s *Stats) pushSample(period float64) {
	if s.percentiles == nil {
		s.percentiles = newPercentileTracker(defaultPercentileTargets...)
	}
	s.percentiles.update(period)

	s.Sample = append(s.Sample, period)
	n := len(s.Sample)

	var sum float64
	for _, v := range s.Sample {
		sum += v
	}
	s.Mean = sum / float64(n)

	if n > 1 {
		var sq float64
		for _, v := range s.Sample {
			d := v - s.Mean
			sq += d * d
		}
		s.Variance = sq / float64(n-1)
	} else {
		s.Variance = 0
	}

	s.Deviation = math.Sqrt(s.Variance)
	s.SEM = s.Deviation / math.Sqrt(float64(n))

	critical := criticalValue(n - 1)
	s.MOE = s.SEM * critical

	if s.Mean != 0 {
		s.RME = (s.MOE / s.Mean) * 100
	} else {
		s.RME = 0
	}
}

// percentileTracker maintains streaming quantile estimates for a benchmark's
// sample distribution, via the P² algorithm (Jain & Chlamtac 1985). This is
// a supplemented feature: spec.md's Stats record itself has no percentile
// field, but the algorithm is a natural, O(1)-per-observation complement to
// the running mean/variance it already tracks, and the teacher's own
// implementation is a direct, unmodified fit.
type percentileTracker struct {
	estimators []*pSquareQuantile
	targets    []float64
}

// newPercentileTracker creates a tracker for the given quantiles (e.g. 0.5,
// 0.9, 0.99).
func newPercentileTracker(quantiles ...float64) *percentileTracker {
	t := &percentileTracker{targets: quantiles}
	for _, q := range quantiles {
		t.estimators = append(t.estimators, newPSquareQuantile(q))
	}
	return t
}

// update feeds one more sample period into every tracked quantile.
func (t *percentileTracker) update(period float64) {
	for _, est := range t.estimators {
		est.Update(period)
	}
}

// Percentile returns the current estimate for quantile q, or 0 if q wasn't
// one of the targets passed to [newPercentileTracker].
func (t *percentileTracker) Percentile(q float64) float64 {
	for i, target := range t.targets {
		if target == q {
			return t.estimators[i].Quantile()
		}
	}
	return 0
}

// pSquareQuantile implements the P² algorithm for streaming quantile
// estimation: O(1) per-observation updates and O(1) quantile retrieval,
// without storing observations.
//
// Reference: Jain, R. and Chlamtac, I. (1985). "The P² Algorithm for
// Dynamic Calculation of Quantiles and Histograms Without Storing
// Observations". Communications of the ACM, 28(10), pp. 1076-1085.
//
// Not safe for concurrent use.
type pSquareQuantile struct {
	p          float64
	q          [5]float64
	n          [5]int
	np         [5]float64
	dn         [5]float64
	count      int
	initBuffer [5]float64
}

// newPSquareQuantile creates an estimator for quantile p (e.g. 0.99 for P99).
func newPSquareQuantile(p float64) *pSquareQuantile {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return &pSquareQuantile{
		p:  p,
		dn: [5]float64{0, p / 2, p, (1 + p) / 2, 1},
	}
}

// Update adds a new observation. O(1).
func (ps *pSquareQuantile) Update(x float64) {
	ps.count++

	if ps.count <= 5 {
		ps.initBuffer[ps.count-1] = x
		if ps.count == 5 {
			ps.initialize()
		}
		return
	}

	var k int
	if x < ps.q[0] {
		ps.q[0] = x
		k = 0
	} else if x >= ps.q[4] {
		ps.q[4] = x
		k = 3
	} else {
		for k = 0; k < 4; k++ {
			if ps.q[k] <= x && x < ps.q[k+1] {
				break
			}
		}
	}

	for i := k + 1; i < 5; i++ {
		ps.n[i]++
	}
	for i := 0; i < 5; i++ {
		ps.np[i] += ps.dn[i]
	}

	for i := 1; i < 4; i++ {
		d := ps.np[i] - float64(ps.n[i])
		if (d >= 1 && ps.n[i+1]-ps.n[i] > 1) || (d <= -1 && ps.n[i-1]-ps.n[i] < -1) {
			sign := 1
			if d < 0 {
				sign = -1
			}

			qPrime := ps.parabolic(i, sign)
			if ps.q[i-1] < qPrime && qPrime < ps.q[i+1] {
				ps.q[i] = qPrime
			} else {
				ps.q[i] = ps.linear(i, sign)
			}
			ps.n[i] += sign
		}
	}
}

func (ps *pSquareQuantile) initialize() {
	for i := 1; i < 5; i++ {
		key := ps.initBuffer[i]
		j := i - 1
		for j >= 0 && ps.initBuffer[j] > key {
			ps.initBuffer[j+1] = ps.initBuffer[j]
			j--
		}
		ps.initBuffer[j+1] = key
	}

	for i := 0; i < 5; i++ {
		ps.q[i] = ps.initBuffer[i]
		ps.n[i] = i
	}
	ps.np = [5]float64{0, 2 * ps.p, 4 * ps.p, 2 + 2*ps.p, 4}
}

func (ps *pSquareQuantile) parabolic(i, d int) float64 {
	df := float64(d)
	ni := float64(ps.n[i])
	niPrev := float64(ps.n[i-1])
	niNext := float64(ps.n[i+1])

	term1 := df / (niNext - niPrev)
	term2 := (ni - niPrev + df) * (ps.q[i+1] - ps.q[i]) / (niNext - ni)
	term3 := (niNext - ni - df) * (ps.q[i] - ps.q[i-1]) / (ni - niPrev)
	return ps.q[i] + term1*(term2+term3)
}

func (ps *pSquareQuantile) linear(i, d int) float64 {
	if d == 1 {
		return ps.q[i] + (ps.q[i+1]-ps.q[i])/float64(ps.n[i+1]-ps.n[i])
	}
	return ps.q[i] - (ps.q[i]-ps.q[i-1])/float64(ps.n[i]-ps.n[i-1])
}

// Quantile returns the current estimate. O(1).
func (ps *pSquareQuantile) Quantile() float64 {
	if ps.count == 0 {
		return 0
	}
	if ps.count < 5 {
		sorted := make([]float64, ps.count)
		copy(sorted, ps.initBuffer[:ps.count])
		for i := 1; i < ps.count; i++ {
			key := sorted[i]
			j := i - 1
			for j >= 0 && sorted[j] > key {
				sorted[j+1] = sorted[j]
				j--
			}
			sorted[j+1] = key
		}
		index := int(float64(ps.count-1) * ps.p)
		if index >= ps.count {
			index = ps.count - 1
		}
		return sorted[index]
	}
	return ps.q[2]
}
