// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package gobenchcmp compares two benchmarks' sample distributions using a
// two-sample Mann-Whitney U test (spec §6's benchmark.compare, supplemented
// per SPEC_FULL.md §12.3 since the distilled spec treats comparison as an
// out-of-scope external collaborator and only names its interface).
package gobenchcmp

import (
	"math"

	"golang.org/x/exp/slices"
)

// significanceZ is the two-tailed 95%-confidence threshold on the standard
// normal distribution, matching the 95% confidence used throughout the
// measurement core's Student's-t statistics (spec §4.5).
const significanceZ = 1.96

// Compare reports whether a's sample distribution indicates significantly
// higher throughput (faster, i.e. smaller periods) than b's, via the
// normal approximation to the Mann-Whitney U test with a tie correction.
//
// Returns 1 if a is significantly faster, -1 if b is significantly faster,
// 0 if the difference is not significant at 95% confidence (including when
// either sample has fewer than 2 observations).
func Compare(a, b []float64) int {
	if len(a) < 2 || len(b) < 2 {
		return 0
	}

	z, err := mannWhitneyZ(a, b)
	if err != nil {
		return 0
	}
	if math.Abs(z) < significanceZ {
		return 0
	}
	// Smaller periods (faster) rank lower; a negative z means a's ranks
	// skew lower than b's, i.e. a is faster.
	if z < 0 {
		return 1
	}
	return -1
}

// observation is one sample tagged by which group it came from, for the
// combined-rank step of the Mann-Whitney U test.
type observation struct {
	value float64
	group int // 0 = a, 1 = b
}

// mannWhitneyZ computes the normal-approximation z statistic for the
// Mann-Whitney U test between samples a and b, with a tie correction on
// the variance term.
func mannWhitneyZ(a, b []float64) (float64, error) {
	n1, n2 := len(a), len(b)
	combined := make([]observation, 0, n1+n2)
	for _, v := range a {
		combined = append(combined, observation{value: v, group: 0})
	}
	for _, v := range b {
		combined = append(combined, observation{value: v, group: 1})
	}
	slices.SortFunc(combined, func(a, b observation) int {
		switch {
		case a.value < b.value:
			return -1
		case a.value > b.value:
			return 1
		default:
			return 0
		}
	})

	ranks := make([]float64, len(combined))
	var tieCorrection float64
	for i := 0; i < len(combined); {
		j := i
		for j < len(combined) && combined[j].value == combined[i].value {
			j++
		}
		// Observations i..j-1 are tied; they all receive the average rank
		// of positions i+1..j (1-based).
		avgRank := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			ranks[k] = avgRank
		}
		tieSize := float64(j - i)
		if tieSize > 1 {
			tieCorrection += tieSize*tieSize*tieSize - tieSize
		}
		i = j
	}

	var rankSumA float64
	for i, obs := range combined {
		if obs.group == 0 {
			rankSumA += ranks[i]
		}
	}

	nf1, nf2 := float64(n1), float64(n2)
	u1 := rankSumA - nf1*(nf1+1)/2
	meanU := nf1 * nf2 / 2

	n := nf1 + nf2
	varU := nf1 * nf2 / 12 * ((n + 1) - tieCorrection/(n*(n-1)))
	if varU <= 0 {
		return 0, errAllTied
	}

	return (u1 - meanU) / math.Sqrt(varU), nil
}

var errAllTied = errTied{}

type errTied struct{}

func (errTied) Error() string { return "gobenchcmp: samples are degenerate (zero variance)" }
