// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package gobench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimerRegistry_SelectsFinestWorkingCandidate(t *testing.T) {
	coarse := &Timer{Name: "coarse", Now: func() time.Time { return time.Now().Truncate(time.Millisecond) }}
	fine := &Timer{Name: "fine", Now: time.Now}

	registry, err := NewTimerRegistry(coarse, fine)
	require.NoError(t, err)
	assert.Equal(t, "fine", registry.Selected())
	assert.Greater(t, registry.Resolution(), time.Duration(0))
}

func TestNewTimerRegistry_AllBrokenReturnsError(t *testing.T) {
	broken := &Timer{Name: "broken", Now: func() time.Time { return time.Time{} }}

	_, err := NewTimerRegistry(broken)
	require.Error(t, err)
	var noUsable *NoUsableTimerError
	assert.ErrorAs(t, err, &noUsable)
}

func TestNewTimerRegistry_DefaultCandidates(t *testing.T) {
	registry, err := NewTimerRegistry()
	require.NoError(t, err)
	assert.NotEmpty(t, registry.Selected())
	assert.True(t, registry.Now().After(time.Time{}))
}

func TestTimer_Broken(t *testing.T) {
	ok := &Timer{Resolution: time.Microsecond}
	assert.False(t, ok.Broken())

	bad := &Timer{Resolution: -1}
	assert.True(t, bad.Broken())
}

func TestProbeResolution_FloorApplied(t *testing.T) {
	var calls int
	timer := &Timer{
		Floor: time.Second,
		Now: func() time.Time {
			calls++
			return time.Unix(0, int64(calls)*int64(time.Microsecond))
		},
	}
	res := probeResolution(timer)
	assert.Equal(t, time.Second, res)
}

func TestProbeResolution_NegativeDeltaIsBroken(t *testing.T) {
	var calls int
	timer := &Timer{
		Now: func() time.Time {
			calls++
			// Clock jumps backwards after the first reading.
			return time.Unix(0, int64(-calls))
		},
	}
	res := probeResolution(timer)
	assert.Equal(t, time.Duration(-1), res)
}
