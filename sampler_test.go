package gobench

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampler_Run_AccumulatesUntilBudgetExhausted(t *testing.T) {
	b := New("sampled", func(*Benchmark) error { return nil },
		WithMinTime(time.Nanosecond),
		WithMinSamples(2),
		WithMaxTime(time.Nanosecond),
	)
	b.registry = fakeRegistry(time.Microsecond)

	var completed bool
	b.On("complete", func(*Event) bool { completed = true; return true })

	err := NewSampler(b).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, completed)
	assert.False(t, b.Running())
	assert.GreaterOrEqual(t, len(b.Stats().Sample), 2)
	assert.Greater(t, b.times.Elapsed, time.Duration(0))
	assert.Equal(t, b.cfg.initCount, b.count)
}

func TestSampler_Run_StopsWhenListenerAbortsMidSampling(t *testing.T) {
	b := New("abort-sampled", func(*Benchmark) error { return nil },
		WithMinTime(time.Nanosecond),
		WithMinSamples(100),
		WithMaxTime(time.Hour),
	)
	b.registry = fakeRegistry(time.Microsecond)

	var cycles int
	b.On("cycle", func(*Event) bool {
		cycles++
		b.Abort()
		return true
	})

	err := NewSampler(b).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, b.Aborted())
	assert.False(t, b.Running())
	assert.Equal(t, 1, cycles)
	assert.Len(t, b.Stats().Sample, 1)
}

// TestSampler_Run_AbortDuringGrowthPhaseDiscardsIncompleteSample exercises
// the multi-round Scheduling→Clocking growth path (minTime far above a
// single batch's elapsed time), unlike
// TestSampler_Run_StopsWhenListenerAbortsMidSampling, whose minTime of one
// nanosecond makes the very first batch immediately Done. Aborting here
// must still reach the clone doing the measuring (via wireClone's cycle
// forwarder) before it has recorded a conclusive sample.
func TestSampler_Run_AbortDuringGrowthPhaseDiscardsIncompleteSample(t *testing.T) {
	b := New("growth-abort", func(*Benchmark) error { return nil },
		WithMinTime(10*time.Microsecond),
		WithMinSamples(100),
		WithMaxTime(time.Hour),
	)
	b.registry = fakeRegistry(time.Microsecond)

	var cycles int
	b.On("cycle", func(*Event) bool {
		cycles++
		if cycles == 2 {
			b.Abort()
		}
		return true
	})

	err := NewSampler(b).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, b.Aborted())
	assert.False(t, b.Running())
	assert.Equal(t, 2, cycles)
	assert.Empty(t, b.Stats().Sample)
}

func TestSampler_Run_BodyErrorStopsSamplingAndPropagates(t *testing.T) {
	bodyErr := errors.New("sampler boom")
	b := New("erroring-sampled", func(*Benchmark) error { return bodyErr }, WithMinTime(time.Nanosecond))
	b.registry = fakeRegistry(time.Microsecond)

	err := NewSampler(b).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, bodyErr)
	assert.False(t, b.Running())
}

func TestSampler_Run_RespectsContextCancellation(t *testing.T) {
	b := New("ctx-sampled", func(*Benchmark) error { return nil }, WithMinTime(time.Nanosecond))
	b.registry = fakeRegistry(time.Microsecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewSampler(b).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
