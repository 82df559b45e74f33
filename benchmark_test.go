package gobench

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRegistry gives tests a deterministic, monotonically increasing clock.
func fakeRegistry(step time.Duration) *TimerRegistry {
	var current time.Time
	timer := &Timer{
		Name: "fake",
		Now: func() time.Time {
			current = current.Add(step)
			return current
		},
	}
	registry, err := NewTimerRegistry(timer)
	if err != nil {
		panic(err)
	}
	return registry
}

func TestBenchmark_New_SetsIdentityAndConfig(t *testing.T) {
	called := false
	b := New("my-bench", func(*Benchmark) error { called = true; return nil })

	assert.Equal(t, "my-bench", b.Name())
	assert.NotZero(t, b.ID())
	assert.False(t, b.Running())
	assert.False(t, b.Aborted())
	assert.Nil(t, b.Err())

	require.NoError(t, b.cfg.fn(b))
	assert.True(t, called)
}

func TestBenchmark_Run_CompletesOnFirstCycleWithTinyMinTime(t *testing.T) {
	b := New("noop", func(*Benchmark) error { return nil }, WithMinTime(time.Nanosecond))
	b.registry = fakeRegistry(time.Microsecond)
	b.sched = newScheduler(b.registry.Now)

	var completed bool
	b.On("complete", func(*Event) bool { completed = true; return true })

	err := b.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, completed)
	assert.False(t, b.Running())
	assert.False(t, b.Aborted())
}

func TestBenchmark_Run_EmptyBodyFails(t *testing.T) {
	b := New("empty", nil, WithMinTime(time.Nanosecond))
	b.registry = fakeRegistry(time.Microsecond)
	b.sched = newScheduler(b.registry.Now)

	err := b.Run(context.Background())
	require.Error(t, err)
	var emptyBody *EmptyBodyError
	assert.ErrorAs(t, err, &emptyBody)
	assert.False(t, b.Running())
}

func TestBenchmark_Run_BodyErrorSurfaces(t *testing.T) {
	bodyErr := errors.New("kaboom")
	b := New("throws", func(*Benchmark) error { return bodyErr }, WithMinTime(time.Nanosecond))
	b.registry = fakeRegistry(time.Microsecond)
	b.sched = newScheduler(b.registry.Now)

	var errEvents int
	b.On("error", func(*Event) bool { errEvents++; return true })

	err := b.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, bodyErr)
	assert.Equal(t, 1, errEvents)
	assert.False(t, b.Running())
}

func TestBenchmark_Abort_IsIdempotentAndCooperative(t *testing.T) {
	b := New("abortable", func(*Benchmark) error { return nil })
	b.registry = fakeRegistry(time.Microsecond)
	b.sched = newScheduler(b.registry.Now)

	var aborts int
	b.On("abort", func(*Event) bool { aborts++; return true })

	b.Abort()
	b.Abort() // second call is a no-op

	assert.Equal(t, 1, aborts)
	assert.True(t, b.Aborted())
	assert.False(t, b.Running())
}

func TestBenchmark_Reset_ReturnsToConstructedState(t *testing.T) {
	b := New("resettable", func(*Benchmark) error { return nil }, WithMinTime(time.Nanosecond))
	b.registry = fakeRegistry(time.Microsecond)
	b.sched = newScheduler(b.registry.Now)

	require.NoError(t, b.Run(context.Background()))
	assert.NotEmpty(t, b.Stats().Sample)

	b.Reset()
	assert.Equal(t, int64(0), b.Cycles())
	assert.Equal(t, 0.0, b.Hz())
	assert.Empty(t, b.Stats().Sample)
	assert.False(t, b.Running())
	assert.False(t, b.Aborted())
	assert.Nil(t, b.Err())
}

func TestBenchmark_Clone_SharesConfigHasOwnState(t *testing.T) {
	b := New("source", func(*Benchmark) error { return nil }, WithMinTime(time.Nanosecond))
	clone := b.Clone()

	assert.NotEqual(t, b.ID(), clone.ID())
	assert.Equal(t, b.Name(), clone.Name())
	assert.Same(t, b, clone.source)

	clone.cfg.initCount = 123
	assert.NotEqual(t, b.cfg.initCount, clone.cfg.initCount)
}

func TestBenchmark_Compare_UsesSampleDistributions(t *testing.T) {
	a := New("a", nil)
	b := New("b", nil)
	for _, v := range []float64{0.01, 0.011, 0.012, 0.010, 0.011} {
		a.stats.pushSample(v)
	}
	for _, v := range []float64{0.02, 0.021, 0.019, 0.020, 0.022} {
		b.stats.pushSample(v)
	}

	assert.Equal(t, 1, a.Compare(b))
	assert.Equal(t, -1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
}

func TestBenchmark_MinTime_FallsBackToTimerResolution(t *testing.T) {
	b := New("derived", func(*Benchmark) error { return nil })
	b.registry = fakeRegistry(time.Microsecond)

	assert.Equal(t, b.registry.Resolution()*100, b.minTime())
}

func TestBenchmark_RecordTimes_UpdatesHzAndPeriod(t *testing.T) {
	b := New("timed", func(*Benchmark) error { return nil })
	b.count = 100
	b.registry = fakeRegistry(time.Microsecond)

	b.recordTimes(100 * time.Millisecond)
	assert.Equal(t, time.Millisecond, b.times.Period)
	assert.InDelta(t, 1000.0, b.hz, 1e-6)
}
