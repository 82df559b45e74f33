package gobench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycleState_String(t *testing.T) {
	assert.Equal(t, "Idle", cycleIdle.String())
	assert.Equal(t, "Clocking", cycleClocking.String())
	assert.Equal(t, "Evaluating", cycleEvaluating.String())
	assert.Equal(t, "Scheduling", cycleScheduling.String())
	assert.Equal(t, "Done", cycleDone.String())
	assert.Equal(t, "Unknown", cycleState(99).String())
}

func TestFallbackCount_Table(t *testing.T) {
	n, ok := fallbackCount(1)
	assert.True(t, ok)
	assert.Equal(t, int64(4_000_000/4096), n)

	n, ok = fallbackCount(4)
	assert.True(t, ok)
	assert.Equal(t, int64(4_000_000/8), n)

	_, ok = fallbackCount(5)
	assert.False(t, ok)
}

func TestEvaluateCycle_GrowsCountWhenBelowMinTime(t *testing.T) {
	b := New("growing", func(*Benchmark) error { return nil }, WithMinTime(time.Second))
	b.registry = fakeRegistry(time.Microsecond)
	b.count = 10

	done, err := b.evaluateCycle(10 * time.Millisecond) // period = 1ms
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, cycleScheduling, b.cycle.state)
	assert.Greater(t, b.count, int64(10))
}

func TestEvaluateCycle_DoneOnceMinTimeReached(t *testing.T) {
	b := New("done", func(*Benchmark) error { return nil }, WithMinTime(5*time.Millisecond))
	b.registry = fakeRegistry(time.Microsecond)
	b.count = 10

	done, err := b.evaluateCycle(10 * time.Millisecond)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, cycleDone, b.cycle.state)
}

func TestEvaluateCycle_ZeroElapsedUsesFallbackTable(t *testing.T) {
	b := New("zero-elapsed", func(*Benchmark) error { return nil }, WithMinTime(time.Second))
	b.registry = fakeRegistry(time.Microsecond)
	b.count = 1
	b.cycle.cycleIndex = 1

	done, err := b.evaluateCycle(0)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, int64(4_000_000/4096), b.count)
}

func TestEvaluateCycle_ZeroElapsedBeyondTableIsUnclockable(t *testing.T) {
	b := New("unclockable", func(*Benchmark) error { return nil }, WithMinTime(time.Second))
	b.registry = fakeRegistry(time.Microsecond)
	b.count = 1
	b.cycle.cycleIndex = 5

	_, err := b.evaluateCycle(0)
	var unclockable *UnclockableRateError
	assert.ErrorAs(t, err, &unclockable)
}

func TestCompleteCycle_PushesSampleAndMirrorsToSource(t *testing.T) {
	source := New("source", func(*Benchmark) error { return nil })
	source.registry = fakeRegistry(time.Microsecond)
	clone := source.Clone()
	clone.registry = source.registry
	clone.count = 1
	clone.times.Period = 5 * time.Millisecond

	var cloneComplete bool
	clone.On("complete", func(*Event) bool { cloneComplete = true; return true })

	clone.completeCycle()

	assert.True(t, cloneComplete)
	assert.Equal(t, []float64{float64(5 * time.Millisecond)}, clone.stats.Sample)
	assert.Equal(t, []float64{float64(5 * time.Millisecond)}, source.stats.Sample)
	assert.False(t, clone.Running())
}
