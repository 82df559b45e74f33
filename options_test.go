package gobench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveOptions_Defaults(t *testing.T) {
	cfg := resolveOptions(nil)
	assert.Equal(t, DefaultDelay, cfg.delay)
	assert.Equal(t, int64(DefaultInitCount), cfg.initCount)
	assert.Equal(t, DefaultMaxTime, cfg.maxTime)
	assert.Equal(t, DefaultMinSamples, cfg.minSamples)
	assert.False(t, cfg.async)
	assert.False(t, cfg.deferred)
}

func TestResolveOptions_AppliesEachOption(t *testing.T) {
	fn := TestFunc(func(*Benchmark) error { return nil })
	setup := func() error { return nil }
	teardown := func() error { return nil }

	cfg := resolveOptions([]Option{
		WithFn(fn),
		WithSetup(setup),
		WithTeardown(teardown),
		WithDelay(10 * time.Millisecond),
		WithInitCount(42),
		WithMinTime(time.Second),
		WithMaxTime(2 * time.Second),
		WithMinSamples(9),
		WithAsync(true),
		WithDefer(true),
	})

	assert.NotNil(t, cfg.fn)
	assert.NotNil(t, cfg.setup)
	assert.NotNil(t, cfg.teardown)
	assert.Equal(t, 10*time.Millisecond, cfg.delay)
	assert.Equal(t, int64(42), cfg.initCount)
	assert.Equal(t, time.Second, cfg.minTime)
	assert.Equal(t, 2*time.Second, cfg.maxTime)
	assert.Equal(t, 9, cfg.minSamples)
	assert.True(t, cfg.async)
	assert.True(t, cfg.deferred)
}

func TestResolveOptions_SkipsNilOption(t *testing.T) {
	cfg := resolveOptions([]Option{nil, WithInitCount(3)})
	assert.Equal(t, int64(3), cfg.initCount)
}

func TestConfigClone_IsIndependentCopy(t *testing.T) {
	cfg := resolveOptions([]Option{WithInitCount(7)})
	clone := cfg.clone()
	clone.initCount = 99

	assert.Equal(t, int64(7), cfg.initCount)
	assert.Equal(t, int64(99), clone.initCount)
}

func TestWithOnX_RegistersListenerField(t *testing.T) {
	called := false
	l := Listener(func(*Event) bool { called = true; return true })

	cfg := resolveOptions([]Option{WithOnCycle(l)})
	cfg.onCycle(&Event{})
	assert.True(t, called)
}
