package capture

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// instantAfter advances clk by the requested sleep and fires at once.
func instantAfter(clk *fakeClock, waits *[]time.Duration) func(time.Duration) <-chan time.Time {
	return func(d time.Duration) <-chan time.Time {
		*waits = append(*waits, d)
		clk.Advance(d)
		ch := make(chan time.Time, 1)
		ch <- clk.Now()
		return ch
	}
}

func TestLoop_AbsoluteDeadlinesSkipMissedSlots(t *testing.T) {
	clk := newFakeClock()
	start := clk.Now()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	costs := []time.Duration{2 * time.Millisecond, 25 * time.Millisecond, 2 * time.Millisecond, 2 * time.Millisecond}
	var at []time.Duration
	l := NewLoop(10*time.Millisecond, func() {
		i := len(at)
		at = append(at, clk.Now().Sub(start))
		clk.Advance(costs[i])
		if len(at) == len(costs) {
			cancel()
		}
	}, discardLogger())
	var waits []time.Duration
	l.now = clk.Now
	l.after = instantAfter(clk, &waits)

	require.NoError(t, l.Run(ctx))

	assert.Equal(t, []time.Duration{0, 10 * time.Millisecond, 40 * time.Millisecond, 50 * time.Millisecond}, at)
	require.GreaterOrEqual(t, len(waits), 3)
	assert.Equal(t, []time.Duration{8 * time.Millisecond, 5 * time.Millisecond, 8 * time.Millisecond}, waits[:3])
	assert.Equal(t, uint64(2), l.Missed())
	assert.Equal(t, uint64(4), l.Ticks())
}

func TestLoop_PausedSkipsTicks(t *testing.T) {
	clk := newFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLoop(10*time.Millisecond, func() { t.Fatal("tick while paused") }, discardLogger())
	var waits []time.Duration
	after := instantAfter(clk, &waits)
	l.now = clk.Now
	l.after = func(d time.Duration) <-chan time.Time {
		if len(waits) == 3 {
			cancel()
		}
		return after(d)
	}
	l.Pause()

	require.NoError(t, l.Run(ctx))
	assert.Equal(t, uint64(0), l.Ticks())
}

func TestLoop_TriggeredMode(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ticks := make(chan struct{}, 8)
	l := NewLoop(0, func() { ticks <- struct{}{} }, discardLogger())

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	for range 2 {
		l.Trigger()
		select {
		case <-ticks:
		case <-time.After(2 * time.Second):
			t.Fatal("trigger did not run a capture")
		}
	}
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
	assert.Equal(t, uint64(2), l.Ticks())
}
