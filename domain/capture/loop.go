package capture

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Loop drives captures. With a positive Interval it fires at absolute
// deadlines start+n*Interval and skips slots it missed instead of bursting
// to catch up. Trigger fires one extra capture in either mode.
type Loop struct {
	Interval time.Duration
	// Tick runs one capture on the loop goroutine.
	Tick func()
	// OnImprecise is called when the platform refuses a 1 ms timer
	// resolution.
	OnImprecise func(error)

	logger  *slog.Logger
	trigger chan struct{}
	paused  atomic.Bool
	ticks   atomic.Uint64
	missed  atomic.Uint64

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// NewLoop returns a loop calling tick. A zero interval waits for Trigger.
func NewLoop(interval time.Duration, tick func(), logger *slog.Logger) *Loop {
	return &Loop{
		Interval: interval,
		Tick:     tick,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
		now:      time.Now,
		after:    time.After,
	}
}

// Trigger requests one capture. Requests made while one is pending merge.
func (l *Loop) Trigger() {
	select {
	case l.trigger <- struct{}{}:
	default:
	}
}

// Pause suspends interval captures. Triggered captures still run.
func (l *Loop) Pause()  { l.paused.Store(true) }
func (l *Loop) Resume() { l.paused.Store(false) }

// Ticks returns the number of captures run.
func (l *Loop) Ticks() uint64 { return l.ticks.Load() }

// Missed returns the number of interval slots skipped because a capture
// overran.
func (l *Loop) Missed() uint64 { return l.missed.Load() }

// Run blocks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	restore, err := beginTimerResolution()
	if err != nil {
		if l.logger != nil {
			l.logger.Warn("timer resolution unavailable, capture timing may drift", "error", err)
		}
		if l.OnImprecise != nil {
			l.OnImprecise(err)
		}
	} else {
		defer restore()
	}
	if l.Interval <= 0 {
		return l.runTriggered(ctx)
	}
	return l.runInterval(ctx)
}

func (l *Loop) runTriggered(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.trigger:
			l.tick()
		}
	}
}

func (l *Loop) runInterval(ctx context.Context) error {
	start := l.now()
	var n int64
	for {
		if ctx.Err() != nil {
			return nil
		}
		if !l.paused.Load() {
			l.tick()
		}
		n++
		deadline := start.Add(time.Duration(n) * l.Interval)
		now := l.now()
		if behind := now.Sub(deadline); behind > 0 {
			skip := int64(behind/l.Interval) + 1
			l.missed.Add(uint64(skip))
			n += skip
			deadline = start.Add(time.Duration(n) * l.Interval)
		}
		if !l.wait(ctx, deadline.Sub(now)) {
			return nil
		}
	}
}

// wait sleeps for d, running triggered captures meanwhile. It reports false
// when ctx ended.
func (l *Loop) wait(ctx context.Context, d time.Duration) bool {
	timer := l.after(d)
	for {
		select {
		case <-ctx.Done():
			return false
		case <-l.trigger:
			l.tick()
		case <-timer:
			return true
		}
	}
}

func (l *Loop) tick() {
	l.Tick()
	l.ticks.Add(1)
}
