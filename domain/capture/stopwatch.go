package capture

import (
	"sync"
	"time"

	"github.com/soocke/pixel-recorder-go/domain/project"
)

// stopwatch assigns frame ticks. The first reading is always zero. In fixed
// mode the n-th reading is n*interval regardless of wall time.
type stopwatch struct {
	mu       sync.Mutex
	now      func() time.Time
	fixed    bool
	interval uint64
	started  bool
	start    time.Time
	pausedAt time.Time
	paused   time.Duration
	count    uint64
}

func newStopwatch(fixed bool, interval time.Duration, now func() time.Time) *stopwatch {
	if now == nil {
		now = time.Now
	}
	return &stopwatch{now: now, fixed: fixed, interval: project.TicksFromDuration(interval)}
}

func (s *stopwatch) next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fixed {
		t := s.count * s.interval
		s.count++
		return t
	}
	if !s.started {
		s.started = true
		s.start = s.now()
		return 0
	}
	return project.TicksFromDuration(s.now().Sub(s.start) - s.paused)
}

func (s *stopwatch) pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pausedAt.IsZero() {
		s.pausedAt = s.now()
	}
}

func (s *stopwatch) resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pausedAt.IsZero() {
		if s.started {
			s.paused += s.now().Sub(s.pausedAt)
		}
		s.pausedAt = time.Time{}
	}
}
