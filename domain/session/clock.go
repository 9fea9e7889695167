package session

import (
	"sync"
	"time"
)

// activeClock tracks the current recording stretch and the accumulated
// recording time, excluding pauses. The zero value is ready to use.
type activeClock struct {
	mu          sync.Mutex
	active      bool
	start       time.Time
	lastStretch time.Duration
	accumulated time.Duration
}

// update feeds the current recording state at now.
func (c *activeClock) update(recording bool, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if recording {
		if !c.active {
			c.active = true
			c.start = now
			c.lastStretch = 0
		}
		c.lastStretch = now.Sub(c.start)
	} else if c.active {
		c.lastStretch = now.Sub(c.start)
		c.accumulated += c.lastStretch
		c.active = false
	}
}

// values returns the current stretch and the total, which includes the
// ongoing stretch.
func (c *activeClock) values() (stretch, total time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stretch = c.lastStretch
	total = c.accumulated
	if c.active {
		total += stretch
	}
	return
}
