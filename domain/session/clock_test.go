package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestActiveClock(t *testing.T) {
	var c activeClock
	t0 := time.Unix(0, 0)

	c.update(true, t0)
	c.update(true, t0.Add(3*time.Second))
	s, total := c.values()
	assert.Equal(t, 3*time.Second, s)
	assert.Equal(t, 3*time.Second, total)

	c.update(false, t0.Add(4*time.Second))
	c.update(false, t0.Add(10*time.Second))
	s, total = c.values()
	assert.Equal(t, 4*time.Second, s)
	assert.Equal(t, 4*time.Second, total)

	c.update(true, t0.Add(20*time.Second))
	c.update(true, t0.Add(21*time.Second))
	s, total = c.values()
	assert.Equal(t, time.Second, s)
	assert.Equal(t, 5*time.Second, total)
}
