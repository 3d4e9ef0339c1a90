package document

import (
	"sync"
	"time"
)

// Clock hands out document timestamps in milliseconds since the epoch.
type Clock interface {
	Now() int64
}

// SystemClock reads the wall clock and never returns the same value twice,
// so consecutive mutations always observe increasing timestamps.
type SystemClock struct {
	mu   sync.Mutex
	last int64
}

func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

func (c *SystemClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now().UnixMilli()
	if now <= c.last {
		now = c.last + 1
	}
	c.last = now
	return now
}

// Advance returns a timestamp strictly after prev.
func Advance(c Clock, prev int64) int64 {
	now := c.Now()
	if now <= prev {
		return prev + 1
	}
	return now
}
