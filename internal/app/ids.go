package app

import (
	"sync"
	"time"
)

// ClockIDs derives entry IDs from the creation instant in milliseconds. A
// second ID in the same millisecond (or after the clock steps back) takes the
// previous ID plus one. IDs reported through Observe raise that floor, so a
// fresh process never reissues an ID already stored.
type ClockIDs struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// NewClockIDs returns an ID source backed by now, or time.Now when nil.
func NewClockIDs(now func() time.Time) *ClockIDs {
	if now == nil {
		now = time.Now
	}
	return &ClockIDs{now: now}
}

// NextID returns a fresh, strictly increasing ID.
func (c *ClockIDs) NextID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.now().UnixMilli()
	if id <= c.last {
		id = c.last + 1
	}
	c.last = id
	return id
}

// Observe records an ID already in use.
func (c *ClockIDs) Observe(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id > c.last {
		c.last = id
	}
}
