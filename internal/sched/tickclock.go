// internal/sched/tickclock.go

package sched

import (
	"sync"
	"sync/atomic"
	"time"
)

// TickClock is global_ticks made concrete: a monotonically increasing
// counter driven by a real-time ticker, plus a notification channel an
// idle per-CPU loop selects on to wake up. The timer routine itself is
// paced by WaitTick.
type TickClock struct {
	Ch    chan struct{}
	count atomic.Int64
	stop  chan struct{}

	mu   sync.Mutex
	wake chan struct{}
}

// NewTickClock creates a clock but does not start it.
func NewTickClock(buffer int) *TickClock {
	return &TickClock{
		Ch:   make(chan struct{}, buffer),
		stop: make(chan struct{}),
		wake: make(chan struct{}),
	}
}

// Start begins emitting ticks at the given interval.
func (c *TickClock) Start(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.count.Add(1)
				select {
				case c.Ch <- struct{}{}:
				default:
					// a slow consumer drops a notification; the counter
					// itself never loses a tick.
				}

				c.mu.Lock()
				old := c.wake
				c.wake = make(chan struct{})
				c.mu.Unlock()
				close(old)
			case <-c.stop:
				close(c.Ch)
				return
			}
		}
	}()
}

// WaitTick blocks until the next real tick fires (or the clock stops),
// so the caller's own accounting advances at the same rate as Count.
// Every concurrent waiter is released by the same tick — unlike Ch, a
// buffered channel a single reader would have to compete for.
func (c *TickClock) WaitTick() int64 {
	c.mu.Lock()
	ch := c.wake
	c.mu.Unlock()

	select {
	case <-ch:
	case <-c.stop:
	}
	return c.count.Load()
}

// Stop signals the clock to stop emitting ticks.
func (c *TickClock) Stop() {
	close(c.stop)
}

// Count returns the current tick count atomically.
func (c *TickClock) Count() int64 {
	return c.count.Load()
}
