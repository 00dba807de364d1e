// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"slices"
	"sync"
	"time"
)

// FakeClock is a Clock for tests whose time only moves on Advance.
// It is safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	timers  []timer
	pending *sync.Cond
}

// timer is one outstanding After call.
type timer struct {
	deadline time.Time
	fire     chan time.Time
}

// Fake returns a FakeClock reading start.
func Fake(start time.Time) *FakeClock {
	clock := &FakeClock{now: start}
	clock.pending = sync.NewCond(&clock.mu)
	return clock
}

// Now returns the fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After fires once Advance reaches now+d.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	fire := make(chan time.Time, 1)
	if d <= 0 {
		fire <- c.now
		return fire
	}
	c.timers = append(c.timers, timer{deadline: c.now.Add(d), fire: fire})
	c.pending.Broadcast()
	return fire
}

// Advance moves the clock forward by d. Timers that come due fire in
// deadline order, each with the time it was due at.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
	slices.SortStableFunc(c.timers, func(a, b timer) int { return a.deadline.Compare(b.deadline) })
	due := 0
	for due < len(c.timers) && !c.timers[due].deadline.After(c.now) {
		c.timers[due].fire <- c.timers[due].deadline
		due++
	}
	c.timers = slices.Delete(c.timers, 0, due)
	c.pending.Broadcast()
}

// WaitForTimers blocks until n timers are outstanding, so a test can
// Advance only after the goroutine under test has called After.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.timers) < n {
		c.pending.Wait()
	}
}
