// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"sync"
	"time"
)

// fakeEpoch is where a FakeClock starts when no start time is given.
var fakeEpoch = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

// FakeClock satisfies build.Clock. Time stands still until Advance is
// called, which lets tests assert exact elapsed durations.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock returns a FakeClock at start, or at a fixed epoch when start
// is the zero time.
func NewFakeClock(start time.Time) *FakeClock {
	if start.IsZero() {
		start = fakeEpoch
	}
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Since(t time.Time) time.Duration { return c.Now().Sub(t) }

// Advance moves the clock forward by d. It is safe to call from the runner
// hook of a concurrently running task.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
