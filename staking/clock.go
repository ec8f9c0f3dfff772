// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"sync/atomic"
	"time"
)

// Clock is the engine's time oracle, in unix seconds. Implementations must
// be monotonically non-decreasing; nothing fires when a lock runs out,
// state simply becomes eligible on the next operation that reads it.
type Clock interface {
	Now() uint64
}

// SystemClock reads wall time, clamped so it never runs backwards even if
// the host clock steps.
type SystemClock struct {
	last atomic.Uint64
}

// Now returns the current unix time.
func (c *SystemClock) Now() uint64 {
	now := uint64(time.Now().Unix())
	for {
		last := c.last.Load()
		if now <= last {
			return last
		}
		if c.last.CompareAndSwap(last, now) {
			return now
		}
	}
}

// ManualClock is a settable clock for tests and solo runs.
type ManualClock struct {
	now atomic.Uint64
}

// NewManualClock creates a clock frozen at now.
func NewManualClock(now uint64) *ManualClock {
	c := &ManualClock{}
	c.now.Store(now)
	return c
}

// Now returns the configured time.
func (c *ManualClock) Now() uint64 {
	return c.now.Load()
}

// Set moves the clock to now.
func (c *ManualClock) Set(now uint64) {
	c.now.Store(now)
}

// Advance moves the clock forward by d seconds and returns the new time.
func (c *ManualClock) Advance(d uint64) uint64 {
	return c.now.Add(d)
}
