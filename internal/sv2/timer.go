package sv2

import (
	"sync"
	"time"
)

// FeeTimer rate-limits fee-driven template pushes to at most once per
// interval, while still letting tip changes wake a worker immediately (the
// worker checks the tip independently of this timer).
type FeeTimer struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewFeeTimer returns a timer armed to trigger immediately on its first
// check.
func NewFeeTimer(interval time.Duration) *FeeTimer {
	return &FeeTimer{interval: interval}
}

// Trigger reports whether the interval has elapsed since the last trigger,
// and resets the timer if so.
func (f *FeeTimer) Trigger() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	if now.Sub(f.last) < f.interval {
		return false
	}
	f.last = now
	return true
}

// Reset restarts the interval from now, used after a template has just been
// sent so the next fee check waits a full interval.
func (f *FeeTimer) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = time.Now()
}
