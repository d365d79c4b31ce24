// Package ratelimit implements the sliding-window politeness throttle for
// outbound upstream calls.
//
// The limiter holds only in-process state: it is not shared across processes
// and resets on restart. That is a documented limitation of the design, not a
// defect.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultKey is the single global key used when callers do not partition
// admissions.
const DefaultKey = "global"

// waitMargin is added to the computed delay so a retry lands just after the
// oldest timestamp has left the window.
const waitMargin = 10 * time.Millisecond

// Limiter admits at most maxRequests calls per key within any sliding window
// of the configured duration. Construct one per outbound dependency and inject
// it; there is deliberately no package-level instance.
type Limiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	buckets     map[string][]time.Time
	clock       func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(l *Limiter) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// New creates a limiter admitting maxRequests per window for each key.
func New(maxRequests int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		maxRequests: maxRequests,
		window:      window,
		buckets:     make(map[string][]time.Time),
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow purges expired timestamps for key, then either records the new
// admission and returns true, or returns false when the window is full.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	timestamps := l.purge(key, now)
	if len(timestamps) >= l.maxRequests {
		l.buckets[key] = timestamps
		return false
	}
	l.buckets[key] = append(timestamps, now)
	return true
}

// WaitForSlot blocks until an admission is granted for key or ctx is done.
// This is the only operation that suspends the caller.
func (l *Limiter) WaitForSlot(ctx context.Context, key string) error {
	for {
		if l.Allow(key) {
			return nil
		}

		delay := l.delayUntilSlot(key)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Remaining reports how many admissions are left in the current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamps := l.purge(key, l.clock())
	l.buckets[key] = timestamps
	return l.maxRequests - len(timestamps)
}

// ResetTime reports when the oldest in-window admission expires. The zero
// time means the window is empty.
func (l *Limiter) ResetTime(key string) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamps := l.purge(key, l.clock())
	l.buckets[key] = timestamps
	if len(timestamps) == 0 {
		return time.Time{}
	}
	return timestamps[0].Add(l.window)
}

// delayUntilSlot computes how long until the oldest in-window admission
// expires, plus the safety margin.
func (l *Limiter) delayUntilSlot(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	timestamps := l.purge(key, now)
	l.buckets[key] = timestamps
	if len(timestamps) == 0 {
		return waitMargin
	}
	delay := timestamps[0].Add(l.window).Sub(now)
	if delay < 0 {
		delay = 0
	}
	return delay + waitMargin
}

// purge drops timestamps older than now-window. Must be called holding l.mu.
func (l *Limiter) purge(key string, now time.Time) []time.Time {
	timestamps := l.buckets[key]
	cutoff := now.Add(-l.window)
	i := 0
	for ; i < len(timestamps); i++ {
		if timestamps[i].After(cutoff) {
			break
		}
	}
	return timestamps[i:]
}
