// Package ratelimit implements a fixed-window attempt counter shared by
// the security-sensitive endpoints. Keys combine purpose and client
// identity, e.g. "login:203.0.113.9".
package ratelimit

import (
	"sync"
	"time"
)

// DefaultMaxKeys bounds the tracked-key space; when exceeded, the entry
// with the oldest window is evicted.
const DefaultMaxKeys = 10000

// Result reports the outcome of a Check call.
type Result struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration // zero when Allowed
}

type entry struct {
	count       int
	windowStart time.Time
}

// Limiter is a mutex-guarded fixed-window counter. The zero value is not
// usable; construct with New.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	maxKeys int
	now     func() time.Time
}

// New creates a Limiter tracking at most maxKeys keys. maxKeys <= 0
// falls back to DefaultMaxKeys.
func New(maxKeys int) *Limiter {
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}
	return &Limiter{
		entries: make(map[string]*entry),
		maxKeys: maxKeys,
		now:     time.Now,
	}
}

// Check records an attempt for key and reports whether the caller is
// still under max attempts within the window. Denied calls count too, so
// hammering past the limit keeps the window hot. Expired windows are
// reset lazily on access.
func (l *Limiter) Check(key string, max int, window time.Duration) Result {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || now.Sub(e.windowStart) >= window {
		if !ok && len(l.entries) >= l.maxKeys {
			l.evictOldestLocked()
		}
		e = &entry{windowStart: now}
		l.entries[key] = e
	}
	e.count++

	resetAt := e.windowStart.Add(window)
	if e.count > max {
		return Result{
			Allowed:    false,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: resetAt.Sub(now),
		}
	}
	return Result{
		Allowed:   true,
		Remaining: max - e.count,
		ResetAt:   resetAt,
	}
}

// Reset clears the counter for key, typically after a successful
// authentication so earlier failures stop counting against the caller.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.entries, key)
	l.mu.Unlock()
}

// evictOldestLocked drops the entry whose window started earliest.
// Caller holds l.mu.
func (l *Limiter) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, e := range l.entries {
		if first || e.windowStart.Before(oldest) {
			oldestKey, oldest = k, e.windowStart
			first = false
		}
	}
	if !first {
		delete(l.entries, oldestKey)
	}
}
