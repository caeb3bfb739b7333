package httpapi

import (
	"sync"
	"time"
)

// loginLimiter throttles credential attempts per key (client IP and
// login name) over a sliding window. A successful login clears the
// key so one bad password followed by the right one does not count
// against the caller for five minutes.
type loginLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	entries map[string][]time.Time
}

func newLoginLimiter() *loginLimiter {
	return &loginLimiter{
		window:  5 * time.Minute,
		max:     10,
		entries: make(map[string][]time.Time),
	}
}

func (l *loginLimiter) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	ts := l.entries[key]

	kept := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l.entries, key)
		ts = nil
	} else {
		ts = kept
		l.entries[key] = ts
	}
	if len(ts) >= l.max {
		return false
	}

	l.entries[key] = append(ts, now)
	return true
}

func (l *loginLimiter) Reset(keys ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, k := range keys {
		delete(l.entries, k)
	}
}
