// Package ratelimit bounds chat turns per session with token buckets. Idle
// buckets are evicted so abandoned sessions do not accumulate entries.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const idleEviction = time.Hour

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter manages per-key token buckets
type Limiter struct {
	entries map[string]*entry
	mu      sync.Mutex
	rate    rate.Limit
	burst   int
}

// NewLimiter creates a limiter allowing requestsPerMinute sustained with the
// given burst, per key.
func NewLimiter(requestsPerMinute int, burst int) *Limiter {
	l := &Limiter{
		entries: make(map[string]*entry),
		rate:    rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:   burst,
	}
	go l.evictLoop()
	return l
}

// Allow checks whether a request under the key may proceed
func (l *Limiter) Allow(key string) bool {
	return l.get(key).limiter.Allow()
}

// Tokens returns the remaining burst capacity for the key
func (l *Limiter) Tokens(key string) float64 {
	return l.get(key).limiter.Tokens()
}

func (l *Limiter) get(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = time.Now()
	return e
}

func (l *Limiter) evictLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-idleEviction)
		l.mu.Lock()
		for key, e := range l.entries {
			if e.lastSeen.Before(cutoff) {
				delete(l.entries, key)
			}
		}
		l.mu.Unlock()
	}
}
