package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	tokens float64
	last   time.Time
}

// Limiter is a keyed token bucket. Every key starts full.
type Limiter struct {
	mu       sync.Mutex
	m        map[string]*bucket
	capacity float64
	refill   float64 // tokens per second
	idle     time.Duration
	swept    time.Time
	now      func() time.Time
}

// Option configures Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New creates a limiter allowing burst requests per key, refilled at
// perMinute tokens a minute.
func New(burst, perMinute float64, opts ...Option) *Limiter {
	l := &Limiter{
		m:        make(map[string]*bucket),
		capacity: burst,
		refill:   perMinute / 60,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	// A bucket untouched for idle is full again and equal to a fresh one.
	if l.refill > 0 {
		l.idle = time.Duration(l.capacity / l.refill * float64(time.Second))
	}
	l.swept = l.now()
	return l
}

// Allow reports whether one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)
	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: l.capacity, last: now}
		l.m[key] = b
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = min(l.capacity, b.tokens+elapsed*l.refill)
		b.last = now
	}
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops idle buckets at most once per idle period. Without refill
// buckets never recover, so nothing is dropped.
func (l *Limiter) sweep(now time.Time) {
	if l.idle <= 0 || now.Sub(l.swept) < l.idle {
		return
	}
	for key, b := range l.m {
		if now.Sub(b.last) >= l.idle {
			delete(l.m, key)
		}
	}
	l.swept = now
}

// Len is the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

// RetryAfter is the wait until key holds a whole token again.
func (l *Limiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok || b.tokens >= 1 || l.refill <= 0 {
		return 0
	}
	return time.Duration((1 - b.tokens) / l.refill * float64(time.Second))
}
