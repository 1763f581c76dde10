// Package ratelimit throttles callers with per-key token buckets.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config defines the refill rate and burst allowance per key.
type Config struct {
	// EventsPerSecond is the sustained request rate allowed per key.
	EventsPerSecond float64
	// Burst is the number of requests a key may spend at once.
	Burst int
}

// DefaultConfig allows a modest steady rate with room for small spikes.
var DefaultConfig = Config{EventsPerSecond: 10, Burst: 20}

// Limiter tracks a token bucket per key.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	config  Config
	clock   func() time.Time
}

// New returns a limiter using the given configuration. Zero or negative
// values fall back to DefaultConfig.
func New(config Config) *Limiter {
	if config.EventsPerSecond <= 0 {
		config.EventsPerSecond = DefaultConfig.EventsPerSecond
	}
	if config.Burst <= 0 {
		config.Burst = DefaultConfig.Burst
	}
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		config:  config,
		clock:   time.Now,
	}
}

// Allow reports whether the key may proceed, consuming one token when it can.
// An empty key shares a single anonymous bucket.
func (l *Limiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	bucket, ok := l.buckets[key]
	if !ok {
		bucket = rate.NewLimiter(rate.Limit(l.config.EventsPerSecond), l.config.Burst)
		l.buckets[key] = bucket
	}
	l.mu.Unlock()
	return bucket.AllowN(l.clock(), 1)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
