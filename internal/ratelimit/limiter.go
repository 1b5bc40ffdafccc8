// Package ratelimit provides per-key token bucket rate limiting for the
// tool and HTTP hosts.
package ratelimit

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// ErrLimited is returned by CheckLimit when a bucket is empty.
var ErrLimited = errors.New("rate limit exceeded")

// Limiter implements a per-key token bucket rate limiter.
// Each key gets its own bucket with the configured rate and burst.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64          // tokens per second
	burst   int              // max burst size (also initial token count)
	nowFunc func() time.Time // injectable clock for testing
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// NewLimiter creates a rate limiter with the given rate (tokens/sec) and burst size.
// The burst size also serves as the initial number of tokens available.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		nowFunc: time.Now,
	}
}

// PerMinute is shorthand for NewLimiter(n/60, burst).
func PerMinute(n float64, burst int) *Limiter {
	return NewLimiter(n/60.0, burst)
}

// refill returns key's bucket topped up to now. Callers hold mu.
func (l *Limiter) refill(key string) *bucket {
	now := l.nowFunc()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.burst), lastCheck: now}
		l.buckets[key] = b
		return b
	}
	if elapsed := now.Sub(b.lastCheck).Seconds(); elapsed > 0 {
		b.tokens = math.Min(b.tokens+l.rate*elapsed, float64(l.burst))
		b.lastCheck = now
	}
	return b
}

// Allow reports whether a request for key may proceed, consuming a token
// if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.refill(key)
	if b.tokens < 1.0 {
		return false
	}
	b.tokens--
	return true
}

// RetryAfter returns how long until key has a token again. Zero means a
// request would be allowed now. A zero-rate limiter that is empty never
// refills and reports a negative duration.
func (l *Limiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.refill(key)
	if b.tokens >= 1.0 {
		return 0
	}
	if l.rate <= 0 {
		return -1
	}
	return time.Duration((1.0 - b.tokens) / l.rate * float64(time.Second))
}

// ToolLimiters maps tool or route names to their rate limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters creates the default per-tool limits for the MCP host.
// Reads are cheap; edits reset agents and ticks burn CPU, so they get less.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		"pheromones_info":        PerMinute(60, 10),
		"pheromones_cells":       PerMinute(120, 20),
		"pheromones_stats":       PerMinute(120, 20),
		"pheromones_toggle_wall": PerMinute(120, 20),
		"pheromones_set_start":   PerMinute(30, 5),
		"pheromones_set_end":     PerMinute(30, 5),
		"pheromones_tick":        PerMinute(30, 5),
	}
}

// NewRouteLimiters creates the default limits for the HTTP host's
// mutating routes. Keys are "METHOD /path".
func NewRouteLimiters() ToolLimiters {
	return ToolLimiters{
		"POST /api/wall":  NewLimiter(20, 40),
		"POST /api/start": NewLimiter(2, 5),
		"POST /api/end":   NewLimiter(2, 5),
		"POST /api/tick":  NewLimiter(5, 10),
	}
}

// CheckLimit checks the rate limit for a given name.
// Returns nil if allowed, or an error wrapping ErrLimited if not.
// Names without a configured limiter are always allowed.
func CheckLimit(limiters ToolLimiters, name string) error {
	limiter, ok := limiters[name]
	if !ok {
		return nil
	}
	if !limiter.Allow(name) {
		return fmt.Errorf("%w for %s, please try again shortly", ErrLimited, name)
	}
	return nil
}
