package usecase

import (
	"sync"
	"time"

	"github.com/kindred-lab/kindred/pkg/domain/types"
)

// Default admission bounds for the chat surface
const (
	DefaultRateLimit  = 20
	DefaultRateWindow = time.Minute
)

// RateLimiter is a process-local sliding-window admission gate keyed by
// agent. Best effort: it makes no cross-instance claim.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	buckets map[types.AgentID][]time.Time
}

// NewRateLimiter creates a limiter admitting at most limit requests per
// agent within the trailing window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		buckets: make(map[types.AgentID][]time.Time),
	}
}

// SetClock replaces the limiter's clock. Tests only.
func (l *RateLimiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Allow records the request and reports whether it is admitted. Stale
// timestamps are pruned lazily on each call.
func (l *RateLimiter) Allow(id types.AgentID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	bucket := l.buckets[id]
	pruned := bucket[:0]
	for _, ts := range bucket {
		if ts.After(cutoff) {
			pruned = append(pruned, ts)
		}
	}

	if len(pruned) >= l.limit {
		l.buckets[id] = pruned
		return false
	}

	l.buckets[id] = append(pruned, now)
	return true
}
