package handlers

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// userLimiter pairs a token bucket with the time it was last consulted so
// idle entries can be evicted.
type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SummaryLimiter throttles summary generation per user. Each user gets an
// independent token bucket, created lazily on first use and evicted after
// sitting idle long enough to be full again.
type SummaryLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*userLimiter
	interval time.Duration
	burst    int
	idleTTL  time.Duration
	lastGC   time.Time
	now      func() time.Time
}

// NewSummaryLimiter creates a limiter allowing one request per interval with
// the given burst size.
func NewSummaryLimiter(interval time.Duration, burst int) *SummaryLimiter {
	now := time.Now()
	return &SummaryLimiter{
		limiters: make(map[int64]*userLimiter),
		interval: interval,
		burst:    burst,
		// An entry idle this long has refilled its full burst, so dropping
		// it is indistinguishable from keeping it.
		idleTTL: interval * time.Duration(burst+1),
		lastGC:  now,
		now:     time.Now,
	}
}

// Allow reports whether userID may make a request now.
func (l *SummaryLimiter) Allow(userID int64) bool {
	now := l.now()

	l.mu.Lock()
	l.evictIdle(now)
	entry, ok := l.limiters[userID]
	if !ok {
		entry = &userLimiter{limiter: rate.NewLimiter(rate.Every(l.interval), l.burst)}
		l.limiters[userID] = entry
	}
	entry.lastSeen = now
	l.mu.Unlock()

	return entry.limiter.Allow()
}

// evictIdle drops entries whose buckets have fully refilled. Runs at most
// once per TTL window; callers must hold the mutex.
func (l *SummaryLimiter) evictIdle(now time.Time) {
	if now.Sub(l.lastGC) < l.idleTTL {
		return
	}
	l.lastGC = now
	for userID, entry := range l.limiters {
		if now.Sub(entry.lastSeen) >= l.idleTTL {
			delete(l.limiters, userID)
		}
	}
}
