// Package ratelimit implements service.RateLimiter with an in-process token
// bucket per key or a shared bucket in Redis.
package ratelimit

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"gatekeeper/internal/domain/service"
)

const sweepInterval = time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter keeps one token bucket per (policy, key) in memory. Limits are
// per process; use the Redis limiter when running several replicas.
type LocalLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

// NewLocalLimiter creates an empty in-process limiter.
func NewLocalLimiter() *LocalLimiter {
	return newLocalLimiterWithClock(time.Now)
}

func newLocalLimiterWithClock(now func() time.Time) *LocalLimiter {
	return &LocalLimiter{
		buckets:   make(map[string]*bucket),
		lastSweep: now(),
		now:       now,
	}
}

// Allow takes one token from key's bucket.
func (l *LocalLimiter) Allow(_ context.Context, key string, policy service.RateLimitPolicy) (service.RateLimitDecision, error) {
	if policy.Limit <= 0 || policy.Window <= 0 {
		return service.RateLimitDecision{Allowed: true}, nil
	}

	now := l.now()
	lim := l.limiterFor(bucketKey(key, policy), policy, now)

	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return service.RateLimitDecision{Allowed: false, RetryAfter: policy.Window}, nil
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)

		return service.RateLimitDecision{Allowed: false, RetryAfter: delay}, nil
	}

	return service.RateLimitDecision{
		Allowed:   true,
		Remaining: int(lim.TokensAt(now)),
	}, nil
}

func (l *LocalLimiter) limiterFor(key string, policy service.RateLimitPolicy, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= sweepInterval {
		l.sweepLocked(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		every := policy.Window / time.Duration(policy.Limit)
		b = &bucket{limiter: rate.NewLimiter(rate.Every(every), policy.Limit)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	return b.limiter
}

// sweepLocked drops buckets that have refilled completely; they are
// indistinguishable from fresh ones.
func (l *LocalLimiter) sweepLocked(now time.Time) {
	for k, b := range l.buckets {
		if b.limiter.TokensAt(now) >= float64(b.limiter.Burst()) {
			delete(l.buckets, k)
		}
	}
	l.lastSweep = now
}

func bucketKey(key string, policy service.RateLimitPolicy) string {
	return strconv.Itoa(policy.Limit) + "/" + policy.Window.String() + ":" + key
}
