package service

import (
	"context"
	"time"
)

// RateLimitPolicy is a token bucket: Limit requests per Window with bursts up to Limit.
type RateLimitPolicy struct {
	Limit  int
	Window time.Duration
}

// RateLimitDecision is the outcome of one Allow call.
type RateLimitDecision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter admits or rejects requests per key.
type RateLimiter interface {
	Allow(ctx context.Context, key string, policy RateLimitPolicy) (RateLimitDecision, error)
}
