package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatekeeper/internal/domain/service"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

var fivePerMinute = service.RateLimitPolicy{Limit: 5, Window: time.Minute}

func TestLocalLimiter_AllowsBurstThenThrottles(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := newLocalLimiterWithClock(clock.Now)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d, err := l.Allow(ctx, "10.0.0.1", fivePerMinute)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i+1)
		assert.Equal(t, 4-i, d.Remaining)
	}

	d, err := l.Allow(ctx, "10.0.0.1", fivePerMinute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.InDelta(t, float64(12*time.Second), float64(d.RetryAfter), float64(time.Millisecond))

	// Another client has its own bucket.
	d, err = l.Allow(ctx, "10.0.0.2", fivePerMinute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	clock.now = clock.now.Add(13 * time.Second)
	d, err = l.Allow(ctx, "10.0.0.1", fivePerMinute)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "one token refilled")
}

func TestLocalLimiter_PoliciesAreSeparate(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := newLocalLimiterWithClock(clock.Now)
	ctx := context.Background()

	one := service.RateLimitPolicy{Limit: 1, Window: time.Minute}
	d, _ := l.Allow(ctx, "k", one)
	assert.True(t, d.Allowed)
	d, _ = l.Allow(ctx, "k", one)
	assert.False(t, d.Allowed)

	d, _ = l.Allow(ctx, "k", fivePerMinute)
	assert.True(t, d.Allowed)
}

func TestLocalLimiter_DisabledPolicy(t *testing.T) {
	l := NewLocalLimiter()

	for i := 0; i < 100; i++ {
		d, err := l.Allow(context.Background(), "k", service.RateLimitPolicy{})
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
}

func TestLocalLimiter_SweepDropsRefilledBuckets(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := newLocalLimiterWithClock(clock.Now)
	ctx := context.Background()

	_, _ = l.Allow(ctx, "a", fivePerMinute)
	_, _ = l.Allow(ctx, "b", fivePerMinute)
	assert.Len(t, l.buckets, 2)

	clock.now = clock.now.Add(2 * time.Minute)
	_, _ = l.Allow(ctx, "c", fivePerMinute)
	assert.Len(t, l.buckets, 1)
}

func TestRedisLimiter_FailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLimiter(client, slog.New(slog.NewTextHandler(io.Discard, nil)))

	d, err := l.Allow(context.Background(), "10.0.0.1", fivePerMinute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 5, d.Remaining)
}

func TestRedisKey_HidesClientKey(t *testing.T) {
	key := redisKey("10.0.0.1", fivePerMinute)

	assert.Contains(t, key, redisKeyPrefix)
	assert.NotContains(t, key, "10.0.0.1")
	assert.Equal(t, key, redisKey("10.0.0.1", fivePerMinute))
	assert.NotEqual(t, key, redisKey("10.0.0.2", fivePerMinute))
}
