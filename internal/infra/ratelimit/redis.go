package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"gatekeeper/internal/domain/service"
)

const redisKeyPrefix = "gatekeeper:ratelimit:"

// tokenBucketScript refills and consumes atomically.
// Returns {allowed, retry_after_ms, remaining}.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])      -- tokens per millisecond
	local burst = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])       -- unix milliseconds
	local ttl = tonumber(ARGV[4])       -- seconds

	local data = redis.call('HMGET', key, 'tokens', 'last_update')
	local tokens = tonumber(data[1]) or burst
	local last_update = tonumber(data[2]) or now

	local elapsed = math.max(0, now - last_update)
	tokens = math.min(burst, tokens + (elapsed * rate))

	local allowed = 0
	local retry_after = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_after = math.ceil((1 - tokens) / rate)
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_update', now)
	redis.call('EXPIRE', key, ttl)

	return {allowed, retry_after, math.floor(tokens)}
`)

// RedisLimiter shares buckets between replicas. Redis failures fail open.
type RedisLimiter struct {
	client redis.Scripter
	logger *slog.Logger
	now    func() time.Time
}

// NewRedisLimiter wraps a Redis client.
func NewRedisLimiter(client redis.Scripter, logger *slog.Logger) *RedisLimiter {
	return &RedisLimiter{client: client, logger: logger, now: time.Now}
}

// Allow takes one token from key's bucket in Redis.
func (l *RedisLimiter) Allow(ctx context.Context, key string, policy service.RateLimitPolicy) (service.RateLimitDecision, error) {
	if policy.Limit <= 0 || policy.Window <= 0 {
		return service.RateLimitDecision{Allowed: true}, nil
	}

	ratePerMs := float64(policy.Limit) / float64(policy.Window.Milliseconds())
	ttl := int64(math.Ceil(policy.Window.Seconds())) * 2

	result, err := tokenBucketScript.Run(ctx, l.client,
		[]string{redisKey(key, policy)},
		ratePerMs, policy.Limit, l.now().UnixMilli(), ttl,
	).Int64Slice()
	if err != nil || len(result) != 3 {
		l.logger.WarnContext(ctx, "Rate limiter unavailable, allowing request",
			slog.Any("error", err),
		)

		return service.RateLimitDecision{Allowed: true, Remaining: policy.Limit}, nil
	}

	return service.RateLimitDecision{
		Allowed:    result[0] == 1,
		RetryAfter: time.Duration(result[1]) * time.Millisecond,
		Remaining:  int(result[2]),
	}, nil
}

// redisKey hashes the client key so raw IP addresses are not stored.
func redisKey(key string, policy service.RateLimitPolicy) string {
	sum := sha256.Sum256([]byte(bucketKey(key, policy)))

	return redisKeyPrefix + hex.EncodeToString(sum[:12])
}
