package middlewares

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/swapspot/swapspot/internal/infrastructure/logger"
	"go.uber.org/zap"
)

type RateLimiterConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	BlockDuration     time.Duration
}

func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerWindow: 150,
		Window:            time.Minute,
		BlockDuration:     time.Minute * 5,
	}
}

const rateLimitScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local expiry = tonumber(ARGV[4])

-- Drop entries that fell out of the window
local windowStart = now - window
redis.call('ZREMRANGEBYSCORE', key, 0, windowStart)

local currentCount = redis.call('ZCARD', key)

redis.call('ZADD', key, now, now)
redis.call('EXPIRE', key, expiry)

local remaining = math.max(limit - currentCount - 1, 0)
local allowed = currentCount < limit

return {allowed and 1 or 0, remaining, currentCount + 1}
`

const checkBlockScript = `
local blockKey = KEYS[1]

local exists = redis.call('EXISTS', blockKey)
if exists == 0 then
    return {0, 0}
end

local ttl = redis.call('TTL', blockKey)
return {1, ttl}
`

// RateLimiterMiddleware is a sliding-window limiter keyed by client IP. The
// gateway sits in front of auth, so the IP is the only stable identity it
// has. Redis failures fail open.
func RateLimiterMiddleware(redisClient *redis.Client, logger *logger.Logger, config RateLimiterConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		clientID := c.ClientIP()

		blockKey := fmt.Sprintf("ratelimit:block:%s", clientID)
		blockResult, err := redisClient.Eval(ctx, checkBlockScript, []string{blockKey}).Result()
		if err != nil {
			logger.Error("failed to check rate-limit block", zap.Error(err), zap.String("client", clientID))
			c.Next()
			return
		}

		blockInfo := blockResult.([]any)
		isBlocked := blockInfo[0].(int64) == 1

		if isBlocked {
			ttl := time.Duration(blockInfo[1].(int64)) * time.Second

			c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", config.RequestsPerWindow))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(ttl).Unix()))
			c.Header("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate_limit_exceeded",
				"message":     "Too many requests. You have been temporarily blocked.",
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		allowed, remaining, resetTime, err := checkRateLimitAtomic(ctx, redisClient, clientID, config)
		if err != nil {
			logger.Error("failed to check rate limit", zap.Error(err), zap.String("client", clientID))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", config.RequestsPerWindow))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", resetTime.Unix()))

		if !allowed {
			if err := blockClient(ctx, redisClient, clientID, config.BlockDuration); err != nil {
				logger.Error("failed to block client", zap.Error(err), zap.String("client", clientID))
			}

			logger.Warn("rate limit exceeded",
				zap.String("client", clientID),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", int(config.BlockDuration.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate_limit_exceeded",
				"message":     fmt.Sprintf("Rate limit exceeded. Maximum %d requests per %v.", config.RequestsPerWindow, config.Window),
				"retry_after": int(config.BlockDuration.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func checkRateLimitAtomic(ctx context.Context, client *redis.Client, clientID string, config RateLimiterConfig) (allowed bool, remaining int, resetTime time.Time, err error) {
	key := fmt.Sprintf("ratelimit:%s", clientID)
	now := time.Now()

	result, err := client.Eval(ctx, rateLimitScript,
		[]string{key},
		now.UnixNano(),
		config.Window.Nanoseconds(),
		config.RequestsPerWindow,
		int(config.Window.Seconds())+60, // expiry buffer
	).Result()

	if err != nil {
		return false, 0, time.Time{}, fmt.Errorf("rate limit script failed: %w", err)
	}

	resultArray := result.([]any)
	allowedInt := resultArray[0].(int64)
	remainingInt := resultArray[1].(int64)

	allowed = allowedInt == 1
	remaining = int(remainingInt)
	resetTime = now.Add(config.Window)

	return allowed, remaining, resetTime, nil
}

func blockClient(ctx context.Context, client *redis.Client, clientID string, duration time.Duration) error {
	key := fmt.Sprintf("ratelimit:block:%s", clientID)
	return client.Set(ctx, key, "1", duration).Err()
}
