package rate_limiter

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimiter is a fixed-window counter kept in Redis so every instance of the
// service shares the same budget per key.
type RateLimiter struct {
	client redis.Cmdable
	limit  int
	window time.Duration
	prefix string
}

func NewRateLimiter(client redis.Cmdable, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "ratelimit:",
	}
}

// IsAllowed counts one request for key and reports whether it fits the window,
// along with how many requests remain.
func (rl *RateLimiter) IsAllowed(ctx context.Context, key string) (bool, int, error) {
	windowKey := rl.windowKey(key, time.Now())

	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("rate limiter: %w", err)
	}

	count := int(incr.Val())
	remaining := rl.limit - count
	if remaining < 0 {
		remaining = 0
	}

	return count <= rl.limit, remaining, nil
}

func (rl *RateLimiter) windowKey(key string, now time.Time) string {
	bucket := now.UnixNano() / int64(rl.window)
	return rl.prefix + key + ":" + strconv.FormatInt(bucket, 10)
}

// Middleware limits requests per key. Redis failures let the request through.
func (rl *RateLimiter) Middleware(keyFunc func(c *gin.Context) string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)

		allowed, remaining, err := rl.IsAllowed(c.Request.Context(), key)
		if err != nil {
			logger.Warn("Rate limiter unavailable, allowing request", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":     "Too many requests, try again later",
				"remaining": remaining,
			})
			return
		}

		c.Next()
	}
}
