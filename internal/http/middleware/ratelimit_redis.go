package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// InitRedisRateLimiter initializes the shared Redis client used by all
// limiters. If addr is empty or the ping fails the client stays nil and
// every limiter acts fail-open.
func InitRedisRateLimiter(addr, password string, db int) {
	if addr == "" {
		return
	}
	redisClient = redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		// on ping failure, disable redis client to keep server available
		redisClient = nil
	}
}

// RedisRateLimit implements a fixed-window per-IP rate limiter using
// Redis INCR/EXPIRE. key format: rl:<window_seconds>:<ip>
func RedisRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil {
			c.Next()
			return
		}

		key := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + c.ClientIP()
		allow, remaining := fixedWindow(key, maxRequests, window)
		if !allow {
			retryAfter := windowRetryAfter(key, window)
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": retryAfter,
			})
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}

// fixedWindow counts one hit against key and reports whether it stayed
// under the budget. Redis errors count as allowed.
func fixedWindow(key string, maxRequests int, window time.Duration) (allow bool, remaining int64) {
	ctx := context.Background()

	val, err := redisClient.Incr(ctx, key).Result()
	if err != nil {
		return true, int64(maxRequests)
	}
	if val == 1 {
		redisClient.Expire(ctx, key, window)
	}
	return val <= int64(maxRequests), maxInt64(0, int64(maxRequests)-val)
}

// windowRetryAfter reads the key's remaining TTL so a blocked client is
// told when the window actually resets, not the full window length. The
// whole window is the fallback when the TTL cannot be read.
func windowRetryAfter(key string, window time.Duration) int {
	ttl, err := redisClient.TTL(context.Background(), key).Result()
	if err != nil || ttl <= 0 {
		return int(window.Seconds())
	}
	return int(ttl.Round(time.Second).Seconds())
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
