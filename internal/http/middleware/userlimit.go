package middleware

import (
	"net/http"
	"strconv"
	"time"

	"offerwall/internal/fraud"
	"offerwall/internal/repository"

	"github.com/gin-gonic/gin"
)

// UserRateLimit limits authenticated traffic per user, not per IP, with
// a budget that shrinks as the user's stored risk score grows. Requires
// JWT middleware to run before this.
func UserRateLimit(users *repository.UserRepository) gin.HandlerFunc {
	const window = time.Minute

	return func(c *gin.Context) {
		if redisClient == nil {
			c.Next()
			return
		}

		userIDVal, exists := c.Get("user_id")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		userID, ok := userIDVal.(int64)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user"})
			return
		}

		// The stored score is the smoothed history, cheap to read. The
		// full collector only runs on the routes that gate on it.
		budget := fraud.RequestCeiling(fraud.LevelLow)
		if score, err := users.GetRiskScore(c.Request.Context(), userID); err == nil {
			budget = fraud.RequestCeiling(fraud.LevelFor(score))
		}

		key := "url:" + strconv.FormatInt(userID, 10)
		allow, remaining := fixedWindow(key, budget, window)

		c.Header("X-RateLimit-Limit", strconv.Itoa(budget))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if !allow {
			retryAfter := windowRetryAfter(key, window)
			RLBlocked.WithLabelValues("user:" + c.FullPath()).Inc()
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": retryAfter,
			})
			return
		}

		RLRequests.WithLabelValues("user:" + c.FullPath()).Inc()
		c.Next()
	}
}
