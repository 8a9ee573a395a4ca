package middleware

import (
	"net/http"

	"offerwall/internal/fraud"
	"offerwall/internal/logger"
	"offerwall/internal/repository"
	"offerwall/internal/service"

	"github.com/gin-gonic/gin"
)

// FingerprintHeader carries the client-side device fingerprint hash.
const FingerprintHeader = "X-Device-Fingerprint"

// RequestContext builds the fraud collector's view of the current
// request from the gin context.
func RequestContext(c *gin.Context, userCountry string) fraud.RequestContext {
	return fraud.RequestContext{
		FingerprintHash: c.GetHeader(FingerprintHeader),
		IP:              c.ClientIP(),
		UserCountry:     userCountry,
	}
}

// RiskGate runs the full risk evaluation and applies the general policy:
// CRITICAL users are blocked, everyone else passes. Evaluation errors
// let the request through, only withdrawals fail closed and those gate
// inside their service.
func RiskGate(users *repository.UserRepository, risk *service.RiskService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt64("user_id")
		if userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		country := ""
		if user, err := users.GetByID(c.Request.Context(), userID); err == nil {
			country = user.CountryCode
		}

		assessment, err := risk.Evaluate(c.Request.Context(), userID, RequestContext(c, country))
		if err != nil {
			logger.Warn("risk evaluation failed, allowing request", "user_id", userID, "error", err)
			c.Next()
			return
		}

		d := fraud.Decide(fraud.OpGeneral, assessment.Level, assessment.Signals.Flags)
		if !d.Allow {
			RiskBlocked.WithLabelValues(d.Code).Inc()
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": d.Code})
			return
		}

		c.Next()
	}
}
