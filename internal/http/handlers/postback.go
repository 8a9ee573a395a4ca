package handlers

import (
	"errors"
	"net/http"
	"strings"

	"offerwall/internal/cpa"
	"offerwall/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var postbacksProcessed = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "postbacks_processed_total",
		Help: "Postbacks by provider and settlement result",
	},
	[]string{"provider", "result"},
)

func init() {
	prometheus.MustRegister(postbacksProcessed)
}

// Postback is the server-to-server callback endpoint the CPA networks
// hit when a user finishes (or fails) an offer. Business outcomes all
// answer 200 so the network stops retrying; only a bad signature or an
// unknown provider is refused.
func (h *Handler) Postback(c *gin.Context) {
	providerName := strings.ToUpper(c.Param("provider"))

	provider, err := h.Providers.Get(providerName)
	if err != nil {
		postbacksProcessed.WithLabelValues(providerName, "UNKNOWN_PROVIDER").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
		return
	}

	params := make(map[string]string, len(c.Request.URL.Query()))
	for k, v := range c.Request.URL.Query() {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}

	pb, err := provider.VerifyPostback(params)
	if errors.Is(err, cpa.ErrInvalidSignature) {
		postbacksProcessed.WithLabelValues(providerName, "INVALID_SIGNATURE").Inc()
		logger.Warn("postback signature rejected", "provider", providerName, "ip", c.ClientIP())
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
		return
	}
	if err != nil {
		postbacksProcessed.WithLabelValues(providerName, "MALFORMED").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed postback"})
		return
	}

	res, err := h.SettlementService.Settle(c.Request.Context(), pb)
	if err != nil {
		postbacksProcessed.WithLabelValues(providerName, "ERROR").Inc()
		logger.Error("settlement failed", "provider", providerName, "session", pb.SessionToken, "error", err)
		// 500 so the network retries; settlement is idempotent.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "settlement failed"})
		return
	}

	postbacksProcessed.WithLabelValues(providerName, res.Code).Inc()
	c.JSON(http.StatusOK, gin.H{"status": res.Code})
}
