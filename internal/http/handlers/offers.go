package handlers

import (
	"net/http"
	"strconv"

	"offerwall/internal/domain"

	"github.com/gin-gonic/gin"
)

const defaultOfferLimit = 50

// ListOffers returns active offers ordered by payout, highest first.
func (h *Handler) ListOffers(c *gin.Context) {
	limit := defaultOfferLimit
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	offers, err := h.Offers.ListActive(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load offers"})
		return
	}

	out := make([]gin.H, 0, len(offers))
	for _, o := range offers {
		out = append(out, offerPayload(o))
	}
	c.JSON(http.StatusOK, gin.H{"offers": out})
}

func offerPayload(o *domain.Offer) gin.H {
	return gin.H{
		"id":               o.ID,
		"provider":         o.Provider,
		"name":             o.Name,
		"description":      o.Description,
		"category":         o.Category,
		"payout_nano":      o.PayoutNano,
		"payout_ton":       domain.FormatTON(o.PayoutNano),
		"countries":        o.Countries,
		"devices":          o.Devices,
		"premium_required": o.PremiumRequired,
	}
}
