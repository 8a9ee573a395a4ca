package handlers

import (
	"errors"
	"net/http"

	"offerwall/internal/repository"

	"github.com/gin-gonic/gin"
)

// ReferralLink returns the caller's invite deep link.
func (h *Handler) ReferralLink(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.Users.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": user.ReferralCode,
		"link": h.referralLink(user.ReferralCode),
	})
}

// ReferralStats returns per-tier referral counts and commission totals.
func (h *Handler) ReferralStats(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.Users.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	stats, err := h.Earnings.Stats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	stats.ReferralCode = user.ReferralCode
	stats.ReferralLink = h.referralLink(user.ReferralCode)

	if n, err := h.Users.CountReferrals(c.Request.Context(), userID); err == nil {
		stats.TotalReferrals = n
	}

	c.JSON(http.StatusOK, stats)
}

type ApplyReferralRequest struct {
	Code string `json:"code" binding:"required"`
}

// ApplyReferral binds a referrer after signup. Once set the referrer
// never changes, and self or later-joined accounts are refused.
func (h *Handler) ApplyReferral(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req ApplyReferralRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	referrer, err := h.Users.GetByReferralCode(c.Request.Context(), req.Code)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown referral code"})
		return
	}
	if referrer.ID == userID {
		c.JSON(http.StatusConflict, gin.H{"error": "cannot refer yourself"})
		return
	}

	if err := h.Users.SetReferrer(c.Request.Context(), userID, referrer.ID); err != nil {
		if errors.Is(err, repository.ErrReferrerNotEligible) {
			c.JSON(http.StatusConflict, gin.H{"error": "referral code cannot be applied"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) referralLink(code string) string {
	return "https://t.me/" + h.Cfg.BotUsername + "?startapp=ref_" + code
}
