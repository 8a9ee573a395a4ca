package handlers

import (
	"errors"
	"net/http"

	"offerwall/internal/domain"
	"offerwall/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthRequest struct {
	InitData string `json:"init_data" binding:"required"`
}

// Auth exchanges Telegram WebApp init data for a session token.
func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "init_data is required"})
		return
	}
	if len(req.InitData) > 4096 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "init_data too long"})
		return
	}

	user, token, err := h.AuthService.Authenticate(c.Request.Context(), req.InitData)
	switch {
	case errors.Is(err, service.ErrInvalidInitData):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or stale telegram data"})
		return
	case errors.Is(err, service.ErrUserNotActive):
		c.JSON(http.StatusForbidden, gin.H{"error": "account banned"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userPayload(user),
	})
}

// Me returns the authenticated user's profile and balance.
func (h *Handler) Me(c *gin.Context) {
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

	c.JSON(http.StatusOK, userPayload(user))
}

func userPayload(u *domain.User) gin.H {
	return gin.H{
		"id":               u.ID,
		"tg_id":            u.TgID,
		"username":         u.Username,
		"first_name":       u.FirstName,
		"country_code":     u.CountryCode,
		"is_premium":       u.IsPremium,
		"status":           u.Status,
		"balance_nano":     u.BalanceNano,
		"balance_ton":      domain.FormatTON(u.BalanceNano),
		"total_earned_ton": domain.FormatTON(u.TotalEarnedNano),
		"referral_code":    u.ReferralCode,
		"created_at":       u.CreatedAt,
	}
}
