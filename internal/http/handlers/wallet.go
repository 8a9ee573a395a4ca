package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"offerwall/internal/domain"
	"offerwall/internal/http/middleware"
	"offerwall/internal/service"

	"github.com/gin-gonic/gin"
)

// Balance returns the spendable balance plus the amount currently held
// in withdrawal escrow.
func (h *Handler) Balance(c *gin.Context) {
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

	var escrowed int64
	if ws, err := h.WithdrawalService.ListByUser(c.Request.Context(), userID, 50); err == nil {
		for _, w := range ws {
			if !w.Status.Terminal() {
				escrowed += w.AmountNano
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"balance_nano":     user.BalanceNano,
		"balance_ton":      domain.FormatTON(user.BalanceNano),
		"escrowed_nano":    escrowed,
		"escrowed_ton":     domain.FormatTON(escrowed),
		"total_earned_ton": domain.FormatTON(user.TotalEarnedNano),
	})
}

// MyTransactions lists the caller's ledger entries, newest first.
func (h *Handler) MyTransactions(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	txs, err := h.Transactions.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load transactions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

type WithdrawRequest struct {
	AmountNano int64  `json:"amount_nano" binding:"required"`
	Address    string `json:"address" binding:"required"`
}

// RequestWithdrawal runs the full guard chain and escrows the amount.
func (h *Handler) RequestWithdrawal(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req WithdrawRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount_nano and address are required"})
		return
	}

	country := ""
	if user, err := h.Users.GetByID(c.Request.Context(), userID); err == nil {
		country = user.CountryCode
	}

	w, err := h.WithdrawalService.Request(c.Request.Context(), userID, req.AmountNano,
		req.Address, middleware.RequestContext(c, country))

	var blocked *service.FraudBlockedError
	switch {
	case errors.As(err, &blocked):
		c.JSON(http.StatusForbidden, gin.H{"error": blocked.Code})
		return
	case errors.Is(err, service.ErrWithdrawalsDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "withdrawals are temporarily disabled"})
		return
	case errors.Is(err, service.ErrBelowMinimum):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":        "amount below minimum",
			"minimum_nano": h.Cfg.MinWithdrawalNano,
		})
		return
	case errors.Is(err, service.ErrInvalidAddress):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet address"})
		return
	case errors.Is(err, service.ErrInsufficientBalance):
		c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient balance"})
		return
	case errors.Is(err, service.ErrTooManyPending):
		c.JSON(http.StatusConflict, gin.H{"error": "too many pending withdrawals"})
		return
	case errors.Is(err, service.ErrDailyCapExceeded):
		c.JSON(http.StatusConflict, gin.H{"error": "daily withdrawal cap exceeded"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to request withdrawal"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawal": withdrawalPayload(w)})
}

// MyWithdrawals lists the caller's withdrawal requests, newest first.
func (h *Handler) MyWithdrawals(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ws, err := h.WithdrawalService.ListByUser(c.Request.Context(), userID, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load withdrawals"})
		return
	}

	out := make([]gin.H, 0, len(ws))
	for _, w := range ws {
		out = append(out, withdrawalPayload(w))
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": out})
}

func withdrawalPayload(w *domain.Withdrawal) gin.H {
	return gin.H{
		"id":             w.ID,
		"amount_nano":    w.AmountNano,
		"amount_ton":     domain.FormatTON(w.AmountNano),
		"wallet_address": w.WalletAddress,
		"status":         w.Status,
		"tx_hash":        w.TxHash,
		"created_at":     w.CreatedAt,
		"processed_at":   w.ProcessedAt,
	}
}
