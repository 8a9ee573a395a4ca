package handlers

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"

	"offerwall/internal/domain"
	"offerwall/internal/repository"
	"offerwall/internal/service"

	"github.com/gin-gonic/gin"
)

// RequireAdmin allows only operators whose Telegram id is listed in the
// configuration. Runs after JWT.
func (h *Handler) RequireAdmin(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.Users.GetByID(c.Request.Context(), userID)
	if err != nil || !slices.Contains(h.Cfg.AdminTelegramIDs, user.TgID) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.Next()
}

func (h *Handler) AdminStats(c *gin.Context) {
	stats, err := h.AdminService.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// AdminPendingWithdrawals lists the review queue.
func (h *Handler) AdminPendingWithdrawals(c *gin.Context) {
	ws, err := h.WithdrawalService.ListPending(c.Request.Context(), 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load withdrawals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": ws})
}

type ApproveWithdrawalRequest struct {
	TxHash string `json:"tx_hash"`
}

// AdminApproveWithdrawal completes a withdrawal, verifying the on-chain
// transaction when a hash is supplied.
func (h *Handler) AdminApproveWithdrawal(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req ApproveWithdrawalRequest
	_ = c.BindJSON(&req)

	if err := h.WithdrawalService.Approve(c.Request.Context(), id, req.TxHash); err != nil {
		if errors.Is(err, service.ErrWithdrawalNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "withdrawal not found"})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

// AdminProcessWithdrawal claims a pending withdrawal before paying it
// out, so a second operator picking the same row gets a conflict.
func (h *Handler) AdminProcessWithdrawal(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.WithdrawalService.MarkProcessing(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrWithdrawalNotPending) {
			c.JSON(http.StatusConflict, gin.H{"error": "withdrawal is not pending"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update withdrawal"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "processing"})
}

type RejectWithdrawalRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// AdminRejectWithdrawal refunds the escrow and closes the request.
func (h *Handler) AdminRejectWithdrawal(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req RejectWithdrawalRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required"})
		return
	}

	if err := h.WithdrawalService.Reject(c.Request.Context(), id, req.Reason); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}

// AdminSetUserStatus builds a handler that suspends, reactivates or
// bans the user in the path.
func (h *Handler) AdminSetUserStatus(transition func(context.Context, int64) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		err = transition(c.Request.Context(), id)
		if errors.Is(err, service.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": "invalid status transition"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

type AdjustRequest struct {
	AmountNano int64  `json:"amount_nano" binding:"required"`
	Reason     string `json:"reason" binding:"required"`
}

// AdminAdjustBalance applies a signed manual correction to a balance.
func (h *Handler) AdminAdjustBalance(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req AdjustRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount_nano and reason are required"})
		return
	}

	tx, err := h.AdminService.Adjust(c.Request.Context(), id, req.AmountNano, req.Reason)
	switch {
	case errors.Is(err, service.ErrInsufficientBalance):
		c.JSON(http.StatusConflict, gin.H{"error": "insufficient balance"})
		return
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "adjustment failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

func (h *Handler) AdminAlerts(c *gin.Context) {
	alerts, err := h.AdminService.OpenAlerts(c.Request.Context(), 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load alerts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

type UpdateAlertRequest struct {
	Status domain.FraudAlertStatus `json:"status" binding:"required"`
}

func (h *Handler) AdminUpdateAlert(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req UpdateAlertRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	if err := h.AdminService.UpdateAlert(c.Request.Context(), id, req.Status); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type SetOfferActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func (h *Handler) AdminSetOfferActive(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req SetOfferActiveRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "active is required"})
		return
	}

	if err := h.AdminService.SetOfferActive(c.Request.Context(), id, *req.Active); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update offer"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// AdminSyncOffers kicks an immediate feed sync outside the cron
// schedule. Runs in the background; progress lands in the logs.
func (h *Handler) AdminSyncOffers(c *gin.Context) {
	go h.OfferSync.SyncAll(context.Background())
	c.JSON(http.StatusAccepted, gin.H{"status": "sync started"})
}

func pathID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
