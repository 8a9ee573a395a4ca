package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"offerwall/internal/service"

	"github.com/gin-gonic/gin"
)

type StartTaskRequest struct {
	OfferID int64 `json:"offer_id" binding:"required"`
}

// StartTask opens a tracked attempt at an offer and hands back the
// provider tracking URL the client should open.
func (h *Handler) StartTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req StartTaskRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offer_id is required"})
		return
	}

	started, err := h.TaskService.Start(c.Request.Context(), userID, req.OfferID)
	switch {
	case errors.Is(err, service.ErrOfferNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "offer not found"})
		return
	case errors.Is(err, service.ErrOfferInactive), errors.Is(err, service.ErrOfferNotEligible):
		c.JSON(http.StatusConflict, gin.H{"error": "offer not available"})
		return
	case errors.Is(err, service.ErrTaskAlreadyStarted):
		c.JSON(http.StatusConflict, gin.H{"error": "task already in progress"})
		return
	case errors.Is(err, service.ErrUserNotActive):
		c.JSON(http.StatusForbidden, gin.H{"error": "account suspended"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task":         started.Task,
		"tracking_url": started.TrackingURL,
	})
}

// MyTasks lists the caller's tasks, newest first.
func (h *Handler) MyTasks(c *gin.Context) {
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

	tasks, err := h.TaskService.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load tasks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}
