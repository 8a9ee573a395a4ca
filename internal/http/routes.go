package http

import (
	"time"

	"offerwall/internal/config"
	"offerwall/internal/cpa"
	"offerwall/internal/http/handlers"
	"offerwall/internal/http/middleware"
	"offerwall/internal/notify"
	"offerwall/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterRoutes wires the whole API. The registry, notifier and sync
// job are shared with the background schedule, so the caller owns them.
func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, cfg *config.Config, providers *cpa.Registry, notifier *notify.Notifier, offerSync *service.OfferSyncService, version string) *handlers.Handler {
	h := handlers.NewHandler(db, cfg, providers, notifier, offerSync)
	healthHandler := handlers.NewHealthHandler(db, version)

	ipLimit := middleware.RedisRateLimit(cfg.APIRateLimit, time.Duration(cfg.APIRateWindow)*time.Second)

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	// Network server-to-server callbacks. Signed per provider, never
	// behind JWT.
	r.GET("/postback/:provider", ipLimit, h.Postback)

	v1 := r.Group("/api/v1")
	v1.Use(ipLimit)

	// Auth gets its own tighter window on top of the shared one.
	v1.POST("/auth", middleware.RedisRateLimit(5, time.Minute), h.Auth)

	authed := v1.Group("")
	authed.Use(middleware.JWT(), middleware.UserRateLimit(h.Users))
	{
		authed.GET("/me", h.Me)
		authed.GET("/offers", h.ListOffers)

		// Task start is where reward farming begins, so the full risk
		// evaluation gates it.
		riskGate := middleware.RiskGate(h.Users, h.RiskService)
		authed.POST("/tasks/start", riskGate, h.StartTask)
		authed.GET("/tasks", h.MyTasks)

		authed.GET("/wallet/balance", h.Balance)
		authed.GET("/wallet/transactions", h.MyTransactions)
		authed.POST("/wallet/withdraw", h.RequestWithdrawal)
		authed.GET("/wallet/withdrawals", h.MyWithdrawals)

		authed.GET("/referral/link", h.ReferralLink)
		authed.GET("/referral/stats", h.ReferralStats)
		authed.POST("/referral/apply", h.ApplyReferral)
	}

	admin := v1.Group("/admin")
	admin.Use(middleware.JWT(), h.RequireAdmin)
	{
		admin.GET("/stats", h.AdminStats)
		admin.GET("/withdrawals", h.AdminPendingWithdrawals)
		admin.POST("/withdrawals/:id/process", h.AdminProcessWithdrawal)
		admin.POST("/withdrawals/:id/approve", h.AdminApproveWithdrawal)
		admin.POST("/withdrawals/:id/reject", h.AdminRejectWithdrawal)
		admin.POST("/users/:id/suspend", h.AdminSetUserStatus(h.AdminService.SuspendUser))
		admin.POST("/users/:id/reactivate", h.AdminSetUserStatus(h.AdminService.ReactivateUser))
		admin.POST("/users/:id/ban", h.AdminSetUserStatus(h.AdminService.BanUser))
		admin.POST("/users/:id/adjust", h.AdminAdjustBalance)
		admin.GET("/alerts", h.AdminAlerts)
		admin.PATCH("/alerts/:id", h.AdminUpdateAlert)
		admin.PATCH("/offers/:id", h.AdminSetOfferActive)
		admin.POST("/offers/sync", h.AdminSyncOffers)
	}

	return h
}
