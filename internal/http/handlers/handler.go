package handlers

import (
	"offerwall/internal/config"
	"offerwall/internal/cpa"
	"offerwall/internal/fraud"
	"offerwall/internal/ipintel"
	"offerwall/internal/notify"
	"offerwall/internal/repository"
	"offerwall/internal/service"
	"offerwall/internal/ton"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Handler owns the request-facing service graph. Everything hangs off
// the one pgx pool; the CPA registry and notifier are shared with the
// background sync so they come in from the caller.
type Handler struct {
	DB  *pgxpool.Pool
	Cfg *config.Config

	AuthService       *service.AuthService
	TaskService       *service.TaskService
	SettlementService *service.SettlementService
	WithdrawalService *service.WithdrawalService
	AdminService      *service.AdminService
	RiskService       *service.RiskService
	OfferSync         *service.OfferSyncService
	Providers         *cpa.Registry

	Users        *repository.UserRepository
	Offers       *repository.OfferRepository
	Transactions *repository.TransactionRepository
	Earnings     *repository.ReferralEarningRepository
}

func NewHandler(db *pgxpool.Pool, cfg *config.Config, providers *cpa.Registry, notifier *notify.Notifier, offerSync *service.OfferSyncService) *Handler {
	ledger := service.NewLedgerService(db)
	users := repository.NewUserRepository(db)

	collector := fraud.NewCollector(
		repository.NewDeviceRepository(db),
		repository.NewTaskRepository(db),
		users,
		ipintel.NewClient(cfg.IPIntelURL, cfg.IPIntelKey),
	)
	risk := service.NewRiskService(db, collector)

	verifier := ton.NewVerifier(ton.NewClient(ton.Network(cfg.TonNetwork), cfg.TonAPIKey))

	return &Handler{
		DB:  db,
		Cfg: cfg,

		AuthService:       service.NewAuthService(db, cfg.BotToken),
		TaskService:       service.NewTaskService(db, providers),
		SettlementService: service.NewSettlementService(db, ledger, notifier),
		WithdrawalService: service.NewWithdrawalService(db, ledger, risk, verifier, notifier, service.WithdrawalLimits{
			Enabled:       cfg.WithdrawalsEnabled,
			MinAmountNano: cfg.MinWithdrawalNano,
			DailyCapNano:  cfg.DailyCapNano,
		}),
		AdminService: service.NewAdminService(db, ledger),
		RiskService:  risk,
		OfferSync:    offerSync,
		Providers:    providers,

		Users:        users,
		Offers:       repository.NewOfferRepository(db),
		Transactions: repository.NewTransactionRepository(db),
		Earnings:     repository.NewReferralEarningRepository(db),
	}
}

// getUserID pulls the authenticated user id set by the JWT middleware.
func getUserID(c *gin.Context) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	uid, ok := uidVal.(int64)
	return uid, ok
}
