package service

import (
	"context"
	"errors"

	"offerwall/internal/domain"
	"offerwall/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// AdminService is the privileged surface: user status transitions,
// alert lifecycle, manual ledger adjustments and platform stats. Every
// money mutation goes through the ledger so the audit trail stays whole.
type AdminService struct {
	db     *pgxpool.Pool
	ledger *LedgerService
	users  *repository.UserRepository
	alerts *repository.FraudAlertRepository
	offers *repository.OfferRepository
}

func NewAdminService(db *pgxpool.Pool, ledger *LedgerService) *AdminService {
	return &AdminService{
		db:     db,
		ledger: ledger,
		users:  repository.NewUserRepository(db),
		alerts: repository.NewFraudAlertRepository(db),
		offers: repository.NewOfferRepository(db),
	}
}

// SuspendUser: ACTIVE → SUSPENDED.
func (s *AdminService) SuspendUser(ctx context.Context, userID int64) error {
	return s.transition(ctx, userID, domain.UserActive, domain.UserSuspended)
}

// ReactivateUser: SUSPENDED → ACTIVE. The one permitted reverse move.
func (s *AdminService) ReactivateUser(ctx context.Context, userID int64) error {
	return s.transition(ctx, userID, domain.UserSuspended, domain.UserActive)
}

// BanUser moves a user to BANNED from either live state. BANNED is
// terminal.
func (s *AdminService) BanUser(ctx context.Context, userID int64) error {
	if err := s.transition(ctx, userID, domain.UserActive, domain.UserBanned); err == nil {
		return nil
	} else if !errors.Is(err, ErrInvalidTransition) {
		return err
	}
	return s.transition(ctx, userID, domain.UserSuspended, domain.UserBanned)
}

func (s *AdminService) transition(ctx context.Context, userID int64, from, to domain.UserStatus) error {
	err := s.users.SetStatus(ctx, userID, from, to)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrInvalidTransition
	}
	return err
}

// Adjust credits or debits a user manually, always as an ADJUSTMENT
// transaction. Negative amounts debit and fail closed on short balance.
func (s *AdminService) Adjust(ctx context.Context, userID, amountNano int64, reason string) (*domain.Transaction, error) {
	if amountNano == 0 {
		return nil, ErrInvalidAmount
	}
	if amountNano > 0 {
		return s.ledger.Credit(ctx, userID, amountNano, domain.TxAdjustment, "admin", nil, reason)
	}
	return s.ledger.Debit(ctx, userID, -amountNano, domain.TxAdjustment, "admin", nil, reason)
}

func (s *AdminService) OpenAlerts(ctx context.Context, limit int) ([]*domain.FraudAlert, error) {
	return s.alerts.ListByStatus(ctx, domain.AlertOpen, limit)
}

func (s *AdminService) UpdateAlert(ctx context.Context, alertID int64, to domain.FraudAlertStatus) error {
	err := s.alerts.UpdateStatus(ctx, alertID, to)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrInvalidTransition
	}
	return err
}

func (s *AdminService) SetOfferActive(ctx context.Context, offerID int64, active bool) error {
	err := s.offers.SetActive(ctx, offerID, active)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrOfferNotFound
	}
	return err
}

// PlatformStats is the admin dashboard aggregate.
type PlatformStats struct {
	TotalUsers         int64 `json:"total_users"`
	ActiveOffers       int64 `json:"active_offers"`
	TasksApproved      int64 `json:"tasks_approved"`
	TotalPaidNano      int64 `json:"total_paid_nano"`
	PendingWithdrawals int64 `json:"pending_withdrawals"`
	OpenFraudAlerts    int64 `json:"open_fraud_alerts"`
	BalanceOutstanding int64 `json:"balance_outstanding_nano"`
}

func (s *AdminService) Stats(ctx context.Context) (*PlatformStats, error) {
	var st PlatformStats
	err := s.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM offers WHERE is_active),
			(SELECT COUNT(*) FROM tasks WHERE status = 'APPROVED'),
			(SELECT COALESCE(SUM(amount_nano), 0) FROM transactions WHERE type IN ('TASK_REWARD', 'REFERRAL_BONUS')),
			(SELECT COUNT(*) FROM withdrawals WHERE status IN ('PENDING', 'PROCESSING')),
			(SELECT COUNT(*) FROM fraud_alerts WHERE status = 'OPEN'),
			(SELECT COALESCE(SUM(balance_nano), 0) FROM users)
	`).Scan(&st.TotalUsers, &st.ActiveOffers, &st.TasksApproved, &st.TotalPaidNano,
		&st.PendingWithdrawals, &st.OpenFraudAlerts, &st.BalanceOutstanding)
	if err != nil {
		return nil, err
	}
	return &st, nil
}
