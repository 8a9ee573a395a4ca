package service

import (
	"context"
	"errors"

	"offerwall/internal/cpa"
	"offerwall/internal/domain"
	"offerwall/internal/logger"
	"offerwall/internal/notify"
	"offerwall/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Settlement result codes. Business states are results, not errors; only
// infrastructure failures surface as errors so networks retry safely.
const (
	SettleOK               = "OK"
	SettleAlreadyProcessed = "ALREADY_PROCESSED"
	SettleNotFound         = "NOT_FOUND"
	SettlePending          = "PENDING"
	SettleRejected         = "REJECTED"
)

type SettlementResult struct {
	Code     string
	TaskID   int64
	Credited int64 // nano credited to the task owner, 0 unless OK
}

// Commission tiers in basis points of the settled base amount. Rates
// apply to the same base for every tier, they do not compound.
var commissionTiersBps = [3]int64{1000, 300, 100}

// TierCommission computes the tier commission with integer floor, so
// rounding always favors the platform.
func TierCommission(baseNano int64, tier int) int64 {
	if tier < 1 || tier > 3 || baseNano <= 0 {
		return 0
	}
	return baseNano * commissionTiersBps[tier-1] / 10000
}

// SettlementService turns verified postbacks into ledger movements:
// approve the task, credit its owner, fan commissions up the referral
// chain. Everything money-touching happens in one store transaction.
type SettlementService struct {
	db       *pgxpool.Pool
	ledger   *LedgerService
	tasks    *repository.TaskRepository
	users    *repository.UserRepository
	earnings *repository.ReferralEarningRepository
	notifier *notify.Notifier
}

func NewSettlementService(db *pgxpool.Pool, ledger *LedgerService, notifier *notify.Notifier) *SettlementService {
	return &SettlementService{
		db:       db,
		ledger:   ledger,
		tasks:    repository.NewTaskRepository(db),
		users:    repository.NewUserRepository(db),
		earnings: repository.NewReferralEarningRepository(db),
		notifier: notifier,
	}
}

// Settle processes one verified postback. Idempotent on task terminal
// state: a duplicate of an already-approved conversion acknowledges
// without moving money.
func (s *SettlementService) Settle(ctx context.Context, pb *cpa.Postback) (*SettlementResult, error) {
	task, err := s.tasks.GetBySessionToken(ctx, pb.SessionToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Warn("postback for unknown session", "provider", pb.Provider, "session", pb.SessionToken)
			return &SettlementResult{Code: SettleNotFound}, nil
		}
		return nil, err
	}

	if task.Status.Terminal() {
		return &SettlementResult{Code: SettleAlreadyProcessed, TaskID: task.ID}, nil
	}

	switch pb.Status {
	case cpa.StatusRejected:
		moved, err := s.tasks.RecordPostback(ctx, task.ID, pb.Raw, domain.TaskRejected)
		if err != nil {
			return nil, err
		}
		if !moved {
			return &SettlementResult{Code: SettleAlreadyProcessed, TaskID: task.ID}, nil
		}
		return &SettlementResult{Code: SettleRejected, TaskID: task.ID}, nil

	case cpa.StatusPending:
		moved, err := s.tasks.RecordPostback(ctx, task.ID, pb.Raw, domain.TaskPending)
		if err != nil {
			return nil, err
		}
		if !moved {
			return &SettlementResult{Code: SettleAlreadyProcessed, TaskID: task.ID}, nil
		}
		return &SettlementResult{Code: SettlePending, TaskID: task.ID}, nil
	}

	// Approved. Record the payload, then run the atomic approve + credit
	// + fan-out. The approve CAS inside the transaction picks exactly one
	// winner among concurrent duplicates.
	if _, err := s.tasks.RecordPostback(ctx, task.ID, pb.Raw, domain.TaskPending); err != nil {
		return nil, err
	}

	// The referrer chain is immutable, read it outside the money tx.
	chain, err := s.referrerChain(ctx, task.UserID)
	if err != nil {
		return nil, err
	}

	approved := false
	var bonuses []creditedBonus
	err = pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		won, err := s.tasks.ApproveTx(ctx, tx, task.ID)
		if err != nil {
			return err
		}
		if !won {
			return nil
		}
		approved = true

		taskRef := task.ID
		if _, err := s.ledger.CreditTx(ctx, tx, task.UserID, task.PayoutNano,
			domain.TxTaskReward, "task", &taskRef, "Task reward"); err != nil {
			return err
		}

		bonuses, err = s.fanOutTx(ctx, tx, task, chain)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !approved {
		return &SettlementResult{Code: SettleAlreadyProcessed, TaskID: task.ID}, nil
	}

	s.notifyAll(ctx, task, bonuses)

	logger.Info("task settled",
		"task_id", task.ID, "user_id", task.UserID,
		"payout_nano", task.PayoutNano, "referral_tiers", len(bonuses))
	return &SettlementResult{Code: SettleOK, TaskID: task.ID, Credited: task.PayoutNano}, nil
}

type creditedBonus struct {
	referrerID int64
	tier       int
	amountNano int64
}

// referrerChain returns up to 3 ancestors, nearest first.
func (s *SettlementService) referrerChain(ctx context.Context, userID int64) ([]int64, error) {
	var chain []int64
	current := userID
	for tier := 1; tier <= 3; tier++ {
		referrerID, ok, err := s.users.GetReferrerID(ctx, current)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		chain = append(chain, referrerID)
		current = referrerID
	}
	return chain, nil
}

// fanOutTx credits each ancestor its tier commission. The (task, tier)
// unique key makes a second fan-out for the same task a no-op.
func (s *SettlementService) fanOutTx(ctx context.Context, tx pgx.Tx, task *domain.Task, chain []int64) ([]creditedBonus, error) {
	var bonuses []creditedBonus
	for i, referrerID := range chain {
		tier := i + 1
		amount := TierCommission(task.PayoutNano, tier)
		if amount <= 0 {
			continue
		}

		created, err := s.earnings.InsertTx(ctx, tx, &domain.ReferralEarning{
			ReferrerID: referrerID,
			ReferredID: task.UserID,
			Tier:       tier,
			TaskID:     task.ID,
			AmountNano: amount,
		})
		if err != nil {
			return nil, err
		}
		if !created {
			continue
		}

		taskRef := task.ID
		if _, err := s.ledger.CreditTx(ctx, tx, referrerID, amount,
			domain.TxReferralBonus, "task", &taskRef, "Referral commission"); err != nil {
			return nil, err
		}
		bonuses = append(bonuses, creditedBonus{referrerID: referrerID, tier: tier, amountNano: amount})
	}
	return bonuses, nil
}

func (s *SettlementService) notifyAll(ctx context.Context, task *domain.Task, bonuses []creditedBonus) {
	if s.notifier == nil {
		return
	}
	if owner, err := s.users.GetByID(ctx, task.UserID); err == nil {
		s.notifier.TaskApproved(owner.TgID, task.PayoutNano)
	}
	for _, b := range bonuses {
		if ref, err := s.users.GetByID(ctx, b.referrerID); err == nil {
			s.notifier.ReferralBonus(ref.TgID, b.tier, b.amountNano)
		}
	}
}
