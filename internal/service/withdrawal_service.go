package service

import (
	"context"
	"errors"
	"time"

	"offerwall/internal/domain"
	"offerwall/internal/fraud"
	"offerwall/internal/logger"
	"offerwall/internal/notify"
	"offerwall/internal/repository"
	"offerwall/internal/ton"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrWithdrawalsDisabled = errors.New("withdrawals are disabled")
	ErrBelowMinimum        = errors.New("amount below minimum withdrawal")
	ErrInvalidAddress      = errors.New("invalid wallet address")
	ErrTooManyPending      = errors.New("too many pending withdrawals")
	ErrDailyCapExceeded    = errors.New("daily withdrawal cap exceeded")
	ErrWithdrawalNotFound  = errors.New("withdrawal not found")
)

// FraudBlockedError carries the machine-readable policy code so handlers
// can distinguish review-required from generic failures.
type FraudBlockedError struct {
	Code string
}

func (e *FraudBlockedError) Error() string { return "blocked by risk policy: " + e.Code }

// WithdrawalLimits is the guard configuration.
type WithdrawalLimits struct {
	Enabled           bool
	MinAmountNano     int64
	DailyCapNano      int64
	MaxPendingPerUser int
}

// WithdrawalService guards and escrows cash-out requests. The amount
// leaves the balance the instant the request row is created and comes
// back only on rejection or failure.
type WithdrawalService struct {
	db          *pgxpool.Pool
	ledger      *LedgerService
	risk        *RiskService
	withdrawals  *repository.WithdrawalRepository
	users        *repository.UserRepository
	transactions *repository.TransactionRepository
	verifier     *ton.Verifier
	notifier    *notify.Notifier
	limits      WithdrawalLimits
}

func NewWithdrawalService(db *pgxpool.Pool, ledger *LedgerService, risk *RiskService, verifier *ton.Verifier, notifier *notify.Notifier, limits WithdrawalLimits) *WithdrawalService {
	if limits.MaxPendingPerUser <= 0 {
		limits.MaxPendingPerUser = 3
	}
	return &WithdrawalService{
		db:           db,
		ledger:       ledger,
		risk:         risk,
		withdrawals:  repository.NewWithdrawalRepository(db),
		users:        repository.NewUserRepository(db),
		transactions: repository.NewTransactionRepository(db),
		verifier:     verifier,
		notifier:     notifier,
		limits:       limits,
	}
}

// Request runs the guard checks in order, short-circuiting on the first
// failure, then escrows atomically. Risk scoring failures block the
// request: withdrawing through a scoring outage is the expensive
// mistake, a delayed withdrawal is not.
func (s *WithdrawalService) Request(ctx context.Context, userID, amountNano int64, address string, reqCtx fraud.RequestContext) (*domain.Withdrawal, error) {
	if !s.limits.Enabled {
		return nil, ErrWithdrawalsDisabled
	}
	if amountNano < s.limits.MinAmountNano {
		return nil, ErrBelowMinimum
	}
	if !ton.ValidateAddress(address) {
		return nil, ErrInvalidAddress
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.BalanceNano < amountNano {
		return nil, ErrInsufficientBalance
	}

	pending, err := s.withdrawals.CountPending(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pending >= s.limits.MaxPendingPerUser {
		return nil, ErrTooManyPending
	}

	// The cap reads the ledger, not the withdrawals table: every escrow
	// writes a WITHDRAWAL row, so refunded requests still count toward
	// the trailing window.
	volume, err := s.transactions.SumByTypeSince(ctx, userID, domain.TxWithdrawal, time.Now().Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}
	if s.limits.DailyCapNano > 0 && volume+amountNano > s.limits.DailyCapNano {
		return nil, ErrDailyCapExceeded
	}

	assessment, err := s.risk.Evaluate(ctx, userID, reqCtx)
	if err != nil {
		// fail closed
		logger.Error("risk evaluation failed, blocking withdrawal", "user_id", userID, "error", err)
		return nil, &FraudBlockedError{Code: fraud.CodeReviewRequired}
	}
	decision := fraud.Decide(fraud.OpWithdrawal, assessment.Level, assessment.Signals.Flags)
	if !decision.Allow {
		return nil, &FraudBlockedError{Code: decision.Code}
	}

	// Escrow: debit, insert PENDING, append the negative WITHDRAWAL
	// transaction, all one unit. The debit predicate re-checks balance so
	// a racing request cannot overdraw.
	w := &domain.Withdrawal{UserID: userID, AmountNano: amountNano, WalletAddress: address}
	err = pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if err := s.withdrawals.CreateTx(ctx, tx, w); err != nil {
			return err
		}
		wRef := w.ID
		_, err := s.ledger.DebitTx(ctx, tx, userID, amountNano,
			domain.TxWithdrawal, "withdrawal", &wRef, "Withdrawal request")
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("withdrawal requested", "withdrawal_id", w.ID, "user_id", userID, "amount_nano", amountNano)
	return w, nil
}

// Approve finalizes a payout. When a tx hash is supplied and a verifier
// is configured, the on-chain transfer is checked first; verification
// failure leaves the withdrawal PENDING/PROCESSING for the admin to
// retry. No balance change: the escrow already happened.
func (s *WithdrawalService) Approve(ctx context.Context, withdrawalID int64, txHash string) error {
	w, err := s.withdrawals.GetByID(ctx, withdrawalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrWithdrawalNotFound
		}
		return err
	}

	if s.verifier != nil && txHash != "" {
		if err := s.verifier.VerifyTransaction(ctx, txHash, w.AmountNano, w.WalletAddress); err != nil {
			return err
		}
	}

	err = pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return s.withdrawals.CompleteTx(ctx, tx, withdrawalID, txHash)
	})
	if err != nil {
		return err
	}

	if s.notifier != nil {
		if user, err := s.users.GetByID(ctx, w.UserID); err == nil {
			s.notifier.WithdrawalCompleted(user.TgID, w.AmountNano)
		}
	}
	logger.Info("withdrawal completed", "withdrawal_id", withdrawalID, "tx_hash", txHash)
	return nil
}

// MarkProcessing claims a pending withdrawal for manual payout so two
// admins cannot pay the same request twice.
func (s *WithdrawalService) MarkProcessing(ctx context.Context, withdrawalID int64) error {
	if err := s.withdrawals.MarkProcessing(ctx, withdrawalID); err != nil {
		return err
	}
	logger.Info("withdrawal processing", "withdrawal_id", withdrawalID)
	return nil
}

// Reject refunds the escrow. Status flip and refund credit are one
// atomic unit so an interrupted reject can never eat the funds.
func (s *WithdrawalService) Reject(ctx context.Context, withdrawalID int64, notes string) error {
	return s.finalizeWithRefund(ctx, withdrawalID, domain.WithdrawalRejected, notes)
}

// Fail marks a payout attempt failed and refunds, same unit as Reject.
func (s *WithdrawalService) Fail(ctx context.Context, withdrawalID int64, notes string) error {
	return s.finalizeWithRefund(ctx, withdrawalID, domain.WithdrawalFailed, notes)
}

func (s *WithdrawalService) finalizeWithRefund(ctx context.Context, withdrawalID int64, to domain.WithdrawalStatus, notes string) error {
	w, err := s.withdrawals.GetByID(ctx, withdrawalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrWithdrawalNotFound
		}
		return err
	}

	err = pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if err := s.withdrawals.FinalizeTx(ctx, tx, withdrawalID, to, notes); err != nil {
			return err
		}
		wRef := w.ID
		_, err := s.ledger.CreditTx(ctx, tx, w.UserID, w.AmountNano,
			domain.TxAdjustment, "withdrawal", &wRef, "Withdrawal refund")
		return err
	})
	if err != nil {
		return err
	}

	if s.notifier != nil {
		if user, err := s.users.GetByID(ctx, w.UserID); err == nil {
			s.notifier.WithdrawalRejected(user.TgID, w.AmountNano)
		}
	}
	logger.Info("withdrawal refunded", "withdrawal_id", withdrawalID, "status", to)
	return nil
}

func (s *WithdrawalService) ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.Withdrawal, error) {
	return s.withdrawals.ListByUser(ctx, userID, limit)
}

func (s *WithdrawalService) ListPending(ctx context.Context, limit int) ([]*domain.Withdrawal, error) {
	return s.withdrawals.ListByStatus(ctx, domain.WithdrawalPending, limit)
}
