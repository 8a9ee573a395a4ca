package service

import (
	"context"
	"errors"

	"offerwall/internal/domain"
	"offerwall/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidAmount       = errors.New("invalid amount")
)

// LedgerService owns every balance mutation. A mutation is one atomic
// unit: conditional balance update plus an appended transaction row
// carrying the resulting balance snapshot. Nothing else in the codebase
// writes balance_nano.
type LedgerService struct {
	db  *pgxpool.Pool
	txs *repository.TransactionRepository
}

func NewLedgerService(db *pgxpool.Pool) *LedgerService {
	return &LedgerService{db: db, txs: repository.NewTransactionRepository(db)}
}

// earning types count toward lifetime earnings; withdrawals and negative
// adjustments do not.
func isEarningType(t domain.TransactionType) bool {
	switch t {
	case domain.TxTaskReward, domain.TxReferralBonus, domain.TxDailyBonus:
		return true
	}
	return false
}

// Credit adds amount to a user's balance in its own transaction.
func (s *LedgerService) Credit(ctx context.Context, userID, amount int64, typ domain.TransactionType, refType string, refID *int64, desc string) (*domain.Transaction, error) {
	var out *domain.Transaction
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		t, err := s.CreditTx(ctx, tx, userID, amount, typ, refType, refID, desc)
		if err != nil {
			return err
		}
		out = t
		return nil
	})
	return out, err
}

// CreditTx credits inside the caller's transaction.
func (s *LedgerService) CreditTx(ctx context.Context, tx pgx.Tx, userID, amount int64, typ domain.TransactionType, refType string, refID *int64, desc string) (*domain.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var newBalance int64
	earned := int64(0)
	if isEarningType(typ) {
		earned = amount
	}
	err := tx.QueryRow(ctx, `
		UPDATE users SET balance_nano = balance_nano + $1,
			total_earned_nano = total_earned_nano + $2
		WHERE id = $3
		RETURNING balance_nano
	`, amount, earned, userID).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	t := &domain.Transaction{
		UserID:           userID,
		Type:             typ,
		AmountNano:       amount,
		BalanceAfterNano: newBalance,
		ReferenceType:    refType,
		ReferenceID:      refID,
		Description:      desc,
	}
	if err := s.txs.CreateTx(ctx, tx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Debit removes amount from a user's balance in its own transaction.
// Fails closed: nothing changes when the balance cannot cover it.
func (s *LedgerService) Debit(ctx context.Context, userID, amount int64, typ domain.TransactionType, refType string, refID *int64, desc string) (*domain.Transaction, error) {
	var out *domain.Transaction
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		t, err := s.DebitTx(ctx, tx, userID, amount, typ, refType, refID, desc)
		if err != nil {
			return err
		}
		out = t
		return nil
	})
	return out, err
}

// DebitTx debits inside the caller's transaction. The balance check is
// part of the UPDATE predicate so racing debits cannot both pass it.
func (s *LedgerService) DebitTx(ctx context.Context, tx pgx.Tx, userID, amount int64, typ domain.TransactionType, refType string, refID *int64, desc string) (*domain.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var newBalance int64
	err := tx.QueryRow(ctx, `
		UPDATE users SET balance_nano = balance_nano - $1
		WHERE id = $2 AND balance_nano >= $1
		RETURNING balance_nano
	`, amount, userID).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Distinguish a missing user from a short balance.
			var exists bool
			if probeErr := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); probeErr != nil {
				return nil, probeErr
			}
			if !exists {
				return nil, ErrUserNotFound
			}
			return nil, ErrInsufficientBalance
		}
		return nil, err
	}

	t := &domain.Transaction{
		UserID:           userID,
		Type:             typ,
		AmountNano:       -amount,
		BalanceAfterNano: newBalance,
		ReferenceType:    refType,
		ReferenceID:      refID,
		Description:      desc,
	}
	if err := s.txs.CreateTx(ctx, tx, t); err != nil {
		return nil, err
	}
	return t, nil
}
