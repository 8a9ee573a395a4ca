package repository

import (
	"context"
	"time"

	"offerwall/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TransactionRepository struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// CreateTx appends a ledger entry inside the caller's transaction. The
// balance_after_nano snapshot must come from the balance update executed
// in the same transaction.
func (r *TransactionRepository) CreateTx(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	return tx.QueryRow(ctx, `
		INSERT INTO transactions (user_id, type, amount_nano, balance_after_nano, reference_type, reference_id, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, t.UserID, t.Type, t.AmountNano, t.BalanceAfterNano, t.ReferenceType, t.ReferenceID, t.Description).
		Scan(&t.ID, &t.CreatedAt)
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, type, amount_nano, balance_after_nano, reference_type, reference_id, description, created_at
		FROM transactions WHERE user_id = $1 ORDER BY id DESC LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.AmountNano, &t.BalanceAfterNano,
			&t.ReferenceType, &t.ReferenceID, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, &t)
	}
	return txs, rows.Err()
}

// SumByTypeSince totals the absolute amounts of one ledger entry type in
// a trailing window. The withdrawal daily cap reads WITHDRAWAL rows
// through this, so the cap counts what actually left the balance.
func (r *TransactionRepository) SumByTypeSince(ctx context.Context, userID int64, typ domain.TransactionType, since time.Time) (int64, error) {
	var sum int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(ABS(amount_nano)), 0) FROM transactions
		WHERE user_id = $1 AND type = $2 AND created_at >= $3
	`, userID, typ, since).Scan(&sum)
	return sum, err
}
