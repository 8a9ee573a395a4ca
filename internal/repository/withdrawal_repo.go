package repository

import (
	"context"
	"errors"

	"offerwall/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrWithdrawalNotPending is returned when a finalize step loses the
// compare-and-swap race or the withdrawal is already terminal.
var ErrWithdrawalNotPending = errors.New("withdrawal is not pending")

type WithdrawalRepository struct {
	db *pgxpool.Pool
}

func NewWithdrawalRepository(db *pgxpool.Pool) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// tx_hash and admin_notes stay NULL until an admin touches the row, so
// they are coalesced here rather than carried as pointers everywhere.
const withdrawalColumns = `id, user_id, amount_nano, wallet_address, status, COALESCE(tx_hash, ''), COALESCE(admin_notes, ''), created_at, processed_at`

func scanWithdrawal(row pgx.Row) (*domain.Withdrawal, error) {
	var w domain.Withdrawal
	err := row.Scan(&w.ID, &w.UserID, &w.AmountNano, &w.WalletAddress, &w.Status,
		&w.TxHash, &w.AdminNotes, &w.CreatedAt, &w.ProcessedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// CreateTx inserts a PENDING withdrawal inside the escrow transaction.
func (r *WithdrawalRepository) CreateTx(ctx context.Context, tx pgx.Tx, w *domain.Withdrawal) error {
	w.Status = domain.WithdrawalPending
	return tx.QueryRow(ctx, `
		INSERT INTO withdrawals (user_id, amount_nano, wallet_address, status)
		VALUES ($1, $2, $3, 'PENDING')
		RETURNING id, created_at
	`, w.UserID, w.AmountNano, w.WalletAddress).Scan(&w.ID, &w.CreatedAt)
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	return scanWithdrawal(r.db.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id))
}

func (r *WithdrawalRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.Withdrawal, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawals
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ws []*domain.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		ws = append(ws, w)
	}
	return ws, rows.Err()
}

func (r *WithdrawalRepository) ListByStatus(ctx context.Context, status domain.WithdrawalStatus, limit int) ([]*domain.Withdrawal, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawals
		WHERE status = $1 ORDER BY created_at ASC LIMIT $2
	`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ws []*domain.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		ws = append(ws, w)
	}
	return ws, rows.Err()
}

func (r *WithdrawalRepository) CountPending(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM withdrawals
		WHERE user_id = $1 AND status IN ('PENDING', 'PROCESSING')
	`, userID).Scan(&n)
	return n, err
}

// MarkProcessing claims a pending withdrawal for payout.
func (r *WithdrawalRepository) MarkProcessing(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE withdrawals SET status = 'PROCESSING'
		WHERE id = $1 AND status = 'PENDING'
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWithdrawalNotPending
	}
	return nil
}

// CompleteTx finalizes a withdrawal with its on-chain hash.
func (r *WithdrawalRepository) CompleteTx(ctx context.Context, tx pgx.Tx, id int64, txHash string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE withdrawals SET status = 'COMPLETED', tx_hash = $2, processed_at = NOW()
		WHERE id = $1 AND status IN ('PENDING', 'PROCESSING')
	`, id, txHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWithdrawalNotPending
	}
	return nil
}

// FinalizeTx moves a withdrawal to REJECTED or FAILED inside the refund
// transaction.
func (r *WithdrawalRepository) FinalizeTx(ctx context.Context, tx pgx.Tx, id int64, to domain.WithdrawalStatus, notes string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE withdrawals SET status = $2, admin_notes = $3, processed_at = NOW()
		WHERE id = $1 AND status IN ('PENDING', 'PROCESSING')
	`, id, to, notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWithdrawalNotPending
	}
	return nil
}
