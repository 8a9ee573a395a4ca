package repository

import (
	"context"

	"offerwall/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReferralEarningRepository struct {
	db *pgxpool.Pool
}

func NewReferralEarningRepository(db *pgxpool.Pool) *ReferralEarningRepository {
	return &ReferralEarningRepository{db: db}
}

// InsertTx records one tier commission inside the caller's transaction.
// The (task_id, tier) unique constraint makes re-delivered postbacks
// no-ops: returns false when the commission was already recorded.
func (r *ReferralEarningRepository) InsertTx(ctx context.Context, tx pgx.Tx, e *domain.ReferralEarning) (bool, error) {
	err := tx.QueryRow(ctx, `
		INSERT INTO referral_earnings (referrer_id, referred_id, tier, task_id, amount_nano)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (task_id, tier) DO NOTHING
		RETURNING id, created_at
	`, e.ReferrerID, e.ReferredID, e.Tier, e.TaskID, e.AmountNano).Scan(&e.ID, &e.CreatedAt)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *ReferralEarningRepository) ListByReferrer(ctx context.Context, referrerID int64, limit int) ([]*domain.ReferralEarning, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, referrer_id, referred_id, tier, task_id, amount_nano, created_at
		FROM referral_earnings WHERE referrer_id = $1 ORDER BY id DESC LIMIT $2
	`, referrerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var earnings []*domain.ReferralEarning
	for rows.Next() {
		var e domain.ReferralEarning
		if err := rows.Scan(&e.ID, &e.ReferrerID, &e.ReferredID, &e.Tier, &e.TaskID, &e.AmountNano, &e.CreatedAt); err != nil {
			return nil, err
		}
		earnings = append(earnings, &e)
	}
	return earnings, rows.Err()
}

// Stats aggregates a referrer's total commissions and per-tier totals.
func (r *ReferralEarningRepository) Stats(ctx context.Context, referrerID int64) (*domain.ReferralStats, error) {
	stats := &domain.ReferralStats{}
	rows, err := r.db.Query(ctx, `
		SELECT tier, COALESCE(SUM(amount_nano), 0), COUNT(*)
		FROM referral_earnings WHERE referrer_id = $1 GROUP BY tier
	`, referrerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var tier, count int
		var sum int64
		if err := rows.Scan(&tier, &sum, &count); err != nil {
			return nil, err
		}
		stats.TotalEarnedNano += sum
		switch tier {
		case 1:
			stats.Tier1EarnedNano, stats.Tier1Count = sum, count
		case 2:
			stats.Tier2EarnedNano, stats.Tier2Count = sum, count
		case 3:
			stats.Tier3EarnedNano, stats.Tier3Count = sum, count
		}
	}
	return stats, rows.Err()
}
