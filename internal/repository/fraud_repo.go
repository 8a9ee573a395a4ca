package repository

import (
	"context"

	"offerwall/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FraudAlertRepository struct {
	db *pgxpool.Pool
}

func NewFraudAlertRepository(db *pgxpool.Pool) *FraudAlertRepository {
	return &FraudAlertRepository{db: db}
}

func (r *FraudAlertRepository) Create(ctx context.Context, a *domain.FraudAlert) error {
	if a.Status == "" {
		a.Status = domain.AlertOpen
	}
	return r.db.QueryRow(ctx, `
		INSERT INTO fraud_alerts (user_id, alert_type, risk_score, flags, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, a.UserID, a.AlertType, a.RiskScore, a.Flags, a.Status).Scan(&a.ID, &a.CreatedAt)
}

func (r *FraudAlertRepository) ListByStatus(ctx context.Context, status domain.FraudAlertStatus, limit int) ([]*domain.FraudAlert, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, alert_type, risk_score, flags, status, created_at, resolved_at
		FROM fraud_alerts WHERE status = $1 ORDER BY created_at DESC LIMIT $2
	`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*domain.FraudAlert
	for rows.Next() {
		var a domain.FraudAlert
		if err := rows.Scan(&a.ID, &a.UserID, &a.AlertType, &a.RiskScore, &a.Flags, &a.Status, &a.CreatedAt, &a.ResolvedAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, &a)
	}
	return alerts, rows.Err()
}

// UpdateStatus moves an alert through its review lifecycle. Terminal
// states set resolved_at.
func (r *FraudAlertRepository) UpdateStatus(ctx context.Context, id int64, to domain.FraudAlertStatus) error {
	terminal := to == domain.AlertResolved || to == domain.AlertDismissed
	tag, err := r.db.Exec(ctx, `
		UPDATE fraud_alerts SET status = $2,
			resolved_at = CASE WHEN $3 THEN NOW() ELSE resolved_at END
		WHERE id = $1 AND status NOT IN ('RESOLVED', 'DISMISSED')
	`, id, to, terminal)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
