package repository

import (
	"context"

	"offerwall/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OfferRepository struct {
	db *pgxpool.Pool
}

func NewOfferRepository(db *pgxpool.Pool) *OfferRepository {
	return &OfferRepository{db: db}
}

const offerColumns = `id, provider, external_id, name, description, category,
	payout_nano, network_payout_cents, countries, devices, min_account_age_hours,
	premium_required, tracking_url, is_active, created_at, updated_at`

func scanOffer(row pgx.Row) (*domain.Offer, error) {
	var o domain.Offer
	err := row.Scan(&o.ID, &o.Provider, &o.ExternalID, &o.Name, &o.Description, &o.Category,
		&o.PayoutNano, &o.NetworkPayoutCents, &o.Countries, &o.Devices, &o.MinAccountAgeHours,
		&o.PremiumRequired, &o.TrackingURL, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OfferRepository) GetByID(ctx context.Context, id int64) (*domain.Offer, error) {
	return scanOffer(r.db.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id))
}

// Upsert inserts or refreshes an offer keyed by (provider, external_id).
// The returned flag is true when a new row was created; xmax = 0 only
// holds for freshly inserted tuples.
func (r *OfferRepository) Upsert(ctx context.Context, o *domain.Offer) (created bool, err error) {
	err = r.db.QueryRow(ctx, `
		INSERT INTO offers (provider, external_id, name, description, category,
			payout_nano, network_payout_cents, countries, devices, min_account_age_hours,
			premium_required, tracking_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (provider, external_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			payout_nano = EXCLUDED.payout_nano,
			network_payout_cents = EXCLUDED.network_payout_cents,
			countries = EXCLUDED.countries,
			devices = EXCLUDED.devices,
			min_account_age_hours = EXCLUDED.min_account_age_hours,
			premium_required = EXCLUDED.premium_required,
			tracking_url = EXCLUDED.tracking_url,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
		RETURNING id, (xmax = 0)
	`, o.Provider, o.ExternalID, o.Name, o.Description, o.Category,
		o.PayoutNano, o.NetworkPayoutCents, o.Countries, o.Devices, o.MinAccountAgeHours,
		o.PremiumRequired, o.TrackingURL, o.IsActive).Scan(&o.ID, &created)
	return created, err
}

func (r *OfferRepository) ListActive(ctx context.Context, limit int) ([]*domain.Offer, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+offerColumns+` FROM offers
		WHERE is_active ORDER BY payout_nano DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []*domain.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

// DeactivateMissing disables offers of a provider that were not part of
// the latest sync batch.
func (r *OfferRepository) DeactivateMissing(ctx context.Context, provider string, seenExternalIDs []string) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE offers SET is_active = FALSE, updated_at = NOW()
		WHERE provider = $1 AND is_active AND NOT (external_id = ANY($2))
	`, provider, seenExternalIDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *OfferRepository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE offers SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
