package domain

import "time"

// Offer is one task definition synced from a CPA network. PayoutNano is
// what the user earns; NetworkPayoutCents is what the network owes us.
// The difference is the platform margin.
type Offer struct {
	ID                 int64     `db:"id" json:"id"`
	Provider           string    `db:"provider" json:"provider"`
	ExternalID         string    `db:"external_id" json:"external_id"`
	Name               string    `db:"name" json:"name"`
	Description        string    `db:"description" json:"description"`
	Category           string    `db:"category" json:"category"`
	PayoutNano         int64     `db:"payout_nano" json:"payout_nano"`
	NetworkPayoutCents int64     `db:"network_payout_cents" json:"-"`
	Countries          []string  `db:"countries" json:"countries"`
	Devices            []string  `db:"devices" json:"devices"`
	MinAccountAgeHours int       `db:"min_account_age_hours" json:"min_account_age_hours"`
	PremiumRequired    bool      `db:"premium_required" json:"premium_required"`
	TrackingURL        string    `db:"tracking_url" json:"-"`
	IsActive           bool      `db:"is_active" json:"is_active"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}
