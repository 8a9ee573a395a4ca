package domain

import "time"

type FraudAlertStatus string

const (
	AlertOpen          FraudAlertStatus = "OPEN"
	AlertInvestigating FraudAlertStatus = "INVESTIGATING"
	AlertResolved      FraudAlertStatus = "RESOLVED"
	AlertDismissed     FraudAlertStatus = "DISMISSED"
)

// FraudAlert is advisory only: it never gates money movement itself, the
// live risk check does.
type FraudAlert struct {
	ID         int64            `db:"id" json:"id"`
	UserID     int64            `db:"user_id" json:"user_id"`
	AlertType  string           `db:"alert_type" json:"alert_type"`
	RiskScore  int              `db:"risk_score" json:"risk_score"`
	Flags      []string         `db:"flags" json:"flags"`
	Status     FraudAlertStatus `db:"status" json:"status"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	ResolvedAt *time.Time       `db:"resolved_at" json:"resolved_at,omitempty"`
}

// DeviceSession is one observation of a (user, fingerprint, IP) triple.
type DeviceSession struct {
	ID              int64     `db:"id" json:"id"`
	UserID          int64     `db:"user_id" json:"user_id"`
	FingerprintHash string    `db:"fingerprint_hash" json:"fingerprint_hash"`
	IP              string    `db:"ip" json:"ip"`
	SeenAt          time.Time `db:"seen_at" json:"seen_at"`
}
