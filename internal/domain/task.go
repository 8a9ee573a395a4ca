package domain

import "time"

type TaskStatus string

const (
	TaskStarted  TaskStatus = "STARTED"
	TaskPending  TaskStatus = "PENDING"
	TaskApproved TaskStatus = "APPROVED"
	TaskRejected TaskStatus = "REJECTED"
)

// Terminal reports whether the status can never change again.
func (s TaskStatus) Terminal() bool {
	return s == TaskApproved || s == TaskRejected
}

// Task is one attempt by one user at one offer. PayoutNano is frozen at
// start time so later offer edits never change what is owed.
type Task struct {
	ID                 int64             `db:"id" json:"id"`
	UserID             int64             `db:"user_id" json:"user_id"`
	OfferID            int64             `db:"offer_id" json:"offer_id"`
	SessionToken       string            `db:"session_token" json:"session_token"`
	Status             TaskStatus        `db:"status" json:"status"`
	PayoutNano         int64             `db:"payout_nano" json:"payout_nano"`
	PostbackPayload    map[string]string `db:"postback_payload" json:"-"`
	PostbackReceivedAt *time.Time        `db:"postback_received_at" json:"postback_received_at,omitempty"`
	StartedAt          time.Time         `db:"started_at" json:"started_at"`
	CompletedAt        *time.Time        `db:"completed_at" json:"completed_at,omitempty"`
	ApprovedAt         *time.Time        `db:"approved_at" json:"approved_at,omitempty"`
}
