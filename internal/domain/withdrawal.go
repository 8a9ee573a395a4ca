package domain

import "time"

type WithdrawalStatus string

const (
	WithdrawalPending    WithdrawalStatus = "PENDING"
	WithdrawalProcessing WithdrawalStatus = "PROCESSING"
	WithdrawalCompleted  WithdrawalStatus = "COMPLETED"
	WithdrawalRejected   WithdrawalStatus = "REJECTED"
	WithdrawalFailed     WithdrawalStatus = "FAILED"
)

// Terminal reports whether the status can never change again.
func (s WithdrawalStatus) Terminal() bool {
	return s == WithdrawalCompleted || s == WithdrawalRejected || s == WithdrawalFailed
}

// Withdrawal is a cash-out request. The amount is escrowed (debited) the
// moment the row is created and credited back only on REJECTED or FAILED.
type Withdrawal struct {
	ID            int64            `db:"id" json:"id"`
	UserID        int64            `db:"user_id" json:"user_id"`
	AmountNano    int64            `db:"amount_nano" json:"amount_nano"`
	WalletAddress string           `db:"wallet_address" json:"wallet_address"`
	Status        WithdrawalStatus `db:"status" json:"status"`
	TxHash        string           `db:"tx_hash" json:"tx_hash,omitempty"`
	AdminNotes    string           `db:"admin_notes" json:"admin_notes,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	ProcessedAt   *time.Time       `db:"processed_at" json:"processed_at,omitempty"`
}
