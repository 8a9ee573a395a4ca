package domain

import "time"

type TransactionType string

const (
	TxTaskReward    TransactionType = "TASK_REWARD"
	TxReferralBonus TransactionType = "REFERRAL_BONUS"
	TxWithdrawal    TransactionType = "WITHDRAWAL"
	TxDailyBonus    TransactionType = "DAILY_BONUS"
	TxAdjustment    TransactionType = "ADJUSTMENT"
)

// Transaction is an immutable ledger entry. AmountNano is signed;
// BalanceAfterNano snapshots the balance that resulted from applying it.
// Rows are never updated or deleted.
type Transaction struct {
	ID               int64           `db:"id" json:"id"`
	UserID           int64           `db:"user_id" json:"user_id"`
	Type             TransactionType `db:"type" json:"type"`
	AmountNano       int64           `db:"amount_nano" json:"amount_nano"`
	BalanceAfterNano int64           `db:"balance_after_nano" json:"balance_after_nano"`
	ReferenceType    string          `db:"reference_type" json:"reference_type,omitempty"`
	ReferenceID      *int64          `db:"reference_id" json:"reference_id,omitempty"`
	Description      string          `db:"description" json:"description,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}
