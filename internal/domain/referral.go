package domain

import "time"

// ReferralEarning records a single commission payment. The (TaskID, Tier)
// pair is unique at the store level; re-processing a task cannot create a
// second row for the same tier.
type ReferralEarning struct {
	ID         int64     `db:"id" json:"id"`
	ReferrerID int64     `db:"referrer_id" json:"referrer_id"`
	ReferredID int64     `db:"referred_id" json:"referred_id"`
	Tier       int       `db:"tier" json:"tier"`
	TaskID     int64     `db:"task_id" json:"task_id"`
	AmountNano int64     `db:"amount_nano" json:"amount_nano"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type ReferralStats struct {
	ReferralCode    string `json:"referral_code"`
	ReferralLink    string `json:"referral_link"`
	TotalReferrals  int    `json:"total_referrals"`
	TotalEarnedNano int64  `json:"total_earned_nano"`
	Tier1EarnedNano int64  `json:"tier1_earned_nano"`
	Tier2EarnedNano int64  `json:"tier2_earned_nano"`
	Tier3EarnedNano int64  `json:"tier3_earned_nano"`
	Tier1Count      int    `json:"tier1_count"`
	Tier2Count      int    `json:"tier2_count"`
	Tier3Count      int    `json:"tier3_count"`
}
