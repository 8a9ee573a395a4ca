package domain

import "time"

type UserStatus string

const (
	UserActive    UserStatus = "ACTIVE"
	UserSuspended UserStatus = "SUSPENDED"
	UserBanned    UserStatus = "BANNED"
)

type User struct {
	ID              int64      `db:"id" json:"id"`
	TgID            int64      `db:"tg_id" json:"tg_id"`
	Username        string     `db:"username" json:"username"`
	FirstName       string     `db:"first_name" json:"first_name"`
	IsPremium       bool       `db:"is_premium" json:"is_premium"`
	CountryCode     string     `db:"country_code" json:"country_code"`
	BalanceNano     int64      `db:"balance_nano" json:"balance_nano"`
	TotalEarnedNano int64      `db:"total_earned_nano" json:"total_earned_nano"`
	RiskScore       int        `db:"risk_score" json:"-"`
	Status          UserStatus `db:"status" json:"status"`
	ReferredBy      *int64     `db:"referred_by" json:"referred_by,omitempty"`
	ReferralCode    string     `db:"referral_code" json:"referral_code"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}
