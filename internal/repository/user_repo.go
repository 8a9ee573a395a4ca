package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"offerwall/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrReferrerNotEligible is returned when a referrer assignment would
	// break the forest invariant (self-reference or a referrer created
	// after the referred user) or the referrer is already set.
	ErrReferrerNotEligible = errors.New("referrer not eligible")
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, tg_id, username, first_name, is_premium, country_code,
	balance_nano, total_earned_nano, risk_score, status, referred_by, referral_code, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var code *string
	err := row.Scan(&u.ID, &u.TgID, &u.Username, &u.FirstName, &u.IsPremium, &u.CountryCode,
		&u.BalanceNano, &u.TotalEarnedNano, &u.RiskScore, &u.Status, &u.ReferredBy, &code, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	if code != nil {
		u.ReferralCode = *code
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByTgID(ctx context.Context, tgID int64) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE tg_id = $1`, tgID))
}

func (r *UserRepository) GetByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE referral_code = $1`, code))
}

// GenerateReferralCode returns a random 12-hex-char code.
func GenerateReferralCode() string {
	bytes := make([]byte, 6)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// Create inserts a user on first platform contact. The referral code is
// assigned immediately so referral links work from the first session.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	if u.Status == "" {
		u.Status = domain.UserActive
	}
	if u.ReferralCode == "" {
		u.ReferralCode = GenerateReferralCode()
	}
	return r.db.QueryRow(ctx, `
		INSERT INTO users (tg_id, username, first_name, is_premium, country_code, status, referred_by, referral_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, u.TgID, u.Username, u.FirstName, u.IsPremium, u.CountryCode, u.Status, u.ReferredBy, u.ReferralCode).
		Scan(&u.ID, &u.CreatedAt)
}

// SetReferrer binds a referrer exactly once. The id comparison keeps the
// referral graph a forest: ids are allocated in creation order, so a
// referrer must have a smaller id than the user it referred.
func (r *UserRepository) SetReferrer(ctx context.Context, userID, referrerID int64) error {
	if referrerID >= userID {
		return ErrReferrerNotEligible
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET referred_by = $1
		WHERE id = $2 AND referred_by IS NULL
	`, referrerID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrReferrerNotEligible
	}
	return nil
}

// GetReferrerID returns the referrer of a user, ok=false when there is none.
func (r *UserRepository) GetReferrerID(ctx context.Context, userID int64) (int64, bool, error) {
	var referrerID *int64
	err := r.db.QueryRow(ctx, `SELECT referred_by FROM users WHERE id = $1`, userID).Scan(&referrerID)
	if err != nil {
		return 0, false, err
	}
	if referrerID == nil {
		return 0, false, nil
	}
	return *referrerID, true, nil
}

// ReferralJoinTimes returns creation times of a user's direct referrals,
// newest first.
func (r *UserRepository) ReferralJoinTimes(ctx context.Context, referrerID int64, limit int) ([]time.Time, error) {
	rows, err := r.db.Query(ctx, `
		SELECT created_at FROM users WHERE referred_by = $1
		ORDER BY created_at DESC LIMIT $2
	`, referrerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

func (r *UserRepository) CountReferrals(ctx context.Context, referrerID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE referred_by = $1`, referrerID).Scan(&n)
	return n, err
}

// GetRiskScore reads the stored (smoothed) risk score.
func (r *UserRepository) GetRiskScore(ctx context.Context, userID int64) (int, error) {
	var score int
	err := r.db.QueryRow(ctx, `SELECT risk_score FROM users WHERE id = $1`, userID).Scan(&score)
	return score, err
}

// UpdateRiskScore persists the smoothed score. The authoritative score
// lives in the database, never in process memory.
func (r *UserRepository) UpdateRiskScore(ctx context.Context, userID int64, score int) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET risk_score = $1 WHERE id = $2`, score, userID)
	return err
}

// SetStatus applies a status transition. Allowed moves are one-way
// (ACTIVE→SUSPENDED→BANNED) except the admin override SUSPENDED→ACTIVE.
func (r *UserRepository) SetStatus(ctx context.Context, userID int64, from, to domain.UserStatus) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET status = $1 WHERE id = $2 AND status = $3
	`, to, userID, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
