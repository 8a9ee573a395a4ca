package repository

import (
	"context"
	"time"

	"offerwall/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DeviceRepository struct {
	db *pgxpool.Pool
}

func NewDeviceRepository(db *pgxpool.Pool) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Record stores one device observation. Called on every authenticated
// request that carries a fingerprint header.
func (r *DeviceRepository) Record(ctx context.Context, s *domain.DeviceSession) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO device_sessions (user_id, fingerprint_hash, ip)
		VALUES ($1, $2, $3)
		RETURNING id, seen_at
	`, s.UserID, s.FingerprintHash, s.IP).Scan(&s.ID, &s.SeenAt)
}

// Fingerprints returns the distinct fingerprints ever seen for a user.
func (r *DeviceRepository) Fingerprints(ctx context.Context, userID int64) ([]string, error) {
	return r.stringColumn(ctx, `
		SELECT DISTINCT fingerprint_hash FROM device_sessions WHERE user_id = $1
	`, userID)
}

// FingerprintsSince returns distinct fingerprints seen in a window.
func (r *DeviceRepository) FingerprintsSince(ctx context.Context, userID int64, since time.Time) ([]string, error) {
	return r.stringColumn(ctx, `
		SELECT DISTINCT fingerprint_hash FROM device_sessions
		WHERE user_id = $1 AND seen_at >= $2
	`, userID, since)
}

// IPsSince returns distinct IPs seen in a window.
func (r *DeviceRepository) IPsSince(ctx context.Context, userID int64, since time.Time) ([]string, error) {
	return r.stringColumn(ctx, `
		SELECT DISTINCT ip FROM device_sessions
		WHERE user_id = $1 AND seen_at >= $2
	`, userID, since)
}

// Overlap reports whether two users ever shared a fingerprint or an IP.
// Self-referral detection leans on this.
func (r *DeviceRepository) Overlap(ctx context.Context, userA, userB int64) (bool, error) {
	var overlap bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM device_sessions a
			JOIN device_sessions b ON a.fingerprint_hash = b.fingerprint_hash OR a.ip = b.ip
			WHERE a.user_id = $1 AND b.user_id = $2
		)
	`, userA, userB).Scan(&overlap)
	return overlap, err
}

func (r *DeviceRepository) stringColumn(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
