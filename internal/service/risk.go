package service

import (
	"context"

	"offerwall/internal/domain"
	"offerwall/internal/fraud"
	"offerwall/internal/logger"
	"offerwall/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RiskAssessment is one live evaluation: the fresh signals, the smoothed
// stored score, and the level derived from the smoothed score.
type RiskAssessment struct {
	Score   int
	Level   fraud.Level
	Fresh   int
	Signals *fraud.Signals
}

// RiskService runs the collector and scorer, persists the smoothed
// score, and raises alerts for HIGH and above. The stored score is the
// authoritative one; process memory holds nothing.
type RiskService struct {
	collector *fraud.Collector
	users     *repository.UserRepository
	alerts    *repository.FraudAlertRepository
	devices   *repository.DeviceRepository
}

func NewRiskService(db *pgxpool.Pool, collector *fraud.Collector) *RiskService {
	return &RiskService{
		collector: collector,
		users:     repository.NewUserRepository(db),
		alerts:    repository.NewFraudAlertRepository(db),
		devices:   repository.NewDeviceRepository(db),
	}
}

// Evaluate computes fresh signals, folds them into the stored score and
// returns the assessment. Any history-read failure propagates; the
// caller chooses fail-open or fail-closed.
func (s *RiskService) Evaluate(ctx context.Context, userID int64, req fraud.RequestContext) (*RiskAssessment, error) {
	signals, err := s.collector.Collect(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	stored, err := s.users.GetRiskScore(ctx, userID)
	if err != nil {
		return nil, err
	}

	freshScore := fraud.Score(signals)
	smoothed := fraud.Smooth(stored, freshScore)
	if smoothed != stored {
		if err := s.users.UpdateRiskScore(ctx, userID, smoothed); err != nil {
			return nil, err
		}
	}

	level := fraud.LevelFor(smoothed)
	if level == fraud.LevelHigh || level == fraud.LevelCritical {
		s.raiseAlert(ctx, userID, smoothed, signals)
	}

	// Record the device observation after scoring so the current request
	// does not count against itself.
	if req.FingerprintHash != "" {
		if err := s.devices.Record(ctx, &domain.DeviceSession{
			UserID:          userID,
			FingerprintHash: req.FingerprintHash,
			IP:              req.IP,
		}); err != nil {
			logger.Warn("device session record failed", "user_id", userID, "error", err)
		}
	}

	return &RiskAssessment{Score: smoothed, Level: level, Fresh: freshScore, Signals: signals}, nil
}

// raiseAlert is advisory; failures are logged and dropped.
func (s *RiskService) raiseAlert(ctx context.Context, userID int64, score int, signals *fraud.Signals) {
	alertType := "HIGH_RISK_SCORE"
	if len(signals.Flags) > 0 {
		alertType = signals.Flags[0]
	}
	err := s.alerts.Create(ctx, &domain.FraudAlert{
		UserID:    userID,
		AlertType: alertType,
		RiskScore: score,
		Flags:     signals.Flags,
	})
	if err != nil {
		logger.Warn("fraud alert create failed", "user_id", userID, "error", err)
	} else {
		logger.Warn("high fraud risk detected", "user_id", userID, "risk_score", score, "flags", signals.Flags)
	}
}
