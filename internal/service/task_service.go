package service

import (
	"context"
	"errors"
	"time"

	"offerwall/internal/cpa"
	"offerwall/internal/domain"
	"offerwall/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrOfferNotFound      = errors.New("offer not found")
	ErrOfferInactive      = errors.New("offer is not active")
	ErrOfferNotEligible   = errors.New("offer targeting requirements not met")
	ErrTaskAlreadyStarted = errors.New("task already in progress for this offer")
	ErrUserNotActive      = errors.New("user is not active")
)

// StartedTask is what the client needs to begin an offer: the task and
// the network URL to open.
type StartedTask struct {
	Task        *domain.Task `json:"task"`
	TrackingURL string       `json:"tracking_url"`
}

// TaskService creates and lists task attempts. Payout is frozen into the
// task at start so later offer edits never change what is owed.
type TaskService struct {
	offers    *repository.OfferRepository
	tasks     *repository.TaskRepository
	users     *repository.UserRepository
	providers *cpa.Registry
}

func NewTaskService(db *pgxpool.Pool, providers *cpa.Registry) *TaskService {
	return &TaskService{
		offers:    repository.NewOfferRepository(db),
		tasks:     repository.NewTaskRepository(db),
		users:     repository.NewUserRepository(db),
		providers: providers,
	}
}

// Start begins an offer attempt. The one-open-task rule is enforced by
// the store's unique index, not the eligibility pre-checks.
func (s *TaskService) Start(ctx context.Context, userID, offerID int64) (*StartedTask, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Status != domain.UserActive {
		return nil, ErrUserNotActive
	}

	offer, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	if !offer.IsActive {
		return nil, ErrOfferInactive
	}
	if !eligible(user, offer, time.Now()) {
		return nil, ErrOfferNotEligible
	}

	task := &domain.Task{
		UserID:       userID,
		OfferID:      offerID,
		SessionToken: uuid.NewString(),
		PayoutNano:   offer.PayoutNano,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		if errors.Is(err, repository.ErrOpenTaskExists) {
			return nil, ErrTaskAlreadyStarted
		}
		return nil, err
	}

	trackingURL := offer.TrackingURL
	if provider, err := s.providers.Get(offer.Provider); err == nil {
		trackingURL = provider.TrackingURL(offer.ExternalID, task.SessionToken, userID)
	}

	return &StartedTask{Task: task, TrackingURL: trackingURL}, nil
}

// eligible applies offer targeting: country, premium and account age.
// Device targeting is left to the client which knows its platform.
func eligible(user *domain.User, offer *domain.Offer, now time.Time) bool {
	if len(offer.Countries) > 0 && user.CountryCode != "" {
		found := false
		for _, c := range offer.Countries {
			if c == user.CountryCode {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if offer.PremiumRequired && !user.IsPremium {
		return false
	}
	if offer.MinAccountAgeHours > 0 {
		age := now.Sub(user.CreatedAt)
		if age < time.Duration(offer.MinAccountAgeHours)*time.Hour {
			return false
		}
	}
	return true
}

func (s *TaskService) ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.Task, error) {
	return s.tasks.ListByUser(ctx, userID, limit)
}
