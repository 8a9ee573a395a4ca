package service

import (
	"context"
	"time"

	"offerwall/internal/cpa"
	"offerwall/internal/domain"
	"offerwall/internal/logger"
	"offerwall/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
)

// OfferSyncService pulls offer feeds from every configured network on a
// cron schedule and mirrors them into the offers table. User payouts are
// converted to nano at sync time and frozen into tasks at start time, so
// a rate change mid-flight never alters owed amounts.
type OfferSyncService struct {
	offers     *repository.OfferRepository
	providers  *cpa.Registry
	tonUSDRate float64
	cron       *cron.Cron
}

func NewOfferSyncService(db *pgxpool.Pool, providers *cpa.Registry, tonUSDRate float64) *OfferSyncService {
	return &OfferSyncService{
		offers:     repository.NewOfferRepository(db),
		providers:  providers,
		tonUSDRate: tonUSDRate,
	}
}

// Start schedules periodic syncs and runs one immediately.
func (s *OfferSyncService) Start(spec string) error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		s.SyncAll(ctx)
	}); err != nil {
		return err
	}
	s.cron.Start()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		s.SyncAll(ctx)
	}()
	return nil
}

func (s *OfferSyncService) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// SyncAll syncs every configured provider. One broken network never
// stops the others.
func (s *OfferSyncService) SyncAll(ctx context.Context) {
	for _, provider := range s.providers.All() {
		created, updated, deactivated, err := s.syncProvider(ctx, provider)
		if err != nil {
			logger.Error("offer sync failed", "provider", provider.Name(), "error", err)
			continue
		}
		logger.Info("offer sync completed",
			"provider", provider.Name(),
			"created", created, "updated", updated, "deactivated", deactivated)
	}
}

func (s *OfferSyncService) syncProvider(ctx context.Context, provider cpa.Provider) (created, updated int, deactivated int64, err error) {
	feed, err := provider.FetchOffers(ctx)
	if err != nil {
		return 0, 0, 0, err
	}

	seen := make([]string, 0, len(feed))
	for _, raw := range feed {
		payoutNano := domain.USDCentsToNano(raw.UserPayoutCents, s.tonUSDRate)
		if payoutNano <= 0 {
			continue
		}
		offer := &domain.Offer{
			Provider:           provider.Name(),
			ExternalID:         raw.ExternalID,
			Name:               raw.Name,
			Description:        raw.Description,
			Category:           raw.Category,
			PayoutNano:         payoutNano,
			NetworkPayoutCents: raw.NetworkPayoutCents,
			Countries:          raw.Countries,
			Devices:            raw.Devices,
			TrackingURL:        raw.TrackingURL,
			IsActive:           raw.IsActive,
		}
		isNew, err := s.offers.Upsert(ctx, offer)
		if err != nil {
			return created, updated, 0, err
		}
		if isNew {
			created++
		} else {
			updated++
		}
		seen = append(seen, raw.ExternalID)
	}

	if len(seen) > 0 {
		deactivated, err = s.offers.DeactivateMissing(ctx, provider.Name(), seen)
		if err != nil {
			return created, updated, 0, err
		}
	}
	return created, updated, deactivated, nil
}
