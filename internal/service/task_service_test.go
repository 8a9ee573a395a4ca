package service

import (
	"testing"
	"time"

	"offerwall/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestEligibleCountryTargeting(t *testing.T) {
	now := time.Now()
	user := &domain.User{CountryCode: "US", CreatedAt: now.Add(-100 * time.Hour)}

	open := &domain.Offer{}
	assert.True(t, eligible(user, open, now))

	match := &domain.Offer{Countries: []string{"US", "CA"}}
	assert.True(t, eligible(user, match, now))

	miss := &domain.Offer{Countries: []string{"DE", "FR"}}
	assert.False(t, eligible(user, miss, now))

	// Unknown user country is not excluded by geo targeting.
	unknown := &domain.User{CountryCode: "", CreatedAt: now.Add(-100 * time.Hour)}
	assert.True(t, eligible(unknown, miss, now))
}

func TestEligiblePremium(t *testing.T) {
	now := time.Now()
	offer := &domain.Offer{PremiumRequired: true}

	free := &domain.User{CreatedAt: now.Add(-time.Hour)}
	assert.False(t, eligible(free, offer, now))

	premium := &domain.User{IsPremium: true, CreatedAt: now.Add(-time.Hour)}
	assert.True(t, eligible(premium, offer, now))
}

func TestEligibleAccountAge(t *testing.T) {
	now := time.Now()
	offer := &domain.Offer{MinAccountAgeHours: 48}

	young := &domain.User{CreatedAt: now.Add(-time.Hour)}
	assert.False(t, eligible(young, offer, now))

	old := &domain.User{CreatedAt: now.Add(-49 * time.Hour)}
	assert.True(t, eligible(old, offer, now))
}
