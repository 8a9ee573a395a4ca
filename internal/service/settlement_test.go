package service

import (
	"testing"

	"offerwall/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestTierCommissionRates(t *testing.T) {
	base := int64(10 * domain.NanoPerTON)

	assert.Equal(t, int64(1*domain.NanoPerTON), TierCommission(base, 1))
	assert.Equal(t, int64(0.3*1e9), TierCommission(base, 2))
	assert.Equal(t, int64(0.1*1e9), TierCommission(base, 3))
}

func TestTierCommissionFloors(t *testing.T) {
	// 99 nano at 10% floors to 9, never rounds to 10.
	assert.Equal(t, int64(9), TierCommission(99, 1))
	assert.Equal(t, int64(2), TierCommission(99, 2))
	assert.Equal(t, int64(0), TierCommission(99, 3))
}

func TestTierCommissionNeverExceedsNominalRate(t *testing.T) {
	for _, base := range []int64{1, 7, 99, 1001, 123456789, domain.NanoPerTON} {
		for tier := 1; tier <= 3; tier++ {
			c := TierCommission(base, tier)
			bps := []int64{1000, 300, 100}[tier-1]
			// floor(base*r) <= base*r exactly
			assert.LessOrEqual(t, c*10000, base*bps)
			assert.Greater(t, (c+1)*10000, base*bps)
		}
	}
}

func TestTierCommissionZeroSkips(t *testing.T) {
	// Bases too small for a tier produce 0, which callers skip entirely.
	assert.Equal(t, int64(0), TierCommission(9, 1))
	assert.Equal(t, int64(0), TierCommission(0, 1))
	assert.Equal(t, int64(0), TierCommission(-100, 1))
}

func TestTierCommissionInvalidTier(t *testing.T) {
	assert.Equal(t, int64(0), TierCommission(1000, 0))
	assert.Equal(t, int64(0), TierCommission(1000, 4))
}

func TestTierRatesDoNotCompound(t *testing.T) {
	// Tier 2 is 3% of the base, not 3% of tier 1's commission.
	base := int64(100 * domain.NanoPerTON)
	assert.Equal(t, base*3/100, TierCommission(base, 2))
	assert.NotEqual(t, TierCommission(TierCommission(base, 1), 2), TierCommission(base, 2))
}
