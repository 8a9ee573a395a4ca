package fraud

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecideGeneral(t *testing.T) {
	d := Decide(OpGeneral, LevelLow, nil)
	assert.True(t, d.Allow)
	assert.False(t, d.Flag)

	d = Decide(OpGeneral, LevelMedium, nil)
	assert.True(t, d.Allow)

	d = Decide(OpGeneral, LevelHigh, nil)
	assert.True(t, d.Allow)
	assert.True(t, d.Flag)

	d = Decide(OpGeneral, LevelCritical, nil)
	assert.False(t, d.Allow)
	assert.Equal(t, CodeFraudDetected, d.Code)
}

func TestDecideWithdrawalByLevel(t *testing.T) {
	assert.True(t, Decide(OpWithdrawal, LevelLow, nil).Allow)
	assert.True(t, Decide(OpWithdrawal, LevelMedium, nil).Allow)

	d := Decide(OpWithdrawal, LevelHigh, nil)
	assert.False(t, d.Allow)
	assert.Equal(t, CodeReviewRequired, d.Code)

	d = Decide(OpWithdrawal, LevelCritical, nil)
	assert.False(t, d.Allow)
	assert.Equal(t, CodeReviewRequired, d.Code)
}

func TestDecideWithdrawalBlockingFlags(t *testing.T) {
	// Referral abuse flags force manual review even at MEDIUM.
	for _, flag := range []string{FlagSelfReferral, FlagReferralFarming, FlagFastCompletion} {
		d := Decide(OpWithdrawal, LevelMedium, []string{flag})
		assert.False(t, d.Allow, flag)
		assert.Equal(t, CodeManualReview, d.Code, flag)
	}

	// Non-blocking flags pass.
	d := Decide(OpWithdrawal, LevelMedium, []string{FlagVPNProxy, FlagMultipleDevices})
	assert.True(t, d.Allow)
}

func TestDecideGeneralIgnoresBlockingFlags(t *testing.T) {
	// Flags only gate withdrawals; general traffic is gated by level alone.
	d := Decide(OpGeneral, LevelMedium, []string{FlagSelfReferral})
	assert.True(t, d.Allow)
}

func TestRequestCeiling(t *testing.T) {
	assert.Equal(t, 60, RequestCeiling(LevelLow))
	assert.Equal(t, 30, RequestCeiling(LevelMedium))
	assert.Equal(t, 10, RequestCeiling(LevelHigh))
	assert.Equal(t, 5, RequestCeiling(LevelCritical))
}
