package fraud

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreEmptySignals(t *testing.T) {
	assert.Equal(t, 0, Score(&Signals{}))
}

func TestScoreNewDeviceNeedsPriorDevice(t *testing.T) {
	// A brand-new account's first device is not suspicious.
	assert.Equal(t, 0, Score(&Signals{IsNewDevice: true, DeviceCount: 1}))
	assert.Equal(t, 5, Score(&Signals{IsNewDevice: true, DeviceCount: 2}))
}

func TestScoreSingleSignals(t *testing.T) {
	assert.Equal(t, 15, Score(&Signals{IsVPNOrProxy: true}))
	assert.Equal(t, 10, Score(&Signals{IPCountryMismatch: true}))
	assert.Equal(t, 25, Score(&Signals{UnusuallyFastCompletion: true}))
	assert.Equal(t, 30, Score(&Signals{SuspiciousPattern: true}))
	assert.Equal(t, 40, Score(&Signals{SelfReferralSuspect: true}))
	assert.Equal(t, 35, Score(&Signals{ReferralFarmingSuspect: true}))
	assert.Equal(t, 20, Score(&Signals{DeviceSwitchRate: 4}))
	assert.Equal(t, 15, Score(&Signals{IPChangeRate: 6}))
	assert.Equal(t, 10, Score(&Signals{DeviceCount: 4}))
}

func TestScoreThresholdsAreExclusive(t *testing.T) {
	// Boundary values must not trigger.
	assert.Equal(t, 0, Score(&Signals{DeviceCount: 3}))
	assert.Equal(t, 0, Score(&Signals{DeviceSwitchRate: 3}))
	assert.Equal(t, 0, Score(&Signals{IPChangeRate: 5}))
}

func TestScoreClampsAt100(t *testing.T) {
	all := &Signals{
		IsNewDevice:             true,
		DeviceCount:             5,
		DeviceSwitchRate:        10,
		IsVPNOrProxy:            true,
		IPCountryMismatch:       true,
		IPChangeRate:            10,
		UnusuallyFastCompletion: true,
		SuspiciousPattern:       true,
		SelfReferralSuspect:     true,
		ReferralFarmingSuspect:  true,
	}
	assert.Equal(t, 100, Score(all))
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, LevelLow, LevelFor(0))
	assert.Equal(t, LevelLow, LevelFor(29))
	assert.Equal(t, LevelMedium, LevelFor(30))
	assert.Equal(t, LevelMedium, LevelFor(49))
	assert.Equal(t, LevelHigh, LevelFor(50))
	assert.Equal(t, LevelHigh, LevelFor(69))
	assert.Equal(t, LevelCritical, LevelFor(70))
	assert.Equal(t, LevelCritical, LevelFor(100))
}

func TestSmooth(t *testing.T) {
	// round(0.7*stored + 0.3*fresh)
	assert.Equal(t, 0, Smooth(0, 0))
	assert.Equal(t, 30, Smooth(0, 100))
	assert.Equal(t, 70, Smooth(100, 0))
	assert.Equal(t, 50, Smooth(50, 50))
	assert.Equal(t, 9, Smooth(10, 8))  // 8.4 -> round
	assert.Equal(t, 10, Smooth(10, 11)) // 10.3 -> round
}

func TestSmoothConvergesUpward(t *testing.T) {
	// A user who keeps tripping signals should climb toward the fresh
	// score instead of being forever protected by old trust.
	score := 0
	for i := 0; i < 20; i++ {
		score = Smooth(score, 100)
	}
	assert.GreaterOrEqual(t, score, 95)
}

func TestSmoothDecaysDownward(t *testing.T) {
	score := 100
	for i := 0; i < 20; i++ {
		score = Smooth(score, 0)
	}
	assert.LessOrEqual(t, score, 5)
}
