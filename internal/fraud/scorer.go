package fraud

type Level string

const (
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// Signal weights. Referral abuse dominates because it is the only class
// that multiplies payouts instead of merely speeding them up.
const (
	weightNewDevice        = 5
	weightMultipleDevices  = 10
	weightDeviceSwitchRate = 20
	weightVPNProxy         = 15
	weightCountryMismatch  = 10
	weightIPChangeRate     = 15
	weightFastCompletion   = 25
	weightSuspiciousPat    = 30
	weightSelfReferral     = 40
	weightReferralFarming  = 35
)

// Score aggregates triggered signal weights, clamped to [0,100].
func Score(s *Signals) int {
	score := 0

	if s.IsNewDevice && s.DeviceCount > 1 {
		score += weightNewDevice
	}
	if s.DeviceCount > 3 {
		score += weightMultipleDevices
	}
	if s.DeviceSwitchRate > 3 {
		score += weightDeviceSwitchRate
	}
	if s.IsVPNOrProxy {
		score += weightVPNProxy
	}
	if s.IPCountryMismatch {
		score += weightCountryMismatch
	}
	if s.IPChangeRate > 5 {
		score += weightIPChangeRate
	}
	if s.UnusuallyFastCompletion {
		score += weightFastCompletion
	}
	if s.SuspiciousPattern {
		score += weightSuspiciousPat
	}
	if s.SelfReferralSuspect {
		score += weightSelfReferral
	}
	if s.ReferralFarmingSuspect {
		score += weightReferralFarming
	}

	if score > 100 {
		score = 100
	}
	return score
}

// LevelFor maps a score to its discrete band.
func LevelFor(score int) Level {
	switch {
	case score >= 70:
		return LevelCritical
	case score >= 50:
		return LevelHigh
	case score >= 30:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Smooth folds a fresh score into the stored one: round(0.7*stored +
// 0.3*fresh) in integer arithmetic. One noisy observation moves a
// long-trusted user only partway; sustained bad behavior still
// converges upward.
func Smooth(stored, fresh int) int {
	return (7*stored + 3*fresh + 5) / 10
}
