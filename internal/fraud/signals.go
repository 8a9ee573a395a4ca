// Package fraud computes per-user risk from device, network and behavior
// history. Scoring is deterministic; the collector reads history fresh on
// every call so no stale signal survives across decisions.
package fraud

import (
	"context"
	"time"

	"offerwall/internal/ipintel"
)

// Signal flag names, stored on fraud alerts and consulted by policy.
const (
	FlagMultipleDevices      = "MULTIPLE_DEVICES"
	FlagHighDeviceSwitchRate = "HIGH_DEVICE_SWITCH_RATE"
	FlagVPNProxy             = "VPN_PROXY_DETECTED"
	FlagIPCountryMismatch    = "IP_COUNTRY_MISMATCH"
	FlagHighIPChangeRate     = "HIGH_IP_CHANGE_RATE"
	FlagFastCompletion       = "UNUSUALLY_FAST_COMPLETION"
	FlagSuspiciousPattern    = "SUSPICIOUS_PATTERN"
	FlagSelfReferral         = "SELF_REFERRAL_SUSPECT"
	FlagReferralFarming      = "REFERRAL_FARMING_SUSPECT"
)

// Signals is one fresh observation of a user at a point in time.
type Signals struct {
	IsNewDevice             bool
	DeviceCount             int
	DeviceSwitchRate        int // distinct fingerprints, trailing 24h
	IsVPNOrProxy            bool
	IPCountryMismatch       bool
	IPChangeRate            int     // distinct IPs, trailing 24h
	TaskCompletionRate      float64 // completions per minute, trailing 60m
	UnusuallyFastCompletion bool
	SuspiciousPattern       bool
	SelfReferralSuspect     bool
	ReferralFarmingSuspect  bool
	Flags                   []string
}

// RequestContext is what the current request contributes: an opaque
// fingerprint hash, the client IP and the user's registered country.
type RequestContext struct {
	FingerprintHash string
	IP              string
	UserCountry     string
}

type DeviceHistory interface {
	Fingerprints(ctx context.Context, userID int64) ([]string, error)
	FingerprintsSince(ctx context.Context, userID int64, since time.Time) ([]string, error)
	IPsSince(ctx context.Context, userID int64, since time.Time) ([]string, error)
	Overlap(ctx context.Context, userA, userB int64) (bool, error)
}

type TaskHistory interface {
	CompletedCountSince(ctx context.Context, userID int64, since time.Time) (int, error)
	RecentCompletionDurations(ctx context.Context, userID int64, limit int) ([]time.Duration, error)
}

type ReferralHistory interface {
	GetReferrerID(ctx context.Context, userID int64) (int64, bool, error)
	ReferralJoinTimes(ctx context.Context, referrerID int64, limit int) ([]time.Time, error)
}

type IPClassifier interface {
	Classify(ctx context.Context, ip string) ipintel.Classification
}

// Collector derives signals from the authoritative history tables.
type Collector struct {
	devices   DeviceHistory
	tasks     TaskHistory
	referrals ReferralHistory
	ipintel   IPClassifier
	now       func() time.Time
}

func NewCollector(devices DeviceHistory, tasks TaskHistory, referrals ReferralHistory, intel IPClassifier) *Collector {
	return &Collector{
		devices:   devices,
		tasks:     tasks,
		referrals: referrals,
		ipintel:   intel,
		now:       time.Now,
	}
}

const (
	recentCompletionsWindow = 60 * time.Minute
	patternSampleSize       = 20
	fastCompletionCutoff    = 5 * time.Second
	farmingMinReferrals     = 3
	farmingMaxAvgGap        = time.Minute
)

// Collect reads history and produces a fresh signal set. Repo errors
// propagate to the caller, which decides fail-open versus fail-closed.
func (c *Collector) Collect(ctx context.Context, userID int64, req RequestContext) (*Signals, error) {
	now := c.now()
	s := &Signals{}

	fingerprints, err := c.devices.Fingerprints(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.IsNewDevice = req.FingerprintHash != "" && !contains(fingerprints, req.FingerprintHash)
	s.DeviceCount = len(fingerprints)
	if s.IsNewDevice {
		s.DeviceCount++
	}
	if s.DeviceCount > 3 {
		s.Flags = append(s.Flags, FlagMultipleDevices)
	}

	recent, err := c.devices.FingerprintsSince(ctx, userID, now.Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}
	s.DeviceSwitchRate = len(recent)
	if s.DeviceSwitchRate > 3 {
		s.Flags = append(s.Flags, FlagHighDeviceSwitchRate)
	}

	// IP intelligence degrades to the zero classification when the
	// collaborator is down; these signals are never worth blocking on.
	if c.ipintel != nil && req.IP != "" {
		class := c.ipintel.Classify(ctx, req.IP)
		s.IsVPNOrProxy = class.IsVPNOrProxy
		if s.IsVPNOrProxy {
			s.Flags = append(s.Flags, FlagVPNProxy)
		}
		if class.CountryCode != "" && req.UserCountry != "" && class.CountryCode != req.UserCountry {
			s.IPCountryMismatch = true
			s.Flags = append(s.Flags, FlagIPCountryMismatch)
		}
	}

	ips, err := c.devices.IPsSince(ctx, userID, now.Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}
	s.IPChangeRate = len(ips)
	if s.IPChangeRate > 5 {
		s.Flags = append(s.Flags, FlagHighIPChangeRate)
	}

	completed, err := c.tasks.CompletedCountSince(ctx, userID, now.Add(-recentCompletionsWindow))
	if err != nil {
		return nil, err
	}
	s.TaskCompletionRate = float64(completed) / recentCompletionsWindow.Minutes()
	if s.TaskCompletionRate > 0.5 {
		s.UnusuallyFastCompletion = true
		s.Flags = append(s.Flags, FlagFastCompletion)
	}

	durations, err := c.tasks.RecentCompletionDurations(ctx, userID, patternSampleSize)
	if err != nil {
		return nil, err
	}
	s.SuspiciousPattern = suspiciousDurations(durations)
	if s.SuspiciousPattern {
		s.Flags = append(s.Flags, FlagSuspiciousPattern)
	}

	referrerID, hasReferrer, err := c.referrals.GetReferrerID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if hasReferrer {
		overlap, err := c.devices.Overlap(ctx, userID, referrerID)
		if err != nil {
			return nil, err
		}
		s.SelfReferralSuspect = overlap
		if overlap {
			s.Flags = append(s.Flags, FlagSelfReferral)
		}
	}

	joinTimes, err := c.referrals.ReferralJoinTimes(ctx, userID, patternSampleSize)
	if err != nil {
		return nil, err
	}
	s.ReferralFarmingSuspect = farmedReferrals(joinTimes)
	if s.ReferralFarmingSuspect {
		s.Flags = append(s.Flags, FlagReferralFarming)
	}

	return s, nil
}

// suspiciousDurations reports whether more than half of the sampled
// completions finished faster than a human plausibly could. Fewer than 5
// samples is not enough evidence.
func suspiciousDurations(durations []time.Duration) bool {
	if len(durations) < 5 {
		return false
	}
	fast := 0
	for _, d := range durations {
		if d < fastCompletionCutoff {
			fast++
		}
	}
	return fast*2 > len(durations)
}

// farmedReferrals checks whether referrals joined in a burst: at least 3
// of them with a mean inter-join gap under a minute. Times are newest
// first.
func farmedReferrals(joinTimes []time.Time) bool {
	if len(joinTimes) < farmingMinReferrals {
		return false
	}
	var total time.Duration
	for i := 1; i < len(joinTimes); i++ {
		total += joinTimes[i-1].Sub(joinTimes[i])
	}
	avg := total / time.Duration(len(joinTimes)-1)
	return avg < farmingMaxAvgGap
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
