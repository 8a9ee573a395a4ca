package fraud

import (
	"context"
	"testing"
	"time"

	"offerwall/internal/ipintel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevices struct {
	fingerprints []string
	recent       []string
	ips          []string
	overlap      bool
}

func (f *fakeDevices) Fingerprints(ctx context.Context, userID int64) ([]string, error) {
	return f.fingerprints, nil
}
func (f *fakeDevices) FingerprintsSince(ctx context.Context, userID int64, since time.Time) ([]string, error) {
	return f.recent, nil
}
func (f *fakeDevices) IPsSince(ctx context.Context, userID int64, since time.Time) ([]string, error) {
	return f.ips, nil
}
func (f *fakeDevices) Overlap(ctx context.Context, a, b int64) (bool, error) {
	return f.overlap, nil
}

type fakeTasks struct {
	completed int
	durations []time.Duration
}

func (f *fakeTasks) CompletedCountSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	return f.completed, nil
}
func (f *fakeTasks) RecentCompletionDurations(ctx context.Context, userID int64, limit int) ([]time.Duration, error) {
	return f.durations, nil
}

type fakeReferrals struct {
	referrerID  int64
	hasReferrer bool
	joinTimes   []time.Time
}

func (f *fakeReferrals) GetReferrerID(ctx context.Context, userID int64) (int64, bool, error) {
	return f.referrerID, f.hasReferrer, nil
}
func (f *fakeReferrals) ReferralJoinTimes(ctx context.Context, referrerID int64, limit int) ([]time.Time, error) {
	return f.joinTimes, nil
}

type fakeIntel struct {
	class ipintel.Classification
}

func (f *fakeIntel) Classify(ctx context.Context, ip string) ipintel.Classification {
	return f.class
}

func newTestCollector(d *fakeDevices, t *fakeTasks, r *fakeReferrals, i IPClassifier) *Collector {
	c := NewCollector(d, t, r, i)
	c.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestCollectCleanUser(t *testing.T) {
	c := newTestCollector(
		&fakeDevices{fingerprints: []string{"fp1"}},
		&fakeTasks{},
		&fakeReferrals{},
		nil,
	)

	s, err := c.Collect(context.Background(), 1, RequestContext{FingerprintHash: "fp1", IP: "1.2.3.4"})
	require.NoError(t, err)
	assert.False(t, s.IsNewDevice)
	assert.Equal(t, 1, s.DeviceCount)
	assert.Empty(t, s.Flags)
	assert.Equal(t, 0, Score(s))
}

func TestCollectNewDeviceCounted(t *testing.T) {
	c := newTestCollector(
		&fakeDevices{fingerprints: []string{"fp1", "fp2", "fp3"}},
		&fakeTasks{},
		&fakeReferrals{},
		nil,
	)

	s, err := c.Collect(context.Background(), 1, RequestContext{FingerprintHash: "fp-new"})
	require.NoError(t, err)
	assert.True(t, s.IsNewDevice)
	assert.Equal(t, 4, s.DeviceCount)
	assert.Contains(t, s.Flags, FlagMultipleDevices)
}

func TestCollectVelocitySignals(t *testing.T) {
	// 31 completions in the past hour is over one every two minutes.
	c := newTestCollector(
		&fakeDevices{},
		&fakeTasks{completed: 31},
		&fakeReferrals{},
		nil,
	)

	s, err := c.Collect(context.Background(), 1, RequestContext{})
	require.NoError(t, err)
	assert.True(t, s.UnusuallyFastCompletion)
	assert.InDelta(t, 31.0/60.0, s.TaskCompletionRate, 1e-9)

	// Exactly 30 is the boundary and does not trip.
	c = newTestCollector(&fakeDevices{}, &fakeTasks{completed: 30}, &fakeReferrals{}, nil)
	s, err = c.Collect(context.Background(), 1, RequestContext{})
	require.NoError(t, err)
	assert.False(t, s.UnusuallyFastCompletion)
}

func TestCollectSuspiciousPattern(t *testing.T) {
	fast := 2 * time.Second
	slow := time.Minute

	// 4 of 6 fast: more than half.
	c := newTestCollector(
		&fakeDevices{},
		&fakeTasks{durations: []time.Duration{fast, fast, fast, fast, slow, slow}},
		&fakeReferrals{},
		nil,
	)
	s, err := c.Collect(context.Background(), 1, RequestContext{})
	require.NoError(t, err)
	assert.True(t, s.SuspiciousPattern)

	// Exactly half does not trip.
	c = newTestCollector(
		&fakeDevices{},
		&fakeTasks{durations: []time.Duration{fast, fast, fast, slow, slow, slow}},
		&fakeReferrals{},
		nil,
	)
	s, err = c.Collect(context.Background(), 1, RequestContext{})
	require.NoError(t, err)
	assert.False(t, s.SuspiciousPattern)

	// Too few samples is never suspicious.
	c = newTestCollector(
		&fakeDevices{},
		&fakeTasks{durations: []time.Duration{fast, fast, fast, fast}},
		&fakeReferrals{},
		nil,
	)
	s, err = c.Collect(context.Background(), 1, RequestContext{})
	require.NoError(t, err)
	assert.False(t, s.SuspiciousPattern)
}

func TestCollectSelfReferral(t *testing.T) {
	c := newTestCollector(
		&fakeDevices{overlap: true},
		&fakeTasks{},
		&fakeReferrals{referrerID: 7, hasReferrer: true},
		nil,
	)

	s, err := c.Collect(context.Background(), 9, RequestContext{})
	require.NoError(t, err)
	assert.True(t, s.SelfReferralSuspect)
	assert.Contains(t, s.Flags, FlagSelfReferral)
	assert.Equal(t, LevelMedium, LevelFor(Score(s)))
}

func TestCollectReferralFarming(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Three referrals 10 seconds apart, newest first.
	burst := []time.Time{base, base.Add(-10 * time.Second), base.Add(-20 * time.Second)}
	c := newTestCollector(&fakeDevices{}, &fakeTasks{}, &fakeReferrals{joinTimes: burst}, nil)
	s, err := c.Collect(context.Background(), 1, RequestContext{})
	require.NoError(t, err)
	assert.True(t, s.ReferralFarmingSuspect)

	// Referrals hours apart are organic.
	organic := []time.Time{base, base.Add(-2 * time.Hour), base.Add(-5 * time.Hour)}
	c = newTestCollector(&fakeDevices{}, &fakeTasks{}, &fakeReferrals{joinTimes: organic}, nil)
	s, err = c.Collect(context.Background(), 1, RequestContext{})
	require.NoError(t, err)
	assert.False(t, s.ReferralFarmingSuspect)

	// Fewer than three referrals cannot trip the signal.
	two := []time.Time{base, base.Add(-time.Second)}
	c = newTestCollector(&fakeDevices{}, &fakeTasks{}, &fakeReferrals{joinTimes: two}, nil)
	s, err = c.Collect(context.Background(), 1, RequestContext{})
	require.NoError(t, err)
	assert.False(t, s.ReferralFarmingSuspect)
}

func TestCollectIPIntelSignals(t *testing.T) {
	c := newTestCollector(
		&fakeDevices{},
		&fakeTasks{},
		&fakeReferrals{},
		&fakeIntel{class: ipintel.Classification{IsVPNOrProxy: true, CountryCode: "NL"}},
	)

	s, err := c.Collect(context.Background(), 1, RequestContext{IP: "5.6.7.8", UserCountry: "US"})
	require.NoError(t, err)
	assert.True(t, s.IsVPNOrProxy)
	assert.True(t, s.IPCountryMismatch)
	assert.Equal(t, 25, Score(s))

	// Unknown IP country never counts as a mismatch.
	c = newTestCollector(
		&fakeDevices{},
		&fakeTasks{},
		&fakeReferrals{},
		&fakeIntel{class: ipintel.Classification{CountryCode: ""}},
	)
	s, err = c.Collect(context.Background(), 1, RequestContext{IP: "5.6.7.8", UserCountry: "US"})
	require.NoError(t, err)
	assert.False(t, s.IPCountryMismatch)
}
