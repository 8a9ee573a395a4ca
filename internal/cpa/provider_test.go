package cpa

import (
	"testing"

	"offerwall/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPayoutCents(t *testing.T) {
	// 55% margin leaves 45% for the user, floored.
	assert.Equal(t, int64(45), userPayoutCents(100, 55))
	assert.Equal(t, int64(0), userPayoutCents(1, 55))
	assert.Equal(t, int64(4), userPayoutCents(10, 55))
	assert.Equal(t, int64(100), userPayoutCents(100, 0))
	assert.Equal(t, int64(0), userPayoutCents(0, 55))
	assert.Equal(t, int64(0), userPayoutCents(-50, 55))
}

func TestParsePayoutCents(t *testing.T) {
	assert.Equal(t, int64(150), parsePayoutCents("1.50"))
	assert.Equal(t, int64(50), parsePayoutCents("0.5"))
	assert.Equal(t, int64(200), parsePayoutCents(" 2 "))
	assert.Equal(t, int64(0), parsePayoutCents(""))
	assert.Equal(t, int64(0), parsePayoutCents("abc"))
	assert.Equal(t, int64(0), parsePayoutCents("-1.00"))
}

func TestMapCategory(t *testing.T) {
	assert.Equal(t, "APP_INSTALL", mapCategory("Install"))
	assert.Equal(t, "SURVEY", mapCategory("surveys"))
	assert.Equal(t, "SIGNUP", mapCategory("Email Submit"))
	assert.Equal(t, "OTHER", mapCategory("pin submit"))
	assert.Equal(t, "OTHER", mapCategory(""))
}

func TestParseDevices(t *testing.T) {
	assert.Equal(t, []string{"mobile", "desktop"}, parseDevices(""))
	assert.Equal(t, []string{"mobile"}, parseDevices("android,ios,iphone"))
	assert.Equal(t, []string{"desktop", "tablet"}, parseDevices("windows, ipad"))
}

func TestCPAGripPostbackSignature(t *testing.T) {
	p := NewCPAGrip(config.ProviderCredentials{
		APIKey: "k", PublisherID: "pub", PostbackSecret: "secret",
	}, 55)

	params := map[string]string{
		"s1":     "sess-123",
		"payout": "1.50",
		"status": "1",
		"oid":    "777",
	}
	params["sig"] = postbackSignature("secret", "sess-123", "1.50", "777")

	pb, err := p.VerifyPostback(params)
	require.NoError(t, err)
	assert.Equal(t, "CPAGRIP", pb.Provider)
	assert.Equal(t, "sess-123", pb.SessionToken)
	assert.Equal(t, "777", pb.ExternalID)
	assert.Equal(t, int64(150), pb.PayoutCents)
	assert.Equal(t, StatusApproved, pb.Status)

	params["sig"] = "deadbeef"
	_, err = p.VerifyPostback(params)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	// Missing signature with a secret configured is also a rejection.
	delete(params, "sig")
	_, err = p.VerifyPostback(params)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCPAGripPostbackNoSecret(t *testing.T) {
	p := NewCPAGrip(config.ProviderCredentials{APIKey: "k", PublisherID: "pub"}, 55)

	pb, err := p.VerifyPostback(map[string]string{
		"s1": "sess", "payout": "0.40", "status": "2", "oid": "1",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, pb.Status)
}

func TestOGAdsPostback(t *testing.T) {
	p := NewOGAds(config.ProviderCredentials{
		APIKey: "k", PublisherID: "pub", PostbackSecret: "s2",
	}, 55)

	params := map[string]string{
		"aff_sub":  "tok",
		"payout":   "2.00",
		"status":   "converted",
		"offer_id": "42",
		"sig":      postbackSignature("s2", "tok", "2.00", "42"),
	}
	pb, err := p.VerifyPostback(params)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, pb.Status)
	assert.Equal(t, int64(200), pb.PayoutCents)

	params["status"] = "chargeback"
	pb, err = p.VerifyPostback(params)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, pb.Status)
}

func TestAdGatePostbackPointsFallback(t *testing.T) {
	p := NewAdGate(config.ProviderCredentials{APIKey: "k", PublisherID: "w"}, 55)

	pb, err := p.VerifyPostback(map[string]string{
		"s1": "tok", "points": "0.75", "status": "credited", "offer_id": "9",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(75), pb.PayoutCents)
	assert.Equal(t, StatusApproved, pb.Status)
}

func TestTrackingURLs(t *testing.T) {
	grip := NewCPAGrip(config.ProviderCredentials{APIKey: "k", PublisherID: "pub1"}, 55)
	u := grip.TrackingURL("55", "sess-x", 7)
	assert.Contains(t, u, "l=55")
	assert.Contains(t, u, "s1=sess-x")
	assert.Contains(t, u, "s2=7")

	og := NewOGAds(config.ProviderCredentials{APIKey: "k", PublisherID: "pub2"}, 55)
	u = og.TrackingURL("88", "sess-y", 9)
	assert.Contains(t, u, "/offer/88")
	assert.Contains(t, u, "aff_sub=sess-y")
}

func TestRegistrySkipsUnconfigured(t *testing.T) {
	cfg := &config.Config{
		CPAGrip:       config.ProviderCredentials{APIKey: "k", PublisherID: "p"},
		MarginPercent: 55,
	}
	r := NewRegistry(cfg)

	require.Len(t, r.All(), 1)
	p, err := r.Get("cpagrip")
	require.NoError(t, err)
	assert.Equal(t, "CPAGRIP", p.Name())

	_, err = r.Get("OGADS")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
