package cpa

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
)

// PostbackStatus is the normalized conversion outcome. Networks report a
// zoo of status strings; adapters collapse them to these three.
type PostbackStatus string

const (
	StatusApproved PostbackStatus = "approved"
	StatusPending  PostbackStatus = "pending"
	StatusRejected PostbackStatus = "rejected"
)

// ErrInvalidSignature means a postback carried a signature that did not
// verify against the configured secret. Such requests change nothing.
var ErrInvalidSignature = errors.New("invalid postback signature")

// Offer is a network offer normalized to platform shape. Payouts are in
// USD cents; the nano conversion happens at sync time.
type Offer struct {
	ExternalID         string
	Name               string
	Description        string
	Category           string
	NetworkPayoutCents int64
	UserPayoutCents    int64
	Countries          []string
	Devices            []string
	TrackingURL        string
	IsActive           bool
}

// Postback is the network-independent view of a conversion callback. The
// settlement pipeline depends on nothing beyond these fields.
type Postback struct {
	Provider     string
	SessionToken string
	ExternalID   string
	PayoutCents  int64
	Status       PostbackStatus
	Raw          map[string]string
}

// Provider is one CPA network integration. Field names, signature scheme
// and status vocabulary are entirely the adapter's business.
type Provider interface {
	Name() string
	Configured() bool
	FetchOffers(ctx context.Context) ([]Offer, error)
	TrackingURL(externalID, sessionToken string, userID int64) string
	VerifyPostback(params map[string]string) (*Postback, error)
}

// postbackSignature is the HMAC-SHA256 scheme shared by the supported
// networks: hex(HMAC(secret, sessionToken + payout + offerID)).
func postbackSignature(secret, sessionToken, payout, offerID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(sessionToken + payout + offerID))
	return hex.EncodeToString(mac.Sum(nil))
}

func verifySignature(secret, sessionToken, payout, offerID, got string) bool {
	want := postbackSignature(secret, sessionToken, payout, offerID)
	return hmac.Equal([]byte(want), []byte(got))
}

// userPayoutCents applies the platform margin, rounding down.
func userPayoutCents(networkCents int64, marginPercent int) int64 {
	if networkCents <= 0 {
		return 0
	}
	return networkCents * int64(100-marginPercent) / 100
}

// parsePayoutCents converts a network's dollar-string payout ("1.50") to
// cents, tolerating garbage as zero.
func parsePayoutCents(s string) int64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return 0
	}
	return int64(f*100 + 0.5)
}

var categoryNames = map[string]string{
	"install":      "APP_INSTALL",
	"mobile":       "APP_INSTALL",
	"app":          "APP_INSTALL",
	"download":     "APP_INSTALL",
	"trial":        "APP_INSTALL",
	"subscription": "APP_INSTALL",
	"game":         "GAME",
	"games":        "GAME",
	"survey":       "SURVEY",
	"surveys":      "SURVEY",
	"email":        "SIGNUP",
	"email submit": "SIGNUP",
	"signup":       "SIGNUP",
	"registration": "SIGNUP",
	"video":        "VIDEO",
	"watch":        "VIDEO",
	"social":       "SOCIAL",
	"follow":       "SOCIAL",
}

func mapCategory(raw string) string {
	if c, ok := categoryNames[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return c
	}
	return "OTHER"
}

func splitCSVUpper(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

var deviceNames = map[string]string{
	"android": "mobile",
	"ios":     "mobile",
	"iphone":  "mobile",
	"phone":   "mobile",
	"mobile":  "mobile",
	"ipad":    "tablet",
	"tablet":  "tablet",
	"windows": "desktop",
	"mac":     "desktop",
	"desktop": "desktop",
}

func parseDevices(s string) []string {
	if s == "" {
		return []string{"mobile", "desktop"}
	}
	var out []string
	seen := map[string]bool{}
	for _, p := range strings.Split(strings.ToLower(s), ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if mapped, ok := deviceNames[p]; ok {
			p = mapped
		}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
