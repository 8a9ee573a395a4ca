package cpa

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"offerwall/internal/config"
	"offerwall/internal/logger"
)

const adgateBaseURL = "https://api.adgatemedia.com"

type AdGate struct {
	creds         config.ProviderCredentials
	marginPercent int
	client        *apiClient
}

func NewAdGate(creds config.ProviderCredentials, marginPercent int) *AdGate {
	return &AdGate{creds: creds, marginPercent: marginPercent, client: newAPIClient("adgate")}
}

func (p *AdGate) Name() string { return "ADGATE" }

func (p *AdGate) Configured() bool {
	return p.creds.APIKey != "" && p.creds.PublisherID != ""
}

type adgateOffer struct {
	ID           int64    `json:"id"`
	Anchor       string   `json:"anchor"`
	Requirements string   `json:"requirements"`
	Category     string   `json:"category"`
	Payout       string   `json:"payout"`
	Countries    []string `json:"countries"`
	Devices      []string `json:"devices"`
	ClickURL     string   `json:"click_url"`
	Status       string   `json:"status"`
}

func (p *AdGate) FetchOffers(ctx context.Context) ([]Offer, error) {
	feedURL := fmt.Sprintf("%s/v1/offers?api_key=%s&wall_code=%s",
		adgateBaseURL, url.QueryEscape(p.creds.APIKey), url.QueryEscape(p.creds.PublisherID))

	var feed struct {
		Data []adgateOffer `json:"data"`
	}
	if err := p.client.getJSON(ctx, feedURL, nil, &feed); err != nil {
		return nil, fmt.Errorf("adgate feed: %w", err)
	}

	offers := make([]Offer, 0, len(feed.Data))
	for _, raw := range feed.Data {
		cents := parsePayoutCents(raw.Payout)
		if cents == 0 {
			continue
		}
		offers = append(offers, Offer{
			ExternalID:         strconv.FormatInt(raw.ID, 10),
			Name:               raw.Anchor,
			Description:        raw.Requirements,
			Category:           mapCategory(raw.Category),
			NetworkPayoutCents: cents,
			UserPayoutCents:    userPayoutCents(cents, p.marginPercent),
			Countries:          upperAll(raw.Countries),
			Devices:            parseDevices(strings.Join(raw.Devices, ",")),
			TrackingURL:        raw.ClickURL,
			IsActive:           raw.Status != "paused" && raw.Status != "inactive",
		})
	}
	logger.Debug("adgate offers fetched", "count", len(offers))
	return offers, nil
}

func upperAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (p *AdGate) TrackingURL(externalID, sessionToken string, userID int64) string {
	q := url.Values{}
	q.Set("wall_code", p.creds.PublisherID)
	q.Set("offer_id", externalID)
	q.Set("s1", sessionToken)
	q.Set("s2", strconv.FormatInt(userID, 10))
	return adgateBaseURL + "/vc/click?" + q.Encode()
}

// VerifyPostback parses an AdGate conversion callback:
// ?s1={session}&payout={payout}&status={status}&offer_id={offer}&signature={hmac}
// AdGate reports the amount as either payout dollars or points.
func (p *AdGate) VerifyPostback(params map[string]string) (*Postback, error) {
	session := params["s1"]
	payout := params["payout"]
	if payout == "" {
		payout = params["points"]
	}
	offerID := params["offer_id"]

	if p.creds.PostbackSecret != "" {
		if !verifySignature(p.creds.PostbackSecret, session, payout, offerID, params["signature"]) {
			return nil, ErrInvalidSignature
		}
	}

	return &Postback{
		Provider:     p.Name(),
		SessionToken: session,
		ExternalID:   offerID,
		PayoutCents:  parsePayoutCents(payout),
		Status:       adgateStatus(params["status"]),
		Raw:          params,
	}, nil
}

func adgateStatus(s string) PostbackStatus {
	switch strings.ToLower(s) {
	case "1", "approved", "credited":
		return StatusApproved
	case "rejected", "reversed", "chargedback":
		return StatusRejected
	default:
		return StatusPending
	}
}
