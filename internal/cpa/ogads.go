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

const ogadsBaseURL = "https://unlockcontent.net"

type OGAds struct {
	creds         config.ProviderCredentials
	marginPercent int
	client        *apiClient
}

func NewOGAds(creds config.ProviderCredentials, marginPercent int) *OGAds {
	return &OGAds{creds: creds, marginPercent: marginPercent, client: newAPIClient("ogads")}
}

func (p *OGAds) Name() string { return "OGADS" }

func (p *OGAds) Configured() bool {
	return p.creds.APIKey != "" && p.creds.PublisherID != ""
}

type ogadsOffer struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Vertical    string `json:"vertical"`
	Payout      string `json:"payout"`
	Countries   string `json:"country"`
	Platforms   string `json:"device"`
	Link        string `json:"link"`
	Active      bool   `json:"active"`
}

func (p *OGAds) FetchOffers(ctx context.Context) ([]Offer, error) {
	var feed struct {
		Offers []ogadsOffer `json:"offers"`
	}
	headers := map[string]string{"Authorization": "Bearer " + p.creds.APIKey}
	if err := p.client.getJSON(ctx, ogadsBaseURL+"/v1/offers", headers, &feed); err != nil {
		return nil, fmt.Errorf("ogads feed: %w", err)
	}

	offers := make([]Offer, 0, len(feed.Offers))
	for _, raw := range feed.Offers {
		cents := parsePayoutCents(raw.Payout)
		if cents == 0 {
			continue
		}
		offers = append(offers, Offer{
			ExternalID:         strconv.FormatInt(raw.ID, 10),
			Name:               raw.Name,
			Description:        raw.Description,
			Category:           mapCategory(raw.Vertical),
			NetworkPayoutCents: cents,
			UserPayoutCents:    userPayoutCents(cents, p.marginPercent),
			Countries:          splitCSVUpper(raw.Countries),
			Devices:            parseDevices(raw.Platforms),
			TrackingURL:        raw.Link,
			IsActive:           raw.Active,
		})
	}
	logger.Debug("ogads offers fetched", "count", len(offers))
	return offers, nil
}

func (p *OGAds) TrackingURL(externalID, sessionToken string, userID int64) string {
	q := url.Values{}
	q.Set("aff_id", p.creds.PublisherID)
	q.Set("aff_sub", sessionToken)
	q.Set("aff_sub2", strconv.FormatInt(userID, 10))
	return ogadsBaseURL + "/offer/" + url.PathEscape(externalID) + "?" + q.Encode()
}

// VerifyPostback parses an OGAds conversion callback:
// ?aff_sub={session}&payout={payout}&status={status}&offer_id={offer}&sig={hmac}
func (p *OGAds) VerifyPostback(params map[string]string) (*Postback, error) {
	session := params["aff_sub"]
	payout := params["payout"]
	offerID := params["offer_id"]

	if p.creds.PostbackSecret != "" {
		if !verifySignature(p.creds.PostbackSecret, session, payout, offerID, params["sig"]) {
			return nil, ErrInvalidSignature
		}
	}

	return &Postback{
		Provider:     p.Name(),
		SessionToken: session,
		ExternalID:   offerID,
		PayoutCents:  parsePayoutCents(payout),
		Status:       ogadsStatus(params["status"]),
		Raw:          params,
	}, nil
}

func ogadsStatus(s string) PostbackStatus {
	switch strings.ToLower(s) {
	case "1", "approved", "converted":
		return StatusApproved
	case "rejected", "reversed", "chargeback":
		return StatusRejected
	default:
		return StatusPending
	}
}
