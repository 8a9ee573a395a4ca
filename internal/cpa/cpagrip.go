package cpa

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"offerwall/internal/config"
	"offerwall/internal/logger"
)

const cpagripBaseURL = "https://www.cpagrip.com"

type CPAGrip struct {
	creds         config.ProviderCredentials
	marginPercent int
	client        *apiClient
}

func NewCPAGrip(creds config.ProviderCredentials, marginPercent int) *CPAGrip {
	return &CPAGrip{creds: creds, marginPercent: marginPercent, client: newAPIClient("cpagrip")}
}

func (p *CPAGrip) Name() string { return "CPAGRIP" }

func (p *CPAGrip) Configured() bool {
	return p.creds.APIKey != "" && p.creds.PublisherID != ""
}

type cpagripOffer struct {
	CampID      int64  `json:"campid"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Payout      string `json:"payout"`
	Countries   string `json:"accepted_countries"`
	Platform    string `json:"platform"`
	OfferLink   string `json:"offerlink"`
}

func (p *CPAGrip) FetchOffers(ctx context.Context) ([]Offer, error) {
	feedURL := fmt.Sprintf("%s/common/offer_feed_json.php?pubkey=%s&tracking_id=%s",
		cpagripBaseURL, url.QueryEscape(p.creds.APIKey), url.QueryEscape(p.creds.PublisherID))

	var feed struct {
		Offers []cpagripOffer `json:"offers"`
	}
	if err := p.client.getJSON(ctx, feedURL, nil, &feed); err != nil {
		return nil, fmt.Errorf("cpagrip feed: %w", err)
	}

	offers := make([]Offer, 0, len(feed.Offers))
	for _, raw := range feed.Offers {
		cents := parsePayoutCents(raw.Payout)
		if cents == 0 {
			continue
		}
		offers = append(offers, Offer{
			ExternalID:         strconv.FormatInt(raw.CampID, 10),
			Name:               raw.Title,
			Description:        raw.Description,
			Category:           mapCategory(raw.Category),
			NetworkPayoutCents: cents,
			UserPayoutCents:    userPayoutCents(cents, p.marginPercent),
			Countries:          splitCSVUpper(raw.Countries),
			Devices:            parseDevices(raw.Platform),
			TrackingURL:        raw.OfferLink,
			IsActive:           true,
		})
	}
	logger.Debug("cpagrip offers fetched", "count", len(offers))
	return offers, nil
}

func (p *CPAGrip) TrackingURL(externalID, sessionToken string, userID int64) string {
	q := url.Values{}
	q.Set("l", externalID)
	q.Set("u", p.creds.PublisherID)
	q.Set("s1", sessionToken)
	q.Set("s2", strconv.FormatInt(userID, 10))
	return cpagripBaseURL + "/show.php?" + q.Encode()
}

// VerifyPostback parses a CPAGrip conversion callback:
// ?s1={session}&payout={payout}&status={status}&oid={offer}&sig={hmac}
func (p *CPAGrip) VerifyPostback(params map[string]string) (*Postback, error) {
	session := params["s1"]
	payout := params["payout"]
	offerID := params["oid"]

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
		Status:       cpagripStatus(params["status"]),
		Raw:          params,
	}, nil
}

func cpagripStatus(s string) PostbackStatus {
	switch s {
	case "1", "approved", "converted":
		return StatusApproved
	case "2", "rejected", "reversed":
		return StatusRejected
	default:
		return StatusPending
	}
}
