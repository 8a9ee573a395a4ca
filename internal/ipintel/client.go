// Package ipintel classifies request IPs through an external intelligence
// API. The service is advisory: any failure yields a zero classification
// so risk scoring degrades instead of blocking.
package ipintel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"offerwall/internal/logger"

	"github.com/sony/gobreaker"
)

// Classification is what the risk engine consumes. The zero value means
// "nothing suspicious known about this IP".
type Classification struct {
	IsVPNOrProxy bool
	CountryCode  string
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewClient returns a client, or nil when no URL is configured. Callers
// must tolerate a nil client.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		return nil
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 3 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "ipintel",
			Timeout: time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// Classify looks up an IP. Never returns an error: lookups that fail for
// any reason produce the zero classification.
func (c *Client) Classify(ctx context.Context, ip string) Classification {
	if c == nil || ip == "" {
		return Classification{}
	}

	result, err := c.breaker.Execute(func() (any, error) {
		return c.lookup(ctx, ip)
	})
	if err != nil {
		logger.Debug("ip intelligence lookup failed", "ip", ip, "error", err)
		return Classification{}
	}
	return result.(Classification)
}

func (c *Client) lookup(ctx context.Context, ip string) (Classification, error) {
	reqURL := fmt.Sprintf("%s/check?ip=%s", c.baseURL, url.QueryEscape(ip))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Classification{}, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Classification{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return Classification{}, fmt.Errorf("ip intelligence returned %d", resp.StatusCode)
	}

	var body struct {
		Proxy       bool   `json:"proxy"`
		VPN         bool   `json:"vpn"`
		CountryCode string `json:"country_code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Classification{}, err
	}

	return Classification{
		IsVPNOrProxy: body.Proxy || body.VPN,
		CountryCode:  strings.ToUpper(body.CountryCode),
	}, nil
}
