package ton

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Network represents TON network type
type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
)

const (
	TonAPIMainnet = "https://tonapi.io/v2"
	TonAPITestnet = "https://testnet.tonapi.io/v2"
)

// Client is a TON API client
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new TON API client
func NewClient(network Network, apiKey string) *Client {
	baseURL := TonAPIMainnet
	if network == NetworkTestnet {
		baseURL = TonAPITestnet
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Transaction represents a TON transaction
type Transaction struct {
	Hash      string    `json:"hash"`
	Lt        int64     `json:"lt"`
	Account   string    `json:"account"`
	Now       int64     `json:"now"`
	TotalFees int64     `json:"total_fees"`
	InMsg     *Message  `json:"in_msg"`
	OutMsgs   []Message `json:"out_msgs"`
	Success   bool      `json:"success"`
}

// Message represents a TON message
type Message struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Value       int64  `json:"value"`
	Bounce      bool   `json:"bounce"`
}

// GetTransaction retrieves a transaction by hash
func (c *Client) GetTransaction(ctx context.Context, hash string) (*Transaction, error) {
	url := fmt.Sprintf("%s/blockchain/transactions/%s", c.baseURL, hash)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	var tx Transaction
	if err := json.NewDecoder(resp.Body).Decode(&tx); err != nil {
		return nil, err
	}

	return &tx, nil
}
