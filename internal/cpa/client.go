package cpa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// apiClient wraps offer-feed HTTP calls in a circuit breaker so a broken
// network API trips fast instead of stalling every sync run.
type apiClient struct {
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

func newAPIClient(name string) *apiClient {
	return &apiClient{
		http: &http.Client{Timeout: 15 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    name,
			Timeout: 2 * time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

// getJSON performs a GET through the breaker and decodes the body into v.
func (c *apiClient) getJSON(ctx context.Context, url string, headers map[string]string, v any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		for k, val := range headers {
			req.Header.Set(k, val)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			return nil, fmt.Errorf("offer feed returned %d", resp.StatusCode)
		}
		return nil, json.NewDecoder(resp.Body).Decode(v)
	})
	return err
}
