// Package dolarapi provides the USD/ARS reference rate from dolarapi.com.
package dolarapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the blue-dollar endpoint of dolarapi.com.
const DefaultBaseURL = "https://dolarapi.com/v1/dolares/blue"

// ErrNoRate is returned when the provider answers without a usable
// sell-side rate (non-2xx status or missing field).
var ErrNoRate = errors.New("no reference rate available")

// Client for dolarapi.com
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new dolarapi.com client.
// baseURL may be empty to use the public endpoint.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("client", "dolarapi").Logger(),
	}
}

// rateResponse mirrors the fields we consume. Venta is the sell-side rate
// applied when converting USD quotes to pesos.
type rateResponse struct {
	Venta *float64 `json:"venta"`
}

// GetSellRate fetches the current sell-side USD/ARS rate.
// Returns ErrNoRate when the provider has no usable rate.
func (c *Client) GetSellRate(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build rate request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("rate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Debug().Int("status", resp.StatusCode).Msg("Provider returned no rate")
		return 0, fmt.Errorf("%w: status %d", ErrNoRate, resp.StatusCode)
	}

	var payload rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("failed to parse rate response: %w", err)
	}

	if payload.Venta == nil {
		return 0, fmt.Errorf("%w: response carries no sell rate", ErrNoRate)
	}

	rate := *payload.Venta

	c.log.Debug().Float64("rate", rate).Msg("Fetched reference rate")

	return rate, nil
}
