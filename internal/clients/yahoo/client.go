// Package yahoo provides equity quote fetching from the Yahoo Finance
// chart endpoint.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the Yahoo Finance chart endpoint.
const DefaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// ErrNoQuote is returned when the provider has no price for a symbol:
// a non-2xx status or a response without a market price. Callers use
// errors.Is to tell expected absence apart from transport failure.
var ErrNoQuote = errors.New("no quote available")

// Client for the Yahoo Finance chart API
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new Yahoo Finance client.
// baseURL may be empty to use the public endpoint.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("client", "yahoo").Logger(),
	}
}

// chartResponse mirrors the fields we consume from the chart payload.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
	} `json:"chart"`
}

// GetQuoteUSD fetches the current USD market price for a symbol.
// Returns ErrNoQuote when the provider has nothing for the symbol.
func (c *Client) GetQuoteUSD(ctx context.Context, symbol string) (float64, error) {
	url := fmt.Sprintf("%s/%s?interval=1d&range=1d", c.baseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build quote request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Debug().Str("symbol", symbol).Int("status", resp.StatusCode).Msg("Provider returned no quote")
		return 0, fmt.Errorf("%w: status %d for %s", ErrNoQuote, resp.StatusCode, symbol)
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("failed to parse quote response: %w", err)
	}

	if len(payload.Chart.Result) == 0 || payload.Chart.Result[0].Meta.RegularMarketPrice == nil {
		c.log.Debug().Str("symbol", symbol).Msg("Response carries no market price")
		return 0, fmt.Errorf("%w: no market price for %s", ErrNoQuote, symbol)
	}

	price := *payload.Chart.Result[0].Meta.RegularMarketPrice

	c.log.Debug().Str("symbol", symbol).Float64("price_usd", price).Msg("Fetched quote")

	return price, nil
}
