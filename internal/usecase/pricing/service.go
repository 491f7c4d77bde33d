// Package pricing refreshes asset market prices from the external quote
// providers and converts them to local currency.
package pricing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/facuvazquez/portfolio-backend/internal/clients/dolarapi"
	"github.com/facuvazquez/portfolio-backend/internal/clients/yahoo"
	"github.com/facuvazquez/portfolio-backend/internal/domain"
)

// QuoteClient fetches the current USD price for an equity symbol.
type QuoteClient interface {
	GetQuoteUSD(ctx context.Context, symbol string) (float64, error)
}

// RateClient fetches the USD->local reference rate.
type RateClient interface {
	GetSellRate(ctx context.Context) (float64, error)
}

// Service orchestrates price refreshes across all tracked assets.
type Service struct {
	quotes QuoteClient
	rates  RateClient
	assets domain.AssetRepository
	log    zerolog.Logger
	now    func() time.Time // injectable clock for testing
}

// NewService creates a new pricing service.
func NewService(quotes QuoteClient, rates RateClient, assets domain.AssetRepository, log zerolog.Logger) *Service {
	return &Service{
		quotes: quotes,
		rates:  rates,
		assets: assets,
		log:    log.With().Str("component", "pricing").Logger(),
		now:    time.Now,
	}
}

// LocalQuote carries the result of the composite symbol lookup. Nil fields
// mean the corresponding value could not be obtained; PriceLocal is set
// only when both the USD price and the rate are present.
type LocalQuote struct {
	PriceUSD   *decimal.Decimal
	PriceLocal *decimal.Decimal
	Rate       *decimal.Decimal
}

// GetLocalQuote fetches the USD quote and the reference rate concurrently
// (there is no ordering dependency between them) and derives the
// local-currency price when both succeed.
func (s *Service) GetLocalQuote(ctx context.Context, symbol string) LocalQuote {
	var (
		wg       sync.WaitGroup
		priceUSD float64
		rate     float64
		quoteErr error
		rateErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		priceUSD, quoteErr = s.quotes.GetQuoteUSD(ctx, symbol)
	}()
	go func() {
		defer wg.Done()
		rate, rateErr = s.rates.GetSellRate(ctx)
	}()
	wg.Wait()

	var out LocalQuote
	if quoteErr == nil {
		usd := decimal.NewFromFloat(priceUSD)
		out.PriceUSD = &usd
	} else {
		s.logQuoteFailure(symbol, quoteErr)
	}
	if rateErr == nil {
		r := decimal.NewFromFloat(rate)
		out.Rate = &r
	} else {
		s.logRateFailure(rateErr)
	}
	if out.PriceUSD != nil && out.Rate != nil {
		local := out.PriceUSD.Mul(*out.Rate)
		out.PriceLocal = &local
	}

	return out
}

// RefreshSummary reports the outcome of one refresh pass.
type RefreshSummary struct {
	Updated int
	Skipped int // assets without a wired price source
	Failed  int // assets whose quote could not be obtained
}

// RefreshAllPrices walks every tracked asset and, for the equity-like ones,
// fetches a quote and persists the converted local price. The reference
// rate is fetched once per invocation, not once per asset. Assets are
// processed sequentially; a failed asset is left untouched and does not abort the
// rest of the pass.
func (s *Service) RefreshAllPrices(ctx context.Context) (RefreshSummary, error) {
	var summary RefreshSummary

	assets, err := s.assets.List(ctx)
	if err != nil {
		return summary, err
	}

	rate, rateErr := s.rates.GetSellRate(ctx)
	if rateErr != nil {
		s.logRateFailure(rateErr)
	}

	for _, asset := range assets {
		if !asset.HasQuoteSource() {
			summary.Skipped++
			continue
		}

		priceUSD, err := s.quotes.GetQuoteUSD(ctx, asset.Symbol)
		if err != nil {
			s.logQuoteFailure(asset.Symbol, err)
			summary.Failed++
			continue
		}

		if rateErr != nil {
			// No conversion possible; the stored price stays untouched.
			summary.Failed++
			continue
		}

		priceLocal := decimal.NewFromFloat(priceUSD).Mul(decimal.NewFromFloat(rate))
		if err := s.assets.UpdatePrice(ctx, asset.ID, priceLocal, s.now()); err != nil {
			s.log.Error().Err(err).Str("symbol", asset.Symbol).Msg("Failed to persist refreshed price")
			summary.Failed++
			continue
		}

		s.log.Info().
			Str("symbol", asset.Symbol).
			Float64("price_usd", priceUSD).
			Str("price_local", priceLocal.String()).
			Msg("Refreshed price")
		summary.Updated++
	}

	return summary, nil
}

// logQuoteFailure logs expected absence at debug and real failures at warn.
func (s *Service) logQuoteFailure(symbol string, err error) {
	if errors.Is(err, yahoo.ErrNoQuote) {
		s.log.Debug().Str("symbol", symbol).Msg("No quote available")
		return
	}
	s.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote fetch failed")
}

func (s *Service) logRateFailure(err error) {
	if errors.Is(err, dolarapi.ErrNoRate) {
		s.log.Debug().Msg("No reference rate available")
		return
	}
	s.log.Warn().Err(err).Msg("Reference rate fetch failed")
}
