package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camuig/alphastream/internal/logger"
	"github.com/camuig/alphastream/internal/portfolio"
)

// Chain asks each source in turn for the tickers still unresolved by the
// sources before it. A failing source is logged and skipped.
type Chain struct {
	sources []Source
	log     *logger.Logger
}

func NewChain(log *logger.Logger, sources ...Source) *Chain {
	return &Chain{sources: sources, log: log}
}

func (c *Chain) Name() string {
	names := make([]string, 0, len(c.sources))
	for _, s := range c.sources {
		names = append(names, s.Name())
	}
	return strings.Join(names, ">")
}

// LatestPrices returns whatever the chain could resolve. It only fails when
// every source failed and nothing was resolved.
func (c *Chain) LatestPrices(ctx context.Context, tickers []string) (portfolio.Prices, error) {
	prices := make(portfolio.Prices)
	pending := Dedupe(tickers)
	var errs []error

	for _, src := range c.sources {
		if len(pending) == 0 {
			break
		}
		got, err := src.LatestPrices(ctx, pending)
		if err != nil {
			c.log.Warn("price source failed", "source", src.Name(), "tickers", len(pending), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
		}
		prices.Merge(got)
		pending = prices.Missing(pending)
	}

	if len(pending) > 0 {
		c.log.Debug("tickers left unpriced", "tickers", pending)
	}
	if len(prices) == 0 && len(errs) > 0 && len(errs) == len(c.sources) {
		return prices, errors.Join(errs...)
	}
	return prices, nil
}

// History returns the first non-empty history among the sources.
func (c *Chain) History(ctx context.Context, ticker string, start time.Time) ([]Point, error) {
	var errs []error
	for _, src := range c.sources {
		points, err := src.History(ctx, ticker, start)
		if err != nil {
			c.log.Warn("history source failed", "source", src.Name(), "ticker", ticker, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		if len(points) > 0 {
			return points, nil
		}
	}
	if len(errs) > 0 && len(errs) == len(c.sources) {
		return nil, errors.Join(errs...)
	}
	return []Point{}, nil
}
