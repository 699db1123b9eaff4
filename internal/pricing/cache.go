package pricing

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/camuig/alphastream/internal/portfolio"
)

// DefaultTTL matches how long market data stays fresh on the dashboard.
const DefaultTTL = 5 * time.Minute

// Cached memoizes latest prices and histories of an underlying Source.
// Unresolved tickers are not cached, so they are retried on the next call.
type Cached struct {
	src   Source
	cache *cache.Cache
}

func NewCached(src Source, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cached{
		src:   src,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *Cached) Name() string {
	return c.src.Name() + "+cache"
}

func (c *Cached) LatestPrices(ctx context.Context, tickers []string) (portfolio.Prices, error) {
	prices := make(portfolio.Prices)
	var misses []string
	for _, t := range Dedupe(tickers) {
		if v, found := c.cache.Get(priceKey(t)); found {
			prices[t] = v.(float64)
			continue
		}
		misses = append(misses, t)
	}
	if len(misses) == 0 {
		return prices, nil
	}

	fetched, err := c.src.LatestPrices(ctx, misses)
	for t, price := range fetched {
		if price > 0 {
			c.cache.Set(priceKey(t), price, cache.DefaultExpiration)
		}
	}
	prices.Merge(fetched)
	return prices, err
}

func (c *Cached) History(ctx context.Context, ticker string, start time.Time) ([]Point, error) {
	key := "hist:" + portfolio.NormalizeTicker(ticker) + ":" + start.Format(portfolio.DayLayout)
	if v, found := c.cache.Get(key); found {
		return v.([]Point), nil
	}
	points, err := c.src.History(ctx, ticker, start)
	if err != nil {
		return nil, err
	}
	if len(points) > 0 {
		c.cache.Set(key, points, cache.DefaultExpiration)
	}
	return points, nil
}

func priceKey(ticker string) string {
	return "px:" + ticker
}
