// Package pricing defines the price source contract the service layer depends
// on, plus the caching and fallback decorators wrapped around the concrete
// Yahoo, MOEX and Tinkoff sources.
package pricing

import (
	"context"
	"time"

	"github.com/camuig/alphastream/internal/portfolio"
)

// Point is one daily closing price.
type Point struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Source resolves market prices.
//
// LatestPrices omits tickers it cannot resolve instead of failing; an error
// means the source as a whole was unreachable. History returns closes in
// ascending date order, or an empty slice when nothing is available.
type Source interface {
	Name() string
	LatestPrices(ctx context.Context, tickers []string) (portfolio.Prices, error)
	History(ctx context.Context, ticker string, start time.Time) ([]Point, error)
}

// Dedupe normalizes tickers and drops blanks and duplicates, keeping order.
func Dedupe(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = portfolio.NormalizeTicker(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
