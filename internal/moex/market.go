package moex

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/camuig/alphastream/internal/portfolio"
)

type securitiesResponse struct {
	Securities issTable `json:"securities"`
	Marketdata issTable `json:"marketdata"`
}

// LatestPrices returns the last trade price per ticker, falling back to the
// previous session close while the market is shut.
func (c *Client) LatestPrices(ctx context.Context, tickers []string) (portfolio.Prices, error) {
	prices := make(portfolio.Prices)
	if len(tickers) == 0 {
		return prices, nil
	}

	path := fmt.Sprintf("/iss/engines/stock/markets/shares/boards/%s/securities.json", c.board)
	query := url.Values{
		"iss.meta":           {"off"},
		"iss.only":           {"securities,marketdata"},
		"securities":         {strings.Join(tickers, ",")},
		"securities.columns": {"SECID,PREVPRICE"},
		"marketdata.columns": {"SECID,LAST"},
	}

	var iss securitiesResponse
	if err := c.get(ctx, path, query, &iss); err != nil {
		return nil, fmt.Errorf("fetch latest prices: %w", err)
	}

	idx := iss.Marketdata.index()
	for _, row := range iss.Marketdata.Data {
		ticker, _ := cell(row, idx, "SECID").(string)
		if ticker == "" {
			continue
		}
		if last := toFloat64(cell(row, idx, "LAST")); last > 0 {
			prices[ticker] = last
		}
	}

	idx = iss.Securities.index()
	for _, row := range iss.Securities.Data {
		ticker, _ := cell(row, idx, "SECID").(string)
		if ticker == "" {
			continue
		}
		if _, ok := prices[ticker]; ok {
			continue
		}
		if prev := toFloat64(cell(row, idx, "PREVPRICE")); prev > 0 {
			prices[ticker] = prev
		}
	}

	if missing := prices.Missing(tickers); len(missing) > 0 {
		c.logger.Debug("MOEX returned no price", "tickers", missing)
	}
	return prices, nil
}
