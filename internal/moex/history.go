package moex

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/camuig/alphastream/internal/portfolio"
	"github.com/camuig/alphastream/internal/pricing"
)

// maxHistoryPages bounds pagination; ISS pages hold 100 sessions.
const maxHistoryPages = 100

type historyResponse struct {
	History issTable `json:"history"`
}

// History returns daily closes since start, paging through the ISS
// history endpoint.
func (c *Client) History(ctx context.Context, ticker string, start time.Time) ([]pricing.Point, error) {
	ticker = portfolio.NormalizeTicker(ticker)
	path := fmt.Sprintf("/iss/history/engines/stock/markets/shares/boards/%s/securities/%s.json", c.board, url.PathEscape(ticker))

	points := []pricing.Point{}
	offset := 0
	for page := 0; page < maxHistoryPages; page++ {
		query := url.Values{
			"iss.meta":        {"off"},
			"iss.only":        {"history"},
			"history.columns": {"TRADEDATE,CLOSE"},
			"from":            {start.Format(portfolio.DayLayout)},
			"start":           {strconv.Itoa(offset)},
		}

		var resp historyResponse
		if err := c.get(ctx, path, query, &resp); err != nil {
			return nil, fmt.Errorf("fetch history %s: %w", ticker, err)
		}
		rows := resp.History.Data
		if len(rows) == 0 {
			break
		}

		idx := resp.History.index()
		for _, row := range rows {
			day, _ := cell(row, idx, "TRADEDATE").(string)
			closePrice := toFloat64(cell(row, idx, "CLOSE"))
			if day == "" || closePrice <= 0 {
				continue // no trades that session
			}
			date, err := time.Parse(portfolio.DayLayout, day)
			if err != nil {
				c.logger.Warn("skip malformed ISS trade date", "ticker", ticker, "date", day)
				continue
			}
			points = append(points, pricing.Point{Date: date, Close: closePrice})
		}
		offset += len(rows)
	}

	return points, nil
}
