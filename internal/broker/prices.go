package broker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	pb "github.com/russianinvestments/invest-api-go-sdk/proto"

	"github.com/camuig/alphastream/internal/portfolio"
	"github.com/camuig/alphastream/internal/pricing"
)

// maxCandleWindow is the widest range the API serves daily candles for in one call.
const maxCandleWindow = 365 * 24 * time.Hour

// LatestPrices resolves tickers to instrument UIDs concurrently, then fetches
// all last prices in one call. Unknown tickers are logged and left out.
func (bc *BrokerClient) LatestPrices(ctx context.Context, tickers []string) (portfolio.Prices, error) {
	prices := make(portfolio.Prices)
	uids := bc.resolveAll(ctx, tickers)
	if len(uids) == 0 {
		return prices, nil
	}

	md := bc.Client.NewMarketDataServiceClient()
	resp, err := md.GetLastPrices(uids)
	if err != nil {
		return prices, fmt.Errorf("get last prices: %w", err)
	}

	for _, lp := range resp.GetLastPrices() {
		ticker, ok := tickerForUID(lp.GetInstrumentUid())
		if !ok {
			continue
		}
		if price := lp.GetPrice().ToFloat(); price > 0 {
			prices[ticker] = price
		}
	}
	return prices, nil
}

func (bc *BrokerClient) resolveAll(ctx context.Context, tickers []string) []string {
	concurrency := bc.Config.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		sem  = make(chan struct{}, concurrency)
		uids []string
	)

	for _, ticker := range tickers {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}

		go func(t string) {
			defer wg.Done()
			defer func() { <-sem }()

			uid, err := bc.ResolveTickerToUID(t)
			if err != nil {
				bc.Logger.Warn("resolve instrument", "ticker", t, "error", err)
				return
			}

			mu.Lock()
			uids = append(uids, uid)
			mu.Unlock()
		}(ticker)
	}

	wg.Wait()
	return uids
}

// History returns daily closes since start, requested in windows the API accepts.
func (bc *BrokerClient) History(ctx context.Context, ticker string, start time.Time) ([]pricing.Point, error) {
	uid, err := bc.ResolveTickerToUID(portfolio.NormalizeTicker(ticker))
	if err != nil {
		return nil, err
	}

	md := bc.Client.NewMarketDataServiceClient()
	points := []pricing.Point{}
	for _, w := range candleWindows(start, time.Now(), maxCandleWindow) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := md.GetCandles(
			uid,
			pb.CandleInterval_CANDLE_INTERVAL_DAY,
			w.from, w.to,
			pb.GetCandlesRequest_CANDLE_SOURCE_EXCHANGE,
			0,
		)
		if err != nil {
			return nil, fmt.Errorf("get candles %s: %w", ticker, err)
		}
		for _, c := range resp.GetCandles() {
			if closePrice := c.GetClose().ToFloat(); closePrice > 0 {
				points = append(points, pricing.Point{Date: c.GetTime().AsTime(), Close: closePrice})
			}
		}
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

type window struct {
	from, to time.Time
}

// candleWindows splits [from, to) into consecutive windows no wider than size.
func candleWindows(from, to time.Time, size time.Duration) []window {
	var out []window
	for from.Before(to) {
		end := from.Add(size)
		if end.After(to) {
			end = to
		}
		out = append(out, window{from: from, to: end})
		from = end
	}
	return out
}
