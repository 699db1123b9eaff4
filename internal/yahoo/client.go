// Package yahoo resolves prices through the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/camuig/alphastream/internal/logger"
	"github.com/camuig/alphastream/internal/portfolio"
	"github.com/camuig/alphastream/internal/pricing"
)

const (
	DefaultBaseURL     = "https://query1.finance.yahoo.com"
	defaultConcurrency = 4
	userAgent          = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

type Client struct {
	httpClient  *http.Client
	baseURL     string
	concurrency int
	logger      *logger.Logger
	now         func() time.Time
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

func NewClient(log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		baseURL:     DefaultBaseURL,
		concurrency: defaultConcurrency,
		logger:      log,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string {
	return "yahoo"
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Currency           string  `json:"currency"`
		Symbol             string  `json:"symbol"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// LatestPrices queries each ticker concurrently. Tickers Yahoo does not know
// are left out of the result.
func (c *Client) LatestPrices(ctx context.Context, tickers []string) (portfolio.Prices, error) {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		sem    = make(chan struct{}, c.concurrency)
		prices = make(portfolio.Prices, len(tickers))
		failed int
	)

	for _, ticker := range tickers {
		wg.Add(1)
		sem <- struct{}{}

		go func(t string) {
			defer wg.Done()
			defer func() { <-sem }()

			price, err := c.latest(ctx, t)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				c.logger.Warn("could not get price from yahoo", "ticker", t, "error", err)
				return
			}
			prices[t] = price
		}(ticker)
	}
	wg.Wait()

	if len(tickers) > 0 && failed == len(tickers) {
		if err := ctx.Err(); err != nil {
			return prices, err
		}
	}
	return prices, nil
}

func (c *Client) latest(ctx context.Context, ticker string) (float64, error) {
	result, err := c.chart(ctx, ticker, url.Values{"range": {"5d"}, "interval": {"1d"}})
	if err != nil {
		return 0, err
	}
	if result.Meta.RegularMarketPrice > 0 {
		return result.Meta.RegularMarketPrice, nil
	}
	points := closes(result)
	if len(points) == 0 {
		return 0, fmt.Errorf("no price data found")
	}
	return points[len(points)-1].Close, nil
}

// History returns daily closes from start until now. Sessions with a null
// close are skipped.
func (c *Client) History(ctx context.Context, ticker string, start time.Time) ([]pricing.Point, error) {
	query := url.Values{
		"period1":  {strconv.FormatInt(start.Unix(), 10)},
		"period2":  {strconv.FormatInt(c.now().Unix(), 10)},
		"interval": {"1d"},
	}
	result, err := c.chart(ctx, ticker, query)
	if err != nil {
		return nil, err
	}
	return closes(result), nil
}

func (c *Client) chart(ctx context.Context, ticker string, query url.Values) (*chartResult, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(ticker), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call yahoo chart API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo chart API returned status %d", resp.StatusCode)
	}

	var data chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode yahoo chart response: %w", err)
	}
	if data.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart API error: %s", data.Chart.Error.Description)
	}
	if len(data.Chart.Result) == 0 {
		return nil, fmt.Errorf("no chart result for %s", ticker)
	}
	return &data.Chart.Result[0], nil
}

func closes(r *chartResult) []pricing.Point {
	points := []pricing.Point{}
	if len(r.Indicators.Quote) == 0 {
		return points
	}
	quotes := r.Indicators.Quote[0].Close
	for i, ts := range r.Timestamp {
		if i >= len(quotes) || quotes[i] == nil || *quotes[i] <= 0 {
			continue
		}
		points = append(points, pricing.Point{Date: time.Unix(ts, 0).UTC(), Close: *quotes[i]})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}
