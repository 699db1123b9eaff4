package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/camuig/alphastream/internal/logger"
	"github.com/camuig/alphastream/internal/portfolio"
)

type mockSource struct {
	mock.Mock
	name string
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) LatestPrices(ctx context.Context, tickers []string) (portfolio.Prices, error) {
	args := m.Called(ctx, tickers)
	prices, _ := args.Get(0).(portfolio.Prices)
	return prices, args.Error(1)
}

func (m *mockSource) History(ctx context.Context, ticker string, start time.Time) ([]Point, error) {
	args := m.Called(ctx, ticker, start)
	points, _ := args.Get(0).([]Point)
	return points, args.Error(1)
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"VTI", "BND"}, Dedupe([]string{"vti", " BND ", "", "VTI"}))
}

func TestCached_LatestPrices(t *testing.T) {
	ctx := context.Background()
	src := &mockSource{name: "yahoo"}
	src.On("LatestPrices", ctx, []string{"VTI", "BND"}).
		Return(portfolio.Prices{"VTI": 250}, nil).Once()
	src.On("LatestPrices", ctx, []string{"BND"}).
		Return(portfolio.Prices{"BND": 72}, nil).Once()

	c := NewCached(src, time.Minute)

	first, err := c.LatestPrices(ctx, []string{"VTI", "BND"})
	require.NoError(t, err)
	assert.Equal(t, portfolio.Prices{"VTI": 250}, first)

	// VTI is served from cache, BND is retried.
	second, err := c.LatestPrices(ctx, []string{"VTI", "BND"})
	require.NoError(t, err)
	assert.Equal(t, portfolio.Prices{"VTI": 250, "BND": 72}, second)

	third, err := c.LatestPrices(ctx, []string{"bnd", "VTI"})
	require.NoError(t, err)
	assert.Len(t, third, 2)

	src.AssertExpectations(t)
	assert.Equal(t, "yahoo+cache", c.Name())
}

func TestCached_History(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := []Point{{Date: start, Close: 100}, {Date: start.AddDate(0, 0, 1), Close: 101}}

	src := &mockSource{name: "yahoo"}
	src.On("History", ctx, "SPY", start).Return(points, nil).Once()

	c := NewCached(src, time.Minute)
	for i := 0; i < 3; i++ {
		got, err := c.History(ctx, "SPY", start)
		require.NoError(t, err)
		assert.Equal(t, points, got)
	}
	src.AssertExpectations(t)
}

func TestChain_FallsBackForMissingTickers(t *testing.T) {
	ctx := context.Background()
	primary := &mockSource{name: "yahoo"}
	primary.On("LatestPrices", ctx, []string{"VTI", "SBER"}).
		Return(portfolio.Prices{"VTI": 250}, nil)
	secondary := &mockSource{name: "moex"}
	secondary.On("LatestPrices", ctx, []string{"SBER"}).
		Return(portfolio.Prices{"SBER": 310.5}, nil)

	chain := NewChain(logger.Discard(), primary, secondary)
	prices, err := chain.LatestPrices(ctx, []string{"VTI", "SBER"})

	require.NoError(t, err)
	assert.Equal(t, portfolio.Prices{"VTI": 250, "SBER": 310.5}, prices)
	assert.Equal(t, "yahoo>moex", chain.Name())
	primary.AssertExpectations(t)
	secondary.AssertExpectations(t)
}

func TestChain_SkipsFailingSource(t *testing.T) {
	ctx := context.Background()
	broken := &mockSource{name: "tinkoff"}
	broken.On("LatestPrices", ctx, []string{"VTI"}).Return(nil, errors.New("unavailable"))
	ok := &mockSource{name: "yahoo"}
	ok.On("LatestPrices", ctx, []string{"VTI"}).Return(portfolio.Prices{"VTI": 250}, nil)

	prices, err := NewChain(logger.Discard(), broken, ok).LatestPrices(ctx, []string{"VTI"})

	require.NoError(t, err)
	assert.Equal(t, 250.0, prices["VTI"])
}

func TestChain_AllSourcesFail(t *testing.T) {
	ctx := context.Background()
	a := &mockSource{name: "a"}
	a.On("LatestPrices", ctx, []string{"VTI"}).Return(nil, errors.New("down"))
	b := &mockSource{name: "b"}
	b.On("LatestPrices", ctx, []string{"VTI"}).Return(nil, errors.New("down too"))

	prices, err := NewChain(logger.Discard(), a, b).LatestPrices(ctx, []string{"VTI"})

	require.Error(t, err)
	assert.Empty(t, prices)
	assert.Contains(t, err.Error(), "down too")
}

func TestChain_PartialResultIsNotAnError(t *testing.T) {
	ctx := context.Background()
	a := &mockSource{name: "a"}
	a.On("LatestPrices", ctx, []string{"VTI", "NOPE"}).Return(portfolio.Prices{"VTI": 1}, nil)

	prices, err := NewChain(logger.Discard(), a).LatestPrices(ctx, []string{"VTI", "NOPE"})

	require.NoError(t, err)
	assert.Equal(t, []string{"NOPE"}, prices.Missing([]string{"VTI", "NOPE"}))
}

func TestChain_History(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := []Point{{Date: start, Close: 10}}

	a := &mockSource{name: "a"}
	a.On("History", ctx, "SPY", start).Return([]Point{}, nil)
	b := &mockSource{name: "b"}
	b.On("History", ctx, "SPY", start).Return(points, nil)

	got, err := NewChain(logger.Discard(), a, b).History(ctx, "SPY", start)

	require.NoError(t, err)
	assert.Equal(t, points, got)
}
