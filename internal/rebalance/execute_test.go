package rebalance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camuig/alphastream/internal/portfolio"
)

func TestExecute_OverwritesUnits(t *testing.T) {
	p := twoAssetProfile()
	prices := portfolio.Prices{"A": 100, "B": 100}

	exec, err := Execute(p, prices, now)

	require.NoError(t, err)
	assert.InDelta(t, 2.4, p.Assets[0].Units, 1e-9)
	assert.InDelta(t, 1.6, p.Assets[1].Units, 1e-9)
	assert.InDelta(t, 400.0, exec.CurrentValue, 1e-9)
	assert.Equal(t, "A SELL 0.6000, B BUY 0.6000", exec.Record.Summary)
	assert.NotEmpty(t, exec.Record.ID)

	require.NotNil(t, p.LastRebalanced)
	assert.True(t, p.LastRebalanced.Equal(now))
	require.Len(t, p.RebalanceEvents, 1)
	assert.Equal(t, exec.Record.ID, p.RebalanceEvents[0].ID)
	require.Len(t, p.ActivityLog, 1)
	assert.Equal(t, "Rebalanced: A SELL 0.6000, B BUY 0.6000", p.ActivityLog[0].Event)
	assert.Equal(t, "2026-10-18 12:00: A SELL 0.6000, B BUY 0.6000", exec.Record.Line())
}

func TestExecute_ConservesValue(t *testing.T) {
	p := portfolio.NewProfile("Mixed", 10000, now)
	p.Assets = []*portfolio.Asset{
		{Ticker: "VTI", Units: 13.7, Target: 45},
		{Ticker: "BND", Units: 80.2, Target: 35},
		{Ticker: "GLD", Units: 2.1, Target: 20},
	}
	prices := portfolio.Prices{"VTI": 281.37, "BND": 72.9, "GLD": 241.05}
	before := p.Value(prices)

	_, err := Execute(p, prices, now)

	require.NoError(t, err)
	assert.InDelta(t, before, p.Value(prices), 1e-6)
}

func TestExecute_Idempotent(t *testing.T) {
	p := twoAssetProfile()
	prices := portfolio.Prices{"A": 123.45, "B": 67.89}

	_, err := Execute(p, prices, now)
	require.NoError(t, err)
	first := []float64{p.Assets[0].Units, p.Assets[1].Units}

	exec, err := Execute(p, prices, now.Add(time.Minute))
	require.NoError(t, err)

	assert.InDelta(t, first[0], p.Assets[0].Units, 1e-9)
	assert.InDelta(t, first[1], p.Assets[1].Units, 1e-9)
	assert.Empty(t, exec.Record.Changes)
	assert.Equal(t, "no unit changes", exec.Record.Summary)
}

func TestExecute_RefusesZeroValue(t *testing.T) {
	p := twoAssetProfile()

	exec, err := Execute(p, portfolio.Prices{}, now)

	assert.Nil(t, exec)
	assert.ErrorIs(t, err, portfolio.ErrDegenerateValuation)
	assert.Equal(t, 3.0, p.Assets[0].Units)
	assert.Equal(t, 1.0, p.Assets[1].Units)
	assert.Nil(t, p.LastRebalanced)
	assert.Empty(t, p.RebalanceEvents)
}

func TestExecute_SkipsUnpricedAssets(t *testing.T) {
	p := twoAssetProfile()

	exec, err := Execute(p, portfolio.Prices{"A": 100}, now)

	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, exec.Skipped)
	assert.Equal(t, 1.0, p.Assets[1].Units)
	// A is moved to 60% of the 300 that could be valued
	assert.InDelta(t, 1.8, p.Assets[0].Units, 1e-9)
}

func TestExecute_NegligibleChangesOmittedFromSummary(t *testing.T) {
	p := twoAssetProfile()
	p.Assets[0].Units = 2.40004
	p.Assets[1].Units = 1.6

	exec, err := Execute(p, portfolio.Prices{"A": 100, "B": 100}, now)

	require.NoError(t, err)
	assert.Equal(t, "no unit changes", exec.Record.Summary)
	// the overwrite happens regardless
	total := p.Value(portfolio.Prices{"A": 100, "B": 100})
	assert.InDelta(t, total*0.6/100, p.Assets[0].Units, 1e-12)
}

func TestExecute_CapsLogs(t *testing.T) {
	p := twoAssetProfile()
	prices := portfolio.Prices{"A": 100, "B": 100}

	for i := 0; i < portfolio.LogCap+10; i++ {
		_, err := Execute(p, prices, now.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
	}

	assert.Len(t, p.RebalanceEvents, portfolio.LogCap)
	assert.Len(t, p.ActivityLog, portfolio.LogCap)
	assert.True(t, p.RebalanceEvents[0].Timestamp.After(p.RebalanceEvents[1].Timestamp))
}
