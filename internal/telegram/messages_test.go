package telegram

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/camuig/alphastream/internal/config"
	"github.com/camuig/alphastream/internal/deploy"
	"github.com/camuig/alphastream/internal/drift"
	"github.com/camuig/alphastream/internal/logger"
	"github.com/camuig/alphastream/internal/portfolio"
	"github.com/camuig/alphastream/internal/rebalance"
)

var now = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func TestDriftMessage(t *testing.T) {
	p := portfolio.NewProfile("Growth", 400, now)
	r := drift.Result{
		NeedsRebalance: true,
		Reason:         drift.ReasonDrift,
		CurrentValue:   400,
		Details: []drift.Detail{
			{Ticker: "A", DriftPct: 15, ActualPct: 75, TargetPct: 60},
		},
	}

	msg := DriftMessage(p, r)

	assert.Contains(t, msg, "Growth")
	assert.Contains(t, msg, "$400.00")
	assert.Contains(t, msg, "A: 75.00% vs target 60.00% (drift 15.00%)")
}

func TestDriftMessage_NeverRebalanced(t *testing.T) {
	p := portfolio.NewProfile("Fresh", 1000, now)

	msg := DriftMessage(p, drift.Result{NeedsRebalance: true, Reason: drift.ReasonNeverRebalanced, CurrentValue: 1000})

	assert.Contains(t, msg, "never aligned")
}

func TestRebalanceMessage(t *testing.T) {
	p := portfolio.NewProfile("Growth", 400, now)
	exec := &rebalance.Execution{
		CurrentValue: 400,
		Record:       portfolio.RebalanceRecord{Summary: "A SELL 0.6000, B BUY 0.6000"},
		Skipped:      []string{"C"},
	}

	msg := RebalanceMessage(p, exec)

	assert.Contains(t, msg, "A SELL 0.6000, B BUY 0.6000")
	assert.Contains(t, msg, "left unchanged: C")
}

func TestDeploymentMessage(t *testing.T) {
	p := portfolio.NewProfile("Growth", 10000, now)
	dep := &deploy.Deployment{
		Pct:          25,
		Amount:       2500,
		AllocatedPct: 25,
		Lots: []deploy.Lot{
			{Ticker: "A", Purchase: portfolio.Purchase{Quantity: 15, Price: 100}},
		},
	}

	msg := DeploymentMessage(p, dep)

	assert.Contains(t, msg, "$2,500.00")
	assert.Contains(t, msg, "A: 15.0000 units @ $100.00")
	assert.Contains(t, msg, "Allocated: 25.00%")
}

func TestMessages_EscapeMarkdownInNames(t *testing.T) {
	p := portfolio.NewProfile("my_growth", 400, now)

	msg := DriftMessage(p, drift.Result{
		NeedsRebalance: true,
		Reason:         drift.ReasonDrift,
		CurrentValue:   400,
		Details:        []drift.Detail{{Ticker: "BRK_B", DriftPct: 15, ActualPct: 75, TargetPct: 60}},
	})
	assert.Contains(t, msg, `my\_growth`)
	assert.Contains(t, msg, `BRK\_B: 75.00%`)
	assert.Contains(t, msg, "*Rebalance required*")

	msg = RebalanceMessage(p, &rebalance.Execution{
		CurrentValue: 400,
		Record:       portfolio.RebalanceRecord{Summary: "BRK_B BUY 1.0000"},
		Skipped:      []string{"X_Y"},
	})
	assert.Contains(t, msg, `BRK\_B BUY 1.0000`)
	assert.Contains(t, msg, `X\_Y`)

	msg = DeploymentMessage(p, &deploy.Deployment{
		Pct: 10, Amount: 40, AllocatedPct: 10,
		Lots: []deploy.Lot{{Ticker: "BRK_B", Purchase: portfolio.Purchase{Quantity: 1, Price: 40}}},
	})
	assert.Contains(t, msg, `my\_growth`)
	assert.Contains(t, msg, `BRK\_B: 1.0000 units`)
}

func TestDisabledNotifierIsNoop(t *testing.T) {
	n := NewNotifier(config.TelegramConfig{}, logger.Discard())

	assert.False(t, n.Enabled())
	n.NotifyError("sweep", errors.New("boom"))
	n.NotifyStatus("started")
}
