// Package rebalance computes the trades needed to bring a profile back to its
// target allocation and applies them to the profile's bookkeeping.
package rebalance

import (
	"math"

	"github.com/camuig/alphastream/internal/portfolio"
)

type Action string

const (
	Buy  Action = "BUY"
	Sell Action = "SELL"
	Hold Action = "HOLD"
)

// HoldThresholdPct is the drift, in percentage points of the valuation base,
// below which an order is reported as HOLD.
const HoldThresholdPct = 0.1

// Order is the trade needed to move one asset to its target value.
type Order struct {
	Ticker       string  `json:"ticker"`
	Action       Action  `json:"action,omitempty"`
	Price        float64 `json:"price"`
	UnitDelta    float64 `json:"unit_delta"`
	ValueDelta   float64 `json:"value_delta"`
	CurrentValue float64 `json:"current_value"`
	TargetValue  float64 `json:"target_value"`
	CurrentPct   float64 `json:"current_pct"`
	TargetPct    float64 `json:"target_pct"`
	MissingPrice bool    `json:"missing_price,omitempty"`
}

// Plan is the full set of orders for a profile.
type Plan struct {
	Orders        []Order `json:"orders"`
	TotalTurnover float64 `json:"total_turnover"`
	CurrentValue  float64 `json:"current_value"`
	BaseValue     float64 `json:"base_value"`
}

// Err reports the tickers the plan could not price, or nil.
func (p Plan) Err() error {
	var missing []string
	for _, o := range p.Orders {
		if o.MissingPrice {
			missing = append(missing, o.Ticker)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &portfolio.MissingPriceError{Tickers: missing}
}

// ComputeOrders derives one order per asset, in asset order. When the profile
// has no market value yet the principal is used as the valuation base.
// Assets without a price are reported with MissingPrice set and take no part
// in the turnover.
func ComputeOrders(p *portfolio.Profile, prices portfolio.Prices) Plan {
	current := p.Value(prices)
	base := current
	if base == 0 {
		base = p.Principal
	}

	plan := Plan{
		Orders:       make([]Order, 0, len(p.Assets)),
		CurrentValue: current,
		BaseValue:    base,
	}

	for _, a := range p.Assets {
		o := Order{
			Ticker:      a.Ticker,
			TargetPct:   a.Target,
			TargetValue: a.Target / 100 * base,
		}

		price, ok := prices.Lookup(a.Ticker)
		if !ok {
			o.MissingPrice = true
			plan.Orders = append(plan.Orders, o)
			continue
		}

		o.Price = price
		o.CurrentValue = a.Units * price
		if current > 0 {
			o.CurrentPct = o.CurrentValue / current * 100
		}
		o.ValueDelta = o.TargetValue - o.CurrentValue
		o.UnitDelta = o.ValueDelta / price
		o.Action = action(o.ValueDelta, base)

		plan.TotalTurnover += math.Abs(o.ValueDelta)
		plan.Orders = append(plan.Orders, o)
	}

	return plan
}

func action(valueDelta, base float64) Action {
	if base <= 0 || math.Abs(valueDelta)/base*100 < HoldThresholdPct {
		return Hold
	}
	if valueDelta > 0 {
		return Buy
	}
	return Sell
}
