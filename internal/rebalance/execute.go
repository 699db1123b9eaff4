package rebalance

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/camuig/alphastream/internal/portfolio"
)

// NegligibleUnits is the smallest unit change that is written to the trade summary.
const NegligibleUnits = 1e-4

// Execution describes an applied rebalance.
type Execution struct {
	Record       portfolio.RebalanceRecord `json:"record"`
	CurrentValue float64                   `json:"current_value"`
	Skipped      []string                  `json:"skipped,omitempty"`
}

// Execute overwrites every priced asset's units with target value / price,
// stamps the profile as rebalanced and appends the audit entries. Units are
// recomputed from the target rather than adjusted by a delta so repeated
// rebalances do not accumulate floating-point error.
//
// A profile with zero market value is refused: there is nothing to rebalance
// against, and proceeding would zero every holding.
func Execute(p *portfolio.Profile, prices portfolio.Prices, now time.Time) (*Execution, error) {
	current := p.Value(prices)
	if current <= 0 {
		return nil, fmt.Errorf("rebalance %s: %w", p.Name, portfolio.ErrDegenerateValuation)
	}

	exec := &Execution{CurrentValue: current}
	var changes []portfolio.UnitChange
	var parts []string

	for _, a := range p.Assets {
		price, ok := prices.Lookup(a.Ticker)
		if !ok {
			exec.Skipped = append(exec.Skipped, a.Ticker)
			continue
		}

		old := a.Units
		a.Units = a.Target / 100 * current / price
		delta := a.Units - old
		if math.Abs(delta) < NegligibleUnits {
			continue
		}

		act := Buy
		if delta < 0 {
			act = Sell
		}
		changes = append(changes, portfolio.UnitChange{
			Ticker: a.Ticker,
			Action: string(act),
			Delta:  delta,
			Price:  price,
		})
		parts = append(parts, fmt.Sprintf("%s %s %s",
			a.Ticker, act, decimal.NewFromFloat(math.Abs(delta)).StringFixed(4)))
	}

	summary := strings.Join(parts, ", ")
	if summary == "" {
		summary = "no unit changes"
	}

	exec.Record = portfolio.RebalanceRecord{
		ID:        uuid.NewString(),
		Timestamp: now,
		Summary:   summary,
		Changes:   changes,
	}

	stamped := now
	p.LastRebalanced = &stamped
	p.AppendRebalance(exec.Record)
	p.Log(now, "Rebalanced: "+summary)

	return exec, nil
}
