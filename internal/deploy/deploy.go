// Package deploy tracks the gradual deployment of a profile's principal into
// its assets and the weighted-average cost that results.
package deploy

import (
	"fmt"
	"time"

	"github.com/camuig/alphastream/internal/portfolio"
)

const epsilon = 1e-9

// Lot is a purchase recorded for one ticker by a deployment.
type Lot struct {
	Ticker   string             `json:"ticker"`
	Purchase portfolio.Purchase `json:"purchase"`
}

// Deployment summarizes one Record call.
type Deployment struct {
	Pct          float64 `json:"pct"`
	Amount       float64 `json:"amount"`
	Lots         []Lot   `json:"lots"`
	AllocatedPct float64 `json:"allocated_pct"`
}

// Record deploys pct percent of the principal, split across assets by target
// weight, at the given prices. Every asset must be priced: a single missing
// price fails the whole call before any lot is written, since partial lots
// would skew the cost basis.
func Record(p *portfolio.Profile, pct float64, date time.Time, prices portfolio.Prices, now time.Time) (*Deployment, error) {
	if pct <= 0 {
		return nil, fmt.Errorf("%w: deployment must be positive, got %.2f%%", portfolio.ErrInvalidAllocation, pct)
	}
	if remaining := p.RemainingPct(); pct > remaining+epsilon {
		return nil, fmt.Errorf("%w: cannot deploy %.2f%%, only %.2f%% of principal remains",
			portfolio.ErrInvalidAllocation, pct, remaining)
	}
	if len(p.Assets) == 0 {
		return nil, fmt.Errorf("%w: profile %s has no assets to deploy into", portfolio.ErrInvalidAllocation, p.Name)
	}
	if missing := prices.Missing(p.Tickers()); len(missing) > 0 {
		return nil, &portfolio.MissingPriceError{Tickers: missing}
	}

	day := portfolio.NewDay(date)
	dep := &Deployment{
		Pct:    pct,
		Amount: pct / 100 * p.Principal,
	}

	for _, a := range p.Assets {
		assetPct := a.Target / 100 * pct
		amount := assetPct / 100 * p.Principal
		if amount <= 0 {
			continue
		}
		price, _ := prices.Lookup(a.Ticker)
		lot := portfolio.Purchase{
			Date:         day,
			Amount:       amount,
			Price:        price,
			Quantity:     amount / price,
			AllocatedPct: assetPct,
		}
		a.Purchases = append(a.Purchases, lot)
		a.Units += lot.Quantity
		dep.Lots = append(dep.Lots, Lot{Ticker: a.Ticker, Purchase: lot})
	}

	allocated := p.AllocatedPct + pct
	if portfolio.IsFullyAllocated(allocated) {
		allocated = portfolio.FullyAllocated
	}
	p.AllocatedPct = allocated
	dep.AllocatedPct = p.AllocatedPct
	p.Log(now, fmt.Sprintf("Deployed %.2f%% (%.2f %s) on %s across %d assets, %.2f%% of principal now allocated",
		pct, dep.Amount, p.Currency, day, len(dep.Lots), p.AllocatedPct))

	return dep, nil
}

// AverageCost returns the quantity-weighted average purchase price of a.
// It is only available once the profile is fully deployed and the asset has
// lots with a non-zero total quantity.
func AverageCost(a *portfolio.Asset, allocatedPct float64) (float64, bool) {
	if !portfolio.IsFullyAllocated(allocatedPct) || len(a.Purchases) == 0 {
		return 0, false
	}
	var amount, quantity float64
	for _, lot := range a.Purchases {
		amount += lot.Amount
		quantity += lot.Quantity
	}
	if quantity == 0 {
		return 0, false
	}
	return amount / quantity, true
}
