// Package drift decides whether a profile's actual allocation has diverged
// from its targets far enough to warrant a rebalance.
package drift

import (
	"math"
	"time"

	"github.com/camuig/alphastream/internal/portfolio"
)

// GracePeriod is the window after a rebalance during which drift is not reported.
const GracePeriod = 24 * time.Hour

// Reason explains the outcome of an evaluation.
type Reason string

const (
	ReasonNoValue         Reason = "no_value"
	ReasonDeploying       Reason = "deploying"
	ReasonNeverRebalanced Reason = "never_rebalanced"
	ReasonGracePeriod     Reason = "grace_period"
	ReasonDrift           Reason = "drift"
	ReasonBalanced        Reason = "balanced"
)

// Detail is one asset whose drift reached the profile's tolerance.
type Detail struct {
	Ticker    string  `json:"ticker"`
	DriftPct  float64 `json:"drift_pct"`
	ActualPct float64 `json:"actual_pct"`
	TargetPct float64 `json:"target_pct"`
}

// Result is the full outcome of Evaluate.
type Result struct {
	NeedsRebalance bool     `json:"needs_rebalance"`
	Details        []Detail `json:"details"`
	Reason         Reason   `json:"reason"`
	CurrentValue   float64  `json:"current_value"`
}

// Detect reports whether p needs rebalancing at the given prices, and which
// assets drifted. Details follow the profile's asset order.
func Detect(p *portfolio.Profile, prices portfolio.Prices, now time.Time) (bool, []Detail) {
	r := Evaluate(p, prices, now)
	return r.NeedsRebalance, r.Details
}

// Evaluate is Detect with the reason for the outcome attached.
// Tickers missing from prices count as price zero so that unpriceable
// holdings surface as drift instead of being skipped.
func Evaluate(p *portfolio.Profile, prices portfolio.Prices, now time.Time) Result {
	value := p.Value(prices)
	if value == 0 {
		return Result{Reason: ReasonNoValue}
	}

	if !p.FullyDeployed() {
		return Result{Reason: ReasonDeploying, CurrentValue: value}
	}

	if p.LastRebalanced == nil {
		return Result{NeedsRebalance: true, Reason: ReasonNeverRebalanced, CurrentValue: value}
	}

	if now.Sub(*p.LastRebalanced) < GracePeriod {
		return Result{Reason: ReasonGracePeriod, CurrentValue: value}
	}

	var details []Detail
	for _, a := range p.Assets {
		actual := a.Value(prices) / value * 100
		d := math.Abs(actual - a.Target)
		if d >= p.DriftTolerance {
			details = append(details, Detail{
				Ticker:    a.Ticker,
				DriftPct:  d,
				ActualPct: actual,
				TargetPct: a.Target,
			})
		}
	}

	if len(details) == 0 {
		return Result{Reason: ReasonBalanced, CurrentValue: value}
	}
	return Result{NeedsRebalance: true, Details: details, Reason: ReasonDrift, CurrentValue: value}
}
