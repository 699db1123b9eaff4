// Package performance compares a profile's market value with its principal,
// its yearly growth goal and an optional benchmark.
package performance

import (
	"math"
	"time"

	"github.com/camuig/alphastream/internal/portfolio"
	"github.com/camuig/alphastream/internal/pricing"
)

const daysPerYear = 365.25

type Report struct {
	Profile       string  `json:"profile"`
	Currency      string  `json:"currency"`
	Principal     float64 `json:"principal"`
	CurrentValue  float64 `json:"current_value"`
	Growth        float64 `json:"growth"`
	GrowthPct     float64 `json:"growth_pct"`
	StartDate     string  `json:"start_date"`
	YearsElapsed  float64 `json:"years_elapsed"`
	YearlyGoalPct float64 `json:"yearly_goal_pct"`
	GoalValue     float64 `json:"goal_value"`
	// GoalGap is CurrentValue - GoalValue; negative means behind schedule.
	GoalGap      float64  `json:"goal_gap"`
	OnTrack      bool     `json:"on_track"`
	AllocatedPct float64  `json:"allocated_pct"`
	Unpriced     []string `json:"unpriced,omitempty"`

	Benchmark          string   `json:"benchmark,omitempty"`
	BenchmarkReturnPct *float64 `json:"benchmark_return_pct,omitempty"`
	// BenchmarkValue is what the principal would be worth held in the benchmark.
	BenchmarkValue *float64 `json:"benchmark_value,omitempty"`
}

// Evaluate builds the report. history is the benchmark's daily closes since
// the profile's start date and may be empty.
func Evaluate(p *portfolio.Profile, prices portfolio.Prices, history []pricing.Point, now time.Time) Report {
	r := Report{
		Profile:       p.Name,
		Currency:      p.Currency,
		Principal:     p.Principal,
		CurrentValue:  p.Value(prices),
		StartDate:     p.StartDate.String(),
		YearlyGoalPct: p.YearlyGoalPct,
		AllocatedPct:  p.AllocatedPct,
		Unpriced:      prices.Missing(p.Tickers()),
		Benchmark:     p.Benchmark,
	}

	r.Growth = r.CurrentValue - p.Principal
	if p.Principal > 0 {
		r.GrowthPct = r.Growth / p.Principal * 100
	}

	r.YearsElapsed = YearsBetween(p.StartDate.Time, now)
	r.GoalValue = GoalValue(p.Principal, p.YearlyGoalPct, r.YearsElapsed)
	r.GoalGap = r.CurrentValue - r.GoalValue
	r.OnTrack = r.CurrentValue >= r.GoalValue

	if ret, ok := Return(history); ok {
		value := p.Principal * (1 + ret/100)
		r.BenchmarkReturnPct = &ret
		r.BenchmarkValue = &value
	}
	return r
}

// GoalValue compounds principal at goalPct per year.
func GoalValue(principal, goalPct, years float64) float64 {
	return principal * math.Pow(1+goalPct/100, years)
}

// YearsBetween returns the fractional years from start to now, never negative.
func YearsBetween(start, now time.Time) float64 {
	if start.IsZero() || !now.After(start) {
		return 0
	}
	return now.Sub(start).Hours() / 24 / daysPerYear
}

// Return is the percentage change from the first to the last close.
func Return(points []pricing.Point) (float64, bool) {
	if len(points) < 2 {
		return 0, false
	}
	first, last := points[0].Close, points[len(points)-1].Close
	if first <= 0 {
		return 0, false
	}
	return (last/first - 1) * 100, true
}
