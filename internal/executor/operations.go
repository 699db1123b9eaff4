package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/camuig/alphastream/internal/advisor"
	"github.com/camuig/alphastream/internal/deploy"
	"github.com/camuig/alphastream/internal/drift"
	"github.com/camuig/alphastream/internal/performance"
	"github.com/camuig/alphastream/internal/portfolio"
	"github.com/camuig/alphastream/internal/pricing"
	"github.com/camuig/alphastream/internal/rebalance"
)

// ProfileStatus is one tile of the dashboard.
type ProfileStatus struct {
	Name           string       `json:"name"`
	Currency       string       `json:"currency"`
	Principal      float64      `json:"principal"`
	Value          float64      `json:"value"`
	AllocatedPct   float64      `json:"allocated_pct"`
	Assets         int          `json:"assets"`
	LastRebalanced *time.Time   `json:"last_rebalanced"`
	Drift          drift.Result `json:"drift"`
	Unpriced       []string     `json:"unpriced,omitempty"`
}

// Overview is the global dashboard.
type Overview struct {
	Profiles []ProfileStatus      `json:"profiles"`
	Logs     []portfolio.LogEntry `json:"logs"`
	Prices   portfolio.Prices     `json:"prices"`
}

// Overview values every profile against a single price fetch.
func (e *Executor) Overview(ctx context.Context) *Overview {
	doc := e.Load(ctx)
	prices := e.latestPrices(ctx, doc.Tickers())
	now := e.now()

	ov := &Overview{Profiles: make([]ProfileStatus, 0, len(doc.Profiles)), Logs: doc.GlobalLogs, Prices: prices}
	for _, name := range doc.Names() {
		p := doc.Profiles[name]
		ov.Profiles = append(ov.Profiles, ProfileStatus{
			Name:           p.Name,
			Currency:       p.Currency,
			Principal:      p.Principal,
			Value:          p.Value(prices),
			AllocatedPct:   p.AllocatedPct,
			Assets:         len(p.Assets),
			LastRebalanced: p.LastRebalanced,
			Drift:          drift.Evaluate(p, prices, now),
			Unpriced:       prices.Missing(p.Tickers()),
		})
	}
	return ov
}

// Analysis is the read-only view of one profile: drift, the orders that
// would restore the targets and the cost basis of each asset.
type Analysis struct {
	Profile      *portfolio.Profile `json:"profile"`
	Prices       portfolio.Prices   `json:"prices"`
	Drift        drift.Result       `json:"drift"`
	Plan         rebalance.Plan     `json:"plan"`
	AverageCosts map[string]float64 `json:"average_costs,omitempty"`
	Unpriced     []string           `json:"unpriced,omitempty"`
}

func (e *Executor) Analyze(ctx context.Context, name string) (*Analysis, error) {
	p, err := e.Profile(ctx, name)
	if err != nil {
		return nil, err
	}
	prices := e.latestPrices(ctx, p.Tickers())

	a := &Analysis{
		Profile:  p,
		Prices:   prices,
		Drift:    drift.Evaluate(p, prices, e.now()),
		Plan:     rebalance.ComputeOrders(p, prices),
		Unpriced: prices.Missing(p.Tickers()),
	}
	for _, asset := range p.Assets {
		if cost, ok := deploy.AverageCost(asset, p.AllocatedPct); ok {
			if a.AverageCosts == nil {
				a.AverageCosts = make(map[string]float64)
			}
			a.AverageCosts[asset.Ticker] = cost
		}
	}
	return a, nil
}

// Review asks the advisor about the profile's current rebalance plan. The
// exchange is audited whether or not the review succeeds.
func (e *Executor) Review(ctx context.Context, name string) (*Analysis, *advisor.Review, error) {
	if e.reviewer == nil {
		return nil, nil, ErrAdvisorDisabled
	}
	a, err := e.Analyze(ctx, name)
	if err != nil {
		return nil, nil, err
	}

	review, raw, err := e.reviewer.Review(ctx, &advisor.Request{Profile: a.Profile, Drift: a.Drift, Plan: a.Plan})
	if auditErr := e.auditor.RecordAdvice(ctx, name, review, raw, err); auditErr != nil {
		e.logger.Error("failed to save advisor log", "profile", name, "error", auditErr)
	}
	if err != nil {
		return a, nil, fmt.Errorf("advisor review: %w", err)
	}
	return a, review, nil
}

// Rebalance applies the target allocation to the profile's units and saves
// it. Audit and notification happen only after a successful save.
func (e *Executor) Rebalance(ctx context.Context, name string) (*rebalance.Execution, error) {
	var exec *rebalance.Execution
	p, err := e.mutateProfile(ctx, name, true, func(p *portfolio.Profile, prices portfolio.Prices) error {
		var err error
		exec, err = rebalance.Execute(p, prices, e.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("profile rebalanced",
		"profile", name, "record", exec.Record.ID, "changes", len(exec.Record.Changes), "skipped", exec.Skipped)
	if err := e.auditor.RecordRebalance(ctx, name, exec); err != nil {
		e.logger.Error("failed to audit rebalance", "profile", name, "error", err)
	}
	e.notifier.NotifyRebalance(p, exec)
	return exec, nil
}

// Deploy records a capital deployment of pct percent of the principal on
// date. A zero date means today.
func (e *Executor) Deploy(ctx context.Context, name string, pct float64, date time.Time) (*deploy.Deployment, error) {
	if date.IsZero() {
		date = e.now()
	}
	var dep *deploy.Deployment
	p, err := e.mutateProfile(ctx, name, true, func(p *portfolio.Profile, prices portfolio.Prices) error {
		var err error
		dep, err = deploy.Record(p, pct, date, prices, e.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("capital deployed",
		"profile", name, "pct", dep.Pct, "amount", dep.Amount, "allocated_pct", dep.AllocatedPct)
	if err := e.auditor.RecordDeployment(ctx, name, dep); err != nil {
		e.logger.Error("failed to audit deployment", "profile", name, "error", err)
	}
	e.notifier.NotifyDeployment(p, dep)
	return dep, nil
}

// AverageCost returns the weighted-average purchase price of one asset. The
// boolean is false until the profile is fully deployed or when the asset has
// no purchases.
func (e *Executor) AverageCost(ctx context.Context, name, ticker string) (float64, bool, error) {
	p, err := e.Profile(ctx, name)
	if err != nil {
		return 0, false, err
	}
	asset, ok := p.Asset(ticker)
	if !ok {
		return 0, false, fmt.Errorf("%w: %s", portfolio.ErrAssetNotFound, portfolio.NormalizeTicker(ticker))
	}
	cost, ok := deploy.AverageCost(asset, p.AllocatedPct)
	return cost, ok, nil
}

// Performance reports growth against the principal, the yearly goal and the
// benchmark. A benchmark history failure leaves the benchmark fields empty.
func (e *Executor) Performance(ctx context.Context, name string) (*performance.Report, error) {
	p, err := e.Profile(ctx, name)
	if err != nil {
		return nil, err
	}
	prices := e.latestPrices(ctx, p.Tickers())

	var history []pricing.Point
	if p.Benchmark != "" {
		history, err = e.prices.History(ctx, p.Benchmark, p.StartDate.Time)
		if err != nil {
			e.logger.Warn("benchmark history unavailable", "profile", name, "benchmark", p.Benchmark, "error", err)
			history = nil
		}
	}
	report := performance.Evaluate(p, prices, history, e.now())
	return &report, nil
}

// Trades returns the profile's rebalance history, newest first.
func (e *Executor) Trades(ctx context.Context, name string) ([]string, error) {
	p, err := e.Profile(ctx, name)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(p.RebalanceEvents))
	for _, rec := range p.RebalanceEvents {
		lines = append(lines, rec.Line())
	}
	return lines, nil
}

// CheckDrift evaluates every profile against one price fetch. Used by the
// drift monitor.
func (e *Executor) CheckDrift(ctx context.Context) ([]*portfolio.Profile, []drift.Result) {
	doc := e.Load(ctx)
	prices := e.latestPrices(ctx, doc.Tickers())
	now := e.now()

	names := doc.Names()
	profiles := make([]*portfolio.Profile, 0, len(names))
	results := make([]drift.Result, 0, len(names))
	for _, name := range names {
		p := doc.Profiles[name]
		profiles = append(profiles, p)
		results = append(results, drift.Evaluate(p, prices, now))
	}
	return profiles, results
}

// RecordDrift stores a drift snapshot for the audit trail.
func (e *Executor) RecordDrift(ctx context.Context, name string, result drift.Result) error {
	return e.auditor.RecordDrift(ctx, name, result)
}

// NotifyDrift forwards a drift alert to the operator.
func (e *Executor) NotifyDrift(p *portfolio.Profile, result drift.Result) {
	e.notifier.NotifyDrift(p, result)
}

// NotifyError forwards an unexpected failure to the operator.
func (e *Executor) NotifyError(context string, err error) {
	e.notifier.NotifyError(context, err)
}
