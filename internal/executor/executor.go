// Package executor is the service layer between the outer surfaces (HTTP,
// CLI, drift monitor) and the allocation engine. Every mutation loads the
// whole document, applies one engine call and saves it back.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/camuig/alphastream/internal/advisor"
	"github.com/camuig/alphastream/internal/config"
	"github.com/camuig/alphastream/internal/deploy"
	"github.com/camuig/alphastream/internal/drift"
	"github.com/camuig/alphastream/internal/logger"
	"github.com/camuig/alphastream/internal/portfolio"
	"github.com/camuig/alphastream/internal/pricing"
	"github.com/camuig/alphastream/internal/rebalance"
)

var ErrAdvisorDisabled = errors.New("advisor is not configured")

// Store persists the whole profile document.
type Store interface {
	Load(ctx context.Context) (*portfolio.Document, error)
	Save(ctx context.Context, doc *portfolio.Document) error
}

// Auditor receives audit rows for applied changes.
type Auditor interface {
	RecordRebalance(ctx context.Context, profile string, exec *rebalance.Execution) error
	RecordDeployment(ctx context.Context, profile string, dep *deploy.Deployment) error
	RecordDrift(ctx context.Context, profile string, result drift.Result) error
	RecordAdvice(ctx context.Context, profile string, review *advisor.Review, raw string, reviewErr error) error
}

// Notifier tells the operator about applied changes.
type Notifier interface {
	NotifyDrift(p *portfolio.Profile, result drift.Result)
	NotifyRebalance(p *portfolio.Profile, exec *rebalance.Execution)
	NotifyDeployment(p *portfolio.Profile, dep *deploy.Deployment)
	NotifyError(context string, err error)
}

// Reviewer gives a second opinion on a rebalance proposal.
type Reviewer interface {
	Review(ctx context.Context, req *advisor.Request) (*advisor.Review, string, error)
}

type Executor struct {
	store    Store
	prices   pricing.Source
	auditor  Auditor
	notifier Notifier
	reviewer Reviewer
	defaults config.DefaultsConfig
	logger   *logger.Logger
	now      func() time.Time
}

type Option func(*Executor)

func WithAuditor(a Auditor) Option {
	return func(e *Executor) { e.auditor = a }
}

func WithNotifier(n Notifier) Option {
	return func(e *Executor) { e.notifier = n }
}

func WithReviewer(r Reviewer) Option {
	return func(e *Executor) { e.reviewer = r }
}

func WithDefaults(d config.DefaultsConfig) Option {
	return func(e *Executor) { e.defaults = d }
}

func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

func NewExecutor(store Store, prices pricing.Source, log *logger.Logger, opts ...Option) *Executor {
	e := &Executor{
		store:    store,
		prices:   prices,
		auditor:  nopAuditor{},
		notifier: nopNotifier{},
		defaults: config.DefaultsConfig{
			Principal:      10000,
			Currency:       portfolio.DefaultCurrency,
			YearlyGoalPct:  portfolio.DefaultYearlyGoalPct,
			DriftTolerance: portfolio.DefaultDriftTolerance,
		},
		logger: log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load returns the current document. A failed load yields an empty document
// so read paths keep working; a later save against it is refused by the
// store's revision check.
func (e *Executor) Load(ctx context.Context) *portfolio.Document {
	doc, err := e.store.Load(ctx)
	if err != nil {
		e.logger.Warn("profile store unavailable, using empty document", "error", err)
		return portfolio.NewDocument()
	}
	return doc
}

// Profile returns a copy-free view of the named profile from a fresh load.
func (e *Executor) Profile(ctx context.Context, name string) (*portfolio.Profile, error) {
	return e.Load(ctx).Profile(name)
}

// Names lists all profiles, sorted.
func (e *Executor) Names(ctx context.Context) []string {
	return e.Load(ctx).Names()
}

// mutate runs fn against a freshly loaded document and saves the result.
// Nothing is saved when fn fails.
func (e *Executor) mutate(ctx context.Context, fn func(doc *portfolio.Document) error) error {
	doc := e.Load(ctx)
	if err := fn(doc); err != nil {
		return err
	}
	if err := e.store.Save(ctx, doc); err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}
	return nil
}

// mutateProfile is mutate scoped to one profile. Prices for the profile's
// tickers are fetched after the load when withPrices is set.
func (e *Executor) mutateProfile(ctx context.Context, name string, withPrices bool,
	fn func(p *portfolio.Profile, prices portfolio.Prices) error) (*portfolio.Profile, error) {
	var profile *portfolio.Profile
	err := e.mutate(ctx, func(doc *portfolio.Document) error {
		p, err := doc.Profile(name)
		if err != nil {
			return err
		}
		prices := portfolio.Prices{}
		if withPrices {
			prices = e.latestPrices(ctx, p.Tickers())
		}
		profile = p
		return fn(p, prices)
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// latestPrices never fails: a source error is logged and whatever was
// resolved is returned.
func (e *Executor) latestPrices(ctx context.Context, tickers []string) portfolio.Prices {
	if len(tickers) == 0 {
		return portfolio.Prices{}
	}
	prices, err := e.prices.LatestPrices(ctx, tickers)
	if err != nil {
		e.logger.Warn("price fetch failed", "source", e.prices.Name(), "tickers", len(tickers), "error", err)
	}
	if prices == nil {
		prices = portfolio.Prices{}
	}
	if missing := prices.Missing(tickers); len(missing) > 0 {
		e.logger.Debug("unpriced tickers", "tickers", missing)
	}
	return prices
}

type nopAuditor struct{}

func (nopAuditor) RecordRebalance(context.Context, string, *rebalance.Execution) error { return nil }
func (nopAuditor) RecordDeployment(context.Context, string, *deploy.Deployment) error  { return nil }
func (nopAuditor) RecordDrift(context.Context, string, drift.Result) error             { return nil }
func (nopAuditor) RecordAdvice(context.Context, string, *advisor.Review, string, error) error {
	return nil
}

type nopNotifier struct{}

func (nopNotifier) NotifyDrift(*portfolio.Profile, drift.Result)             {}
func (nopNotifier) NotifyRebalance(*portfolio.Profile, *rebalance.Execution) {}
func (nopNotifier) NotifyDeployment(*portfolio.Profile, *deploy.Deployment)  {}
func (nopNotifier) NotifyError(string, error)                                {}
