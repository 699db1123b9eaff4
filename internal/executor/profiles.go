package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camuig/alphastream/internal/portfolio"
)

// CreateRequest describes a new profile. Zero fields take the configured
// defaults; Principal and YearlyGoalPct are pointers so an explicit zero survives.
type CreateRequest struct {
	Name          string
	Principal     *float64
	Currency      string
	YearlyGoalPct *float64
	StartDate     time.Time
}

func (e *Executor) CreateProfile(ctx context.Context, req CreateRequest) (*portfolio.Profile, error) {
	now := e.now()
	p := portfolio.NewProfile(req.Name, e.defaults.Principal, now)
	if req.Principal != nil {
		if *req.Principal < 0 {
			return nil, fmt.Errorf("%w: principal must not be negative, got %.2f", portfolio.ErrInvalidAllocation, *req.Principal)
		}
		p.Principal = *req.Principal
	}
	p.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if p.Currency == "" {
		p.Currency = e.defaults.Currency
	}
	p.YearlyGoalPct = e.defaults.YearlyGoalPct
	if req.YearlyGoalPct != nil {
		if err := p.SetYearlyGoal(*req.YearlyGoalPct); err != nil {
			return nil, err
		}
	}
	if e.defaults.DriftTolerance > 0 {
		p.DriftTolerance = e.defaults.DriftTolerance
	}
	if !req.StartDate.IsZero() {
		p.StartDate = portfolio.NewDay(req.StartDate)
	}

	err := e.mutate(ctx, func(doc *portfolio.Document) error {
		return doc.AddProfile(p, now)
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("profile created", "profile", p.Name, "principal", p.Principal, "currency", p.Currency)
	return p, nil
}

func (e *Executor) RemoveProfile(ctx context.Context, name string) error {
	err := e.mutate(ctx, func(doc *portfolio.Document) error {
		return doc.RemoveProfile(name, e.now())
	})
	if err != nil {
		return err
	}
	e.logger.Info("profile removed", "profile", name)
	return nil
}

// SetAsset adds or updates a holding. The ticker must be priceable by the
// configured source; an unknown ticker is rejected before anything is saved.
func (e *Executor) SetAsset(ctx context.Context, name, ticker string, target, units float64) (*portfolio.Asset, error) {
	ticker = portfolio.NormalizeTicker(ticker)
	if ticker == "" {
		return nil, fmt.Errorf("%w: ticker is required", portfolio.ErrInvalidAllocation)
	}
	prices := e.latestPrices(ctx, []string{ticker})
	if _, ok := prices.Lookup(ticker); !ok {
		return nil, &portfolio.MissingPriceError{Tickers: []string{ticker}}
	}

	var asset *portfolio.Asset
	_, err := e.mutateProfile(ctx, name, false, func(p *portfolio.Profile, _ portfolio.Prices) error {
		_, existed := p.Asset(ticker)
		if err := p.SetAsset(ticker, target, units); err != nil {
			return err
		}
		asset, _ = p.Asset(ticker)
		verb := "Added"
		if existed {
			verb = "Updated"
		}
		p.Log(e.now(), fmt.Sprintf("%s %s: target %.2f%%, units %.4f", verb, ticker, target, units))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return asset, nil
}

func (e *Executor) RemoveAsset(ctx context.Context, name, ticker string) error {
	_, err := e.mutateProfile(ctx, name, false, func(p *portfolio.Profile, _ portfolio.Prices) error {
		if err := p.RemoveAsset(ticker); err != nil {
			return err
		}
		p.Log(e.now(), fmt.Sprintf("Removed %s", portfolio.NormalizeTicker(ticker)))
		return nil
	})
	return err
}

// Settings is a partial update; nil fields are left unchanged.
// FullyDeployed marks a profile whose holdings were entered by hand as fully
// funded, which lifts the deployment gate. Deployment cannot be undone.
type Settings struct {
	DriftTolerance *float64 `json:"drift_tolerance"`
	YearlyGoalPct  *float64 `json:"yearly_goal_pct"`
	Benchmark      *string  `json:"benchmark"`
	FullyDeployed  *bool    `json:"fully_deployed"`
}

func (e *Executor) UpdateSettings(ctx context.Context, name string, s Settings) (*portfolio.Profile, error) {
	return e.mutateProfile(ctx, name, false, func(p *portfolio.Profile, _ portfolio.Prices) error {
		if s.DriftTolerance != nil {
			if err := p.SetDriftTolerance(*s.DriftTolerance); err != nil {
				return err
			}
			p.Log(e.now(), fmt.Sprintf("Drift tolerance set to %.2f%%", *s.DriftTolerance))
		}
		if s.YearlyGoalPct != nil {
			if err := p.SetYearlyGoal(*s.YearlyGoalPct); err != nil {
				return err
			}
			p.Log(e.now(), fmt.Sprintf("Yearly goal set to %.2f%%", *s.YearlyGoalPct))
		}
		if s.Benchmark != nil {
			p.SetBenchmark(*s.Benchmark)
			if p.Benchmark == "" {
				p.Log(e.now(), "Benchmark cleared")
			} else {
				p.Log(e.now(), fmt.Sprintf("Benchmark set to %s", p.Benchmark))
			}
		}
		if s.FullyDeployed != nil {
			if !*s.FullyDeployed {
				if p.FullyDeployed() {
					return fmt.Errorf("%w: a fully deployed profile cannot be marked undeployed", portfolio.ErrInvalidAllocation)
				}
				return nil
			}
			if !p.FullyDeployed() {
				p.Log(e.now(), fmt.Sprintf("Marked fully deployed (was %.2f%%)", p.AllocatedPct))
				p.MarkFullyDeployed()
			}
		}
		return nil
	})
}
