package portfolio

import (
	"fmt"
	"time"
)

// AddProfile inserts p into the document. Names are unique.
func (d *Document) AddProfile(p *Profile, now time.Time) error {
	if p.Name == "" {
		return invalidAllocation("profile name is required")
	}
	if p.Principal < 0 {
		return invalidAllocation("principal must not be negative, got %.2f", p.Principal)
	}
	if _, exists := d.Profiles[p.Name]; exists {
		return fmt.Errorf("%w: %q", ErrProfileExists, p.Name)
	}
	d.Profiles[p.Name] = p
	d.Log(now, fmt.Sprintf("Created profile %s with principal %.2f %s", p.Name, p.Principal, p.Currency))
	return nil
}

// RemoveProfile deletes the named profile with all its assets and logs.
func (d *Document) RemoveProfile(name string, now time.Time) error {
	if _, err := d.Profile(name); err != nil {
		return err
	}
	delete(d.Profiles, name)
	d.Log(now, fmt.Sprintf("Removed profile %s", name))
	return nil
}

// SetAsset creates or updates a holding. The profile is left unchanged when
// the new target would push the sum of targets past 100.
func (p *Profile) SetAsset(ticker string, target, units float64) error {
	ticker = NormalizeTicker(ticker)
	if ticker == "" {
		return invalidAllocation("ticker is required")
	}
	if target < 0 || target > 100 {
		return invalidAllocation("target for %s must be within [0, 100], got %.2f", ticker, target)
	}
	if units < 0 {
		return invalidAllocation("units for %s must not be negative, got %f", ticker, units)
	}

	others := p.TargetSum()
	existing, found := p.Asset(ticker)
	if found {
		others -= existing.Target
	}
	if others+target > 100+epsilon {
		return invalidAllocation("target for %s would bring allocation to %.2f%%", ticker, others+target)
	}

	if found {
		existing.Target = target
		existing.Units = units
		return nil
	}
	p.Assets = append(p.Assets, &Asset{Ticker: ticker, Units: units, Target: target})
	return nil
}

// RemoveAsset deletes a holding together with its purchase history.
func (p *Profile) RemoveAsset(ticker string) error {
	ticker = NormalizeTicker(ticker)
	for i, a := range p.Assets {
		if a.Ticker == ticker {
			p.Assets = append(p.Assets[:i], p.Assets[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrAssetNotFound, ticker)
}

// SetDriftTolerance changes the drift threshold, within [0.5, 20].
func (p *Profile) SetDriftTolerance(tolerance float64) error {
	if tolerance < MinDriftTolerance || tolerance > MaxDriftTolerance {
		return invalidAllocation("drift tolerance must be within [%.1f, %.1f], got %.2f",
			MinDriftTolerance, MaxDriftTolerance, tolerance)
	}
	p.DriftTolerance = tolerance
	return nil
}

// SetYearlyGoal changes the yearly growth goal used for projections.
func (p *Profile) SetYearlyGoal(pct float64) error {
	if pct < 0 || pct > 100 {
		return invalidAllocation("yearly goal must be within [0, 100], got %.2f", pct)
	}
	p.YearlyGoalPct = pct
	return nil
}

// SetBenchmark sets the benchmark ticker; an empty ticker clears it.
func (p *Profile) SetBenchmark(ticker string) {
	p.Benchmark = NormalizeTicker(ticker)
}
