package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/camuig/alphastream/internal/advisor"
	"github.com/camuig/alphastream/internal/deploy"
	"github.com/camuig/alphastream/internal/drift"
	"github.com/camuig/alphastream/internal/executor"
	"github.com/camuig/alphastream/internal/format"
	"github.com/camuig/alphastream/internal/performance"
	"github.com/camuig/alphastream/internal/portfolio"
	"github.com/camuig/alphastream/internal/rebalance"
)

// printMarkdown renders md for the terminal, falling back to the raw text
// when rendering fails.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Fprintf(os.Stderr, "render markdown: %v\n", err)
	fmt.Print(md)
}

func lastRebalanced(p *portfolio.Profile) string {
	if p.LastRebalanced == nil {
		return "never"
	}
	return p.LastRebalanced.Format(portfolio.StampLayout)
}

func status(r drift.Result) string {
	if r.NeedsRebalance {
		return "**rebalance** (" + string(r.Reason) + ")"
	}
	return string(r.Reason)
}

func overviewMarkdown(ov *executor.Overview) string {
	var sb strings.Builder
	sb.WriteString("# Profiles\n\n")
	if len(ov.Profiles) == 0 {
		sb.WriteString("No profiles yet.\n")
		return sb.String()
	}
	sb.WriteString("| Profile | Value | Principal | Deployed | Assets | Last rebalanced | Status |\n")
	sb.WriteString("|---|---:|---:|---:|---:|---|---|\n")
	for _, p := range ov.Profiles {
		last := "never"
		if p.LastRebalanced != nil {
			last = p.LastRebalanced.Format(portfolio.StampLayout)
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %d | %s | %s |\n",
			p.Name, format.Money(p.Value, p.Currency), format.Money(p.Principal, p.Currency),
			format.Pct(p.AllocatedPct), p.Assets, last, status(p.Drift))
	}
	for _, p := range ov.Profiles {
		if len(p.Unpriced) > 0 {
			fmt.Fprintf(&sb, "\n%s: no price for %s\n", p.Name, strings.Join(p.Unpriced, ", "))
		}
	}
	return sb.String()
}

func profileMarkdown(p *portfolio.Profile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", p.Name)
	fmt.Fprintf(&sb, "- Principal: %s\n", format.Money(p.Principal, p.Currency))
	fmt.Fprintf(&sb, "- Start date: %s\n", p.StartDate)
	fmt.Fprintf(&sb, "- Yearly goal: %s\n", format.Pct(p.YearlyGoalPct))
	fmt.Fprintf(&sb, "- Drift tolerance: %s\n", format.Pct(p.DriftTolerance))
	if p.Benchmark != "" {
		fmt.Fprintf(&sb, "- Benchmark: %s\n", p.Benchmark)
	}
	fmt.Fprintf(&sb, "- Deployed: %s\n", format.Pct(p.AllocatedPct))
	fmt.Fprintf(&sb, "- Last rebalanced: %s\n", lastRebalanced(p))

	if len(p.Assets) > 0 {
		sb.WriteString("\n| Ticker | Target | Units | Lots |\n|---|---:|---:|---:|\n")
		for _, a := range p.Assets {
			fmt.Fprintf(&sb, "| %s | %s | %s | %d |\n", a.Ticker, format.Pct(a.Target), format.Units(a.Units), len(a.Purchases))
		}
	}
	return sb.String()
}

func driftMarkdown(a *executor.Analysis) string {
	p := a.Profile
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Drift: %s\n\n", p.Name)
	fmt.Fprintf(&sb, "Value %s, tolerance %s, status %s\n", format.Money(a.Drift.CurrentValue, p.Currency),
		format.Pct(p.DriftTolerance), status(a.Drift))
	if len(a.Drift.Details) > 0 {
		sb.WriteString("\n| Ticker | Actual | Target | Drift |\n|---|---:|---:|---:|\n")
		for _, d := range a.Drift.Details {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n",
				d.Ticker, format.Pct(d.ActualPct), format.Pct(d.TargetPct), format.Pct(d.DriftPct))
		}
	}
	if len(a.Unpriced) > 0 {
		fmt.Fprintf(&sb, "\nNo price for %s\n", strings.Join(a.Unpriced, ", "))
	}
	return sb.String()
}

func ordersMarkdown(a *executor.Analysis, review *advisor.Review) string {
	p := a.Profile
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Orders: %s\n\n", p.Name)
	fmt.Fprintf(&sb, "Valuation base %s\n\n", format.Money(a.Plan.BaseValue, p.Currency))
	sb.WriteString("| Ticker | Action | Units | Value | Current | Target |\n|---|---|---:|---:|---:|---:|\n")
	for _, o := range a.Plan.Orders {
		action := string(o.Action)
		if o.MissingPrice {
			action = "NO PRICE"
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s |\n",
			o.Ticker, action, format.Units(o.UnitDelta), format.SignedMoney(o.ValueDelta, p.Currency),
			format.Pct(o.CurrentPct), format.Pct(o.TargetPct))
	}
	fmt.Fprintf(&sb, "\nTotal turnover %s\n", format.Money(a.Plan.TotalTurnover, p.Currency))

	if review != nil {
		verdict := "hold off"
		if review.Proceed {
			verdict = "proceed"
		}
		fmt.Fprintf(&sb, "\n## Advisor: %s\n\n%s\n", verdict, review.Summary)
		for _, r := range review.Risks {
			fmt.Fprintf(&sb, "- %s\n", r)
		}
	}
	return sb.String()
}

func executionMarkdown(p *portfolio.Profile, exec *rebalance.Execution) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Rebalanced %s\n\n", p.Name)
	fmt.Fprintf(&sb, "Value %s\n\n", format.Money(exec.CurrentValue, p.Currency))
	if len(exec.Record.Changes) == 0 {
		sb.WriteString("Already at target, no units changed.\n")
	} else {
		sb.WriteString("| Ticker | Action | Units | Price |\n|---|---|---:|---:|\n")
		for _, c := range exec.Record.Changes {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n",
				c.Ticker, c.Action, format.Units(c.Delta), format.Money(c.Price, p.Currency))
		}
	}
	if len(exec.Skipped) > 0 {
		fmt.Fprintf(&sb, "\nNot priced, left unchanged: %s\n", strings.Join(exec.Skipped, ", "))
	}
	return sb.String()
}

func tradesMarkdown(name string, lines []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Trades: %s\n\n", name)
	if len(lines) == 0 {
		sb.WriteString("No rebalances yet.\n")
		return sb.String()
	}
	for _, l := range lines {
		fmt.Fprintf(&sb, "- %s\n", l)
	}
	return sb.String()
}

func deploymentMarkdown(p *portfolio.Profile, dep *deploy.Deployment) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Deployed %s of %s\n\n", format.Pct(dep.Pct), p.Name)
	fmt.Fprintf(&sb, "Amount %s, now %s allocated\n\n", format.Money(dep.Amount, p.Currency), format.Pct(dep.AllocatedPct))
	sb.WriteString("| Ticker | Amount | Price | Units |\n|---|---:|---:|---:|\n")
	for _, lot := range dep.Lots {
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", lot.Ticker,
			format.Money(lot.Purchase.Amount, p.Currency), format.Money(lot.Purchase.Price, p.Currency),
			format.Units(lot.Purchase.Quantity))
	}
	return sb.String()
}

func performanceMarkdown(r *performance.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Performance: %s\n\n", r.Profile)
	sb.WriteString("| | |\n|---|---:|\n")
	fmt.Fprintf(&sb, "| Principal | %s |\n", format.Money(r.Principal, r.Currency))
	fmt.Fprintf(&sb, "| Current value | %s |\n", format.Money(r.CurrentValue, r.Currency))
	fmt.Fprintf(&sb, "| Growth | %s (%s) |\n", format.SignedMoney(r.Growth, r.Currency), format.SignedPct(r.GrowthPct))
	fmt.Fprintf(&sb, "| Since | %s (%.2f years) |\n", r.StartDate, r.YearsElapsed)
	fmt.Fprintf(&sb, "| Goal value at %s/year | %s |\n", format.Pct(r.YearlyGoalPct), format.Money(r.GoalValue, r.Currency))
	fmt.Fprintf(&sb, "| Versus goal | %s |\n", format.SignedMoney(r.GoalGap, r.Currency))
	if r.BenchmarkReturnPct != nil {
		fmt.Fprintf(&sb, "| %s since start | %s |\n", r.Benchmark, format.SignedPct(*r.BenchmarkReturnPct))
		fmt.Fprintf(&sb, "| Principal in %s | %s |\n", r.Benchmark, format.Money(*r.BenchmarkValue, r.Currency))
	}
	if len(r.Unpriced) > 0 {
		fmt.Fprintf(&sb, "\nNo price for %s, counted as zero.\n", strings.Join(r.Unpriced, ", "))
	}
	return sb.String()
}
