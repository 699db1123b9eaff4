package advisor

import (
	"fmt"
	"strings"

	"github.com/camuig/alphastream/internal/format"
	"github.com/camuig/alphastream/internal/portfolio"
)

const systemPrompt = `You review rebalancing proposals for long-term, buy-and-hold investment portfolios.
You are given a profile's target allocation, its current drift and the trades needed
to restore the targets. The trades only adjust bookkeeping; nothing is executed on a broker.

Rules:
1. Judge whether restoring the targets now is reasonable given the drift and turnover.
2. Point out concentration risk, unpriced holdings and unusually large turnover.
3. Do not suggest new tickers or different target weights.
4. Keep the summary under 80 words.

Answer strictly in JSON:
{
  "summary": "one paragraph",
  "risks": ["short risk statement"],
  "proceed": true
}`

func BuildUserPrompt(req *Request) string {
	p := req.Profile
	var sb strings.Builder

	sb.WriteString("## Profile\n")
	sb.WriteString(fmt.Sprintf("Name: %s\nPrincipal: %s\nYearly goal: %s\nDrift tolerance: %s\nDeployed: %s\n",
		p.Name,
		format.Money(p.Principal, p.Currency),
		format.Pct(p.YearlyGoalPct),
		format.Pct(p.DriftTolerance),
		format.Pct(p.AllocatedPct)))
	if p.LastRebalanced != nil {
		sb.WriteString(fmt.Sprintf("Last rebalanced: %s\n", p.LastRebalanced.Format(portfolio.StampLayout)))
	} else {
		sb.WriteString("Last rebalanced: never\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Drift\n")
	sb.WriteString(fmt.Sprintf("Status: %s, current value %s\n", req.Drift.Reason, format.Money(req.Drift.CurrentValue, p.Currency)))
	for _, d := range req.Drift.Details {
		sb.WriteString(fmt.Sprintf("- %s: actual %.2f%%, target %.2f%%, drift %.2f%%\n",
			d.Ticker, d.ActualPct, d.TargetPct, d.DriftPct))
	}
	sb.WriteString("\n")

	sb.WriteString("## Proposed trades\n")
	sb.WriteString("| Ticker | Action | Units | Value | Current % | Target % |\n")
	sb.WriteString("|--------|--------|-------|-------|-----------|----------|\n")
	for _, o := range req.Plan.Orders {
		action := string(o.Action)
		if o.MissingPrice {
			action = "NO PRICE"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %+.4f | %+.2f | %.2f | %.2f |\n",
			o.Ticker, action, o.UnitDelta, o.ValueDelta, o.CurrentPct, o.TargetPct))
	}
	sb.WriteString(fmt.Sprintf("\nTotal turnover: %s (%s of value)\n",
		format.Money(req.Plan.TotalTurnover, p.Currency),
		format.Pct(turnoverPct(req.Plan.TotalTurnover, req.Plan.BaseValue))))

	sb.WriteString("\nReview the proposal and answer in JSON.")

	return sb.String()
}

func turnoverPct(turnover, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return turnover / base * 100
}
