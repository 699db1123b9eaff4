package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/camuig/alphastream/internal/deploy"
	"github.com/camuig/alphastream/internal/drift"
	"github.com/camuig/alphastream/internal/format"
	"github.com/camuig/alphastream/internal/portfolio"
	"github.com/camuig/alphastream/internal/rebalance"
)

func (n *Notifier) NotifyDrift(p *portfolio.Profile, r drift.Result) {
	n.send(DriftMessage(p, r))
}

func (n *Notifier) NotifyRebalance(p *portfolio.Profile, exec *rebalance.Execution) {
	n.send(RebalanceMessage(p, exec))
}

func (n *Notifier) NotifyDeployment(p *portfolio.Profile, dep *deploy.Deployment) {
	n.send(DeploymentMessage(p, dep))
}

// escape keeps user-supplied names and tickers from breaking Markdown entities.
func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func DriftMessage(p *portfolio.Profile, r drift.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🚨 *Rebalance required* %s\n", escape(p.Name))
	fmt.Fprintf(&sb, "Value: %s\n", format.Money(r.CurrentValue, p.Currency))

	if r.Reason == drift.ReasonNeverRebalanced {
		sb.WriteString("Fully deployed but never aligned to target.")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Tolerance: %s\n", format.Pct(p.DriftTolerance))
	for _, d := range r.Details {
		fmt.Fprintf(&sb, "• %s: %s vs target %s (drift %s)\n",
			escape(d.Ticker), format.Pct(d.ActualPct), format.Pct(d.TargetPct), format.Pct(d.DriftPct))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func RebalanceMessage(p *portfolio.Profile, exec *rebalance.Execution) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "⚖️ *Rebalanced* %s\n", escape(p.Name))
	fmt.Fprintf(&sb, "Value: %s\n", format.Money(exec.CurrentValue, p.Currency))
	sb.WriteString(escape(exec.Record.Summary))
	if len(exec.Skipped) > 0 {
		fmt.Fprintf(&sb, "\nNot priced, left unchanged: %s", escape(strings.Join(exec.Skipped, ", ")))
	}
	return sb.String()
}

func DeploymentMessage(p *portfolio.Profile, dep *deploy.Deployment) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🟢 *Deployed* %s of %s\n", format.Pct(dep.Pct), escape(p.Name))
	fmt.Fprintf(&sb, "Amount: %s\n", format.Money(dep.Amount, p.Currency))
	for _, lot := range dep.Lots {
		fmt.Fprintf(&sb, "• %s: %s units @ %s\n",
			escape(lot.Ticker), format.Units(lot.Purchase.Quantity), format.Money(lot.Purchase.Price, p.Currency))
	}
	fmt.Fprintf(&sb, "Allocated: %s", format.Pct(dep.AllocatedPct))
	return sb.String()
}
