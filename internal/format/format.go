// Package format renders amounts, percentages and unit counts for people:
// Telegram messages, the dashboard and the CLI.
package format

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money renders amount in the currency's conventional form, e.g. "$1,234.50".
// Unknown currency codes fall back to "1234.50 XYZ".
func Money(amount float64, currency string) string {
	currency = strings.ToUpper(currency)
	cur := money.GetCurrency(currency)
	if cur == nil {
		return fmt.Sprintf("%s %s", decimal.NewFromFloat(amount).StringFixed(2), currency)
	}

	factor := decimal.NewFromInt(10).Pow(decimal.NewFromInt(int64(cur.Fraction)))
	minor := decimal.NewFromFloat(amount).Mul(factor).Round(0)
	return money.New(minor.IntPart(), currency).Display()
}

// SignedMoney is Money with an explicit plus sign for gains.
func SignedMoney(amount float64, currency string) string {
	if amount > 0 {
		return "+" + Money(amount, currency)
	}
	return Money(amount, currency)
}

func Pct(p float64) string {
	return fmt.Sprintf("%.2f%%", p)
}

func SignedPct(p float64) string {
	return fmt.Sprintf("%+.2f%%", p)
}

// Units renders a unit count with four decimals.
func Units(u float64) string {
	return decimal.NewFromFloat(u).StringFixed(4)
}
