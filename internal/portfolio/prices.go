package portfolio

// Prices is a price snapshot keyed by ticker. Entries may be missing for
// tickers the price source could not resolve.
type Prices map[string]float64

// Lookup returns the price for ticker. Missing or non-positive prices are
// reported as unresolvable with a zero value.
func (p Prices) Lookup(ticker string) (float64, bool) {
	price, ok := p[ticker]
	if !ok || price <= 0 {
		return 0, false
	}
	return price, true
}

// Missing lists the tickers that have no resolvable price, in input order.
func (p Prices) Missing(tickers []string) []string {
	var missing []string
	for _, t := range tickers {
		if _, ok := p.Lookup(t); !ok {
			missing = append(missing, t)
		}
	}
	return missing
}

// Merge copies every resolvable price from other into p.
func (p Prices) Merge(other Prices) {
	for t, price := range other {
		if price > 0 {
			p[t] = price
		}
	}
}
