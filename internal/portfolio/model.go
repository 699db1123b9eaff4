// Package portfolio holds the allocation model shared by the drift detector,
// the rebalance calculator and the deployment tracker: profiles, their assets
// and purchase lots, and the audit logs a profile carries.
package portfolio

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	DefaultCurrency       = "USD"
	DefaultYearlyGoalPct  = 10.0
	DefaultDriftTolerance = 5.0
	MinDriftTolerance     = 0.5
	MaxDriftTolerance     = 20.0

	// FullyAllocated is the allocated_pct at which a profile's principal is
	// considered completely deployed into the market.
	FullyAllocated = 100.0

	// LogCap bounds both the activity log and the rebalance-event log.
	LogCap = 50

	// SchemaVersion is written into every encoded Document.
	SchemaVersion = 2

	epsilon = 1e-9
)

// Purchase is one capital-deployment lot applied to one asset. Lots are
// append-only and never mutated once recorded.
type Purchase struct {
	Date         Day     `json:"date"`
	Amount       float64 `json:"amount"`
	Price        float64 `json:"price"`
	Quantity     float64 `json:"quantity"`
	AllocatedPct float64 `json:"allocated_pct"`
}

// Asset is one ticker holding within a profile. Units is the single source of
// truth for how much is owned; Purchases only feed cost-basis tracking.
type Asset struct {
	Ticker    string     `json:"ticker"`
	Units     float64    `json:"units"`
	Target    float64    `json:"target"`
	Purchases []Purchase `json:"purchases,omitempty"`
}

// Value returns units * price, with unresolvable prices counting as zero.
func (a *Asset) Value(prices Prices) float64 {
	price, _ := prices.Lookup(a.Ticker)
	return a.Units * price
}

// LogEntry is one activity record, newest entries first.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
}

// UnitChange is the signed unit adjustment applied to one ticker by a rebalance.
type UnitChange struct {
	Ticker string  `json:"ticker"`
	Action string  `json:"action"`
	Delta  float64 `json:"delta"`
	Price  float64 `json:"price"`
}

// RebalanceRecord is the immutable audit entry written by a rebalance execution.
type RebalanceRecord struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Summary   string       `json:"summary"`
	Changes   []UnitChange `json:"changes,omitempty"`
}

// Line renders the record the way it is shown in trade history.
func (r RebalanceRecord) Line() string {
	return fmt.Sprintf("%s: %s", r.Timestamp.Format(StampLayout), r.Summary)
}

// Profile is one investment strategy. Assets keep insertion order.
type Profile struct {
	Name            string            `json:"name"`
	Currency        string            `json:"currency"`
	Principal       float64           `json:"principal"`
	YearlyGoalPct   float64           `json:"yearly_goal_pct"`
	StartDate       Day               `json:"start_date"`
	DriftTolerance  float64           `json:"drift_tolerance"`
	Benchmark       string            `json:"benchmark,omitempty"`
	AllocatedPct    float64           `json:"allocated_pct"`
	LastRebalanced  *time.Time        `json:"last_rebalanced"`
	Assets          []*Asset          `json:"assets"`
	ActivityLog     []LogEntry        `json:"activity_log"`
	RebalanceEvents []RebalanceRecord `json:"rebalance_events"`
}

// NewProfile returns a profile carrying the creation defaults.
func NewProfile(name string, principal float64, now time.Time) *Profile {
	return &Profile{
		Name:            strings.TrimSpace(name),
		Currency:        DefaultCurrency,
		Principal:       principal,
		YearlyGoalPct:   DefaultYearlyGoalPct,
		StartDate:       NewDay(now),
		DriftTolerance:  DefaultDriftTolerance,
		Assets:          []*Asset{},
		ActivityLog:     []LogEntry{},
		RebalanceEvents: []RebalanceRecord{},
	}
}

// Asset looks up a holding by ticker.
func (p *Profile) Asset(ticker string) (*Asset, bool) {
	ticker = NormalizeTicker(ticker)
	for _, a := range p.Assets {
		if a.Ticker == ticker {
			return a, true
		}
	}
	return nil, false
}

// Tickers lists the profile's tickers in insertion order.
func (p *Profile) Tickers() []string {
	tickers := make([]string, 0, len(p.Assets))
	for _, a := range p.Assets {
		tickers = append(tickers, a.Ticker)
	}
	return tickers
}

// TargetSum is the sum of all target percentages. It may exceed 100 in
// stored state; callers must tolerate that.
func (p *Profile) TargetSum() float64 {
	var sum float64
	for _, a := range p.Assets {
		sum += a.Target
	}
	return sum
}

// Value is Σ units*price over all assets.
func (p *Profile) Value(prices Prices) float64 {
	var total float64
	for _, a := range p.Assets {
		total += a.Value(prices)
	}
	return total
}

// IsFullyAllocated reports whether allocatedPct covers the whole principal,
// allowing for float error left by summing tranches.
func IsFullyAllocated(allocatedPct float64) bool {
	return allocatedPct >= FullyAllocated-epsilon
}

// FullyDeployed reports whether the whole principal has been deployed.
func (p *Profile) FullyDeployed() bool {
	return IsFullyAllocated(p.AllocatedPct)
}

// RemainingPct is the share of principal not yet deployed.
func (p *Profile) RemainingPct() float64 {
	if p.FullyDeployed() {
		return 0
	}
	return FullyAllocated - p.AllocatedPct
}

// MarkFullyDeployed sets allocated_pct to 100 without recording lots, for
// profiles whose holdings were entered by hand.
func (p *Profile) MarkFullyDeployed() {
	p.AllocatedPct = FullyAllocated
}

// Log prepends an activity entry, keeping at most LogCap entries.
func (p *Profile) Log(now time.Time, event string) {
	p.ActivityLog = prependLog(p.ActivityLog, LogEntry{Timestamp: now.Format(StampLayout), Event: event})
}

// AppendRebalance prepends a rebalance record, keeping at most LogCap records.
func (p *Profile) AppendRebalance(rec RebalanceRecord) {
	events := make([]RebalanceRecord, 0, len(p.RebalanceEvents)+1)
	events = append(events, rec)
	events = append(events, p.RebalanceEvents...)
	if len(events) > LogCap {
		events = events[:LogCap]
	}
	p.RebalanceEvents = events
}

// Document is the whole persisted profile database.
type Document struct {
	Version    int                 `json:"version"`
	Revision   int64               `json:"revision"`
	Profiles   map[string]*Profile `json:"profiles"`
	GlobalLogs []LogEntry          `json:"global_logs"`
}

// NewDocument returns an empty store document.
func NewDocument() *Document {
	return &Document{
		Version:    SchemaVersion,
		Profiles:   map[string]*Profile{},
		GlobalLogs: []LogEntry{},
	}
}

// Names returns profile names sorted alphabetically.
func (d *Document) Names() []string {
	names := make([]string, 0, len(d.Profiles))
	for name := range d.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profile returns the named profile or ErrProfileNotFound.
func (d *Document) Profile(name string) (*Profile, error) {
	p, ok := d.Profiles[name]
	if !ok || p == nil {
		return nil, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}
	return p, nil
}

// Tickers returns the union of all profile tickers, sorted.
func (d *Document) Tickers() []string {
	seen := make(map[string]bool)
	var tickers []string
	for _, p := range d.Profiles {
		for _, a := range p.Assets {
			if !seen[a.Ticker] {
				seen[a.Ticker] = true
				tickers = append(tickers, a.Ticker)
			}
		}
	}
	sort.Strings(tickers)
	return tickers
}

// Log prepends a global log entry, keeping at most LogCap entries.
func (d *Document) Log(now time.Time, event string) {
	d.GlobalLogs = prependLog(d.GlobalLogs, LogEntry{Timestamp: now.Format(StampLayout), Event: event})
}

func prependLog(entries []LogEntry, e LogEntry) []LogEntry {
	out := make([]LogEntry, 0, len(entries)+1)
	out = append(out, e)
	out = append(out, entries...)
	if len(out) > LogCap {
		out = out[:LogCap]
	}
	return out
}

// NormalizeTicker upper-cases and trims a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
