package portfolio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Decode reads a Document and applies defaults for any field older documents
// do not carry. Defaults are applied here once, never at access sites.
func Decode(r io.Reader) (*Document, error) {
	doc := NewDocument()
	if err := json.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// Encode writes doc as indented JSON.
func Encode(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var raw struct {
		Revision   int64               `json:"revision"`
		Profiles   map[string]*Profile `json:"profiles"`
		GlobalLogs []LogEntry          `json:"global_logs"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	d.Version = SchemaVersion
	d.Revision = raw.Revision
	d.Profiles = make(map[string]*Profile, len(raw.Profiles))
	for name, p := range raw.Profiles {
		if p == nil {
			continue
		}
		p.Name = name
		d.Profiles[name] = p
	}
	d.GlobalLogs = capLogs(raw.GlobalLogs)
	return nil
}

func (p *Profile) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name            string            `json:"name"`
		Currency        string            `json:"currency"`
		Principal       float64           `json:"principal"`
		YearlyGoalPct   *float64          `json:"yearly_goal_pct"`
		StartDate       Day               `json:"start_date"`
		DriftTolerance  *float64          `json:"drift_tolerance"`
		Benchmark       string            `json:"benchmark"`
		AllocatedPct    float64           `json:"allocated_pct"`
		LastRebalanced  *stamp            `json:"last_rebalanced"`
		Assets          assetList         `json:"assets"`
		ActivityLog     []LogEntry        `json:"activity_log"`
		LegacyLogs      []LogEntry        `json:"rebalance_logs"`
		RebalanceEvents []RebalanceRecord `json:"rebalance_events"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = Profile{
		Name:           raw.Name,
		Currency:       raw.Currency,
		Principal:      raw.Principal,
		YearlyGoalPct:  DefaultYearlyGoalPct,
		StartDate:      raw.StartDate,
		DriftTolerance: DefaultDriftTolerance,
		Benchmark:      NormalizeTicker(raw.Benchmark),
		AllocatedPct:   raw.AllocatedPct,
		Assets:         []*Asset(raw.Assets),
	}
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	if raw.YearlyGoalPct != nil {
		p.YearlyGoalPct = *raw.YearlyGoalPct
	}
	if raw.DriftTolerance != nil && *raw.DriftTolerance > 0 {
		p.DriftTolerance = *raw.DriftTolerance
	}
	if raw.LastRebalanced != nil && !raw.LastRebalanced.IsZero() {
		t := raw.LastRebalanced.Time
		p.LastRebalanced = &t
	}
	if p.Assets == nil {
		p.Assets = []*Asset{}
	}

	logs := raw.ActivityLog
	if logs == nil {
		logs = raw.LegacyLogs
	}
	p.ActivityLog = capLogs(logs)

	p.RebalanceEvents = raw.RebalanceEvents
	if p.RebalanceEvents == nil {
		p.RebalanceEvents = []RebalanceRecord{}
	}
	if len(p.RebalanceEvents) > LogCap {
		p.RebalanceEvents = p.RebalanceEvents[:LogCap]
	}
	return nil
}

func (e *LogEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Timestamp string `json:"timestamp"`
		Date      string `json:"date"`
		Event     string `json:"event"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Timestamp = raw.Timestamp
	if e.Timestamp == "" {
		e.Timestamp = raw.Date
	}
	e.Event = raw.Event
	return nil
}

func capLogs(logs []LogEntry) []LogEntry {
	if logs == nil {
		return []LogEntry{}
	}
	if len(logs) > LogCap {
		return logs[:LogCap]
	}
	return logs
}

// assetList decodes either the current array form or the older
// ticker-keyed object form, keeping the document order in both cases.
type assetList []*Asset

func (l *assetList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}

	if trimmed[0] == '[' {
		var assets []*Asset
		if err := json.Unmarshal(trimmed, &assets); err != nil {
			return err
		}
		out := make(assetList, 0, len(assets))
		for _, a := range assets {
			if a == nil {
				continue
			}
			a.Ticker = NormalizeTicker(a.Ticker)
			out = append(out, a)
		}
		*l = out
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if _, err := dec.Token(); err != nil {
		return err
	}
	var out assetList
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected asset key %v", tok)
		}
		a := &Asset{}
		if err := dec.Decode(a); err != nil {
			return fmt.Errorf("asset %s: %w", key, err)
		}
		a.Ticker = NormalizeTicker(key)
		out = append(out, a)
	}
	*l = out
	return nil
}
