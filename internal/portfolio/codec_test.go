package portfolio

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyDocument = `{
  "profiles": {
    "Growth": {
      "currency": "",
      "principal": 10000,
      "start_date": "2024-01-15",
      "assets": {
        "vti": {"units": 10, "target": 60},
        "BND": {"units": 5, "target": 40}
      },
      "last_rebalanced": "2024-03-01 10:30",
      "rebalance_logs": [
        {"date": "2024-03-01 10:30", "event": "Rebalanced"}
      ]
    },
    "Broken": null
  },
  "global_logs": [{"timestamp": "2024-01-15 09:00", "event": "Created profile Growth"}]
}`

func TestDecode_LegacyDocument(t *testing.T) {
	doc, err := Decode(strings.NewReader(legacyDocument))
	require.NoError(t, err)

	assert.Equal(t, SchemaVersion, doc.Version)
	assert.Equal(t, []string{"Growth"}, doc.Names())

	p, err := doc.Profile("Growth")
	require.NoError(t, err)
	assert.Equal(t, "Growth", p.Name)
	assert.Equal(t, DefaultCurrency, p.Currency)
	assert.Equal(t, DefaultYearlyGoalPct, p.YearlyGoalPct)
	assert.Equal(t, DefaultDriftTolerance, p.DriftTolerance)
	assert.Equal(t, 0.0, p.AllocatedPct)
	assert.Equal(t, "2024-01-15", p.StartDate.String())

	require.Len(t, p.Assets, 2)
	assert.Equal(t, "VTI", p.Assets[0].Ticker)
	assert.Equal(t, 10.0, p.Assets[0].Units)
	assert.Equal(t, "BND", p.Assets[1].Ticker)
	assert.Equal(t, 40.0, p.Assets[1].Target)

	require.NotNil(t, p.LastRebalanced)
	assert.True(t, time.Date(2024, 3, 1, 10, 30, 0, 0, time.Local).Equal(*p.LastRebalanced))

	require.Len(t, p.ActivityLog, 1)
	assert.Equal(t, "2024-03-01 10:30", p.ActivityLog[0].Timestamp)
	assert.NotNil(t, p.RebalanceEvents)
	require.Len(t, doc.GlobalLogs, 1)
}

func TestDecode_ExplicitZeroGoalIsKept(t *testing.T) {
	doc, err := Decode(strings.NewReader(`{"profiles": {"Flat": {"yearly_goal_pct": 0, "drift_tolerance": 0}}}`))
	require.NoError(t, err)

	p := doc.Profiles["Flat"]
	assert.Equal(t, 0.0, p.YearlyGoalPct)
	assert.Equal(t, DefaultDriftTolerance, p.DriftTolerance)
	assert.Nil(t, p.LastRebalanced)
	assert.NotNil(t, p.Assets)
}

func TestDecode_EmptyObject(t *testing.T) {
	doc, err := Decode(strings.NewReader(`{}`))
	require.NoError(t, err)

	assert.Empty(t, doc.Profiles)
	assert.NotNil(t, doc.Profiles)
	assert.NotNil(t, doc.GlobalLogs)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"profiles": [`))
	assert.Error(t, err)
}

func TestDecode_CapsLogs(t *testing.T) {
	var b strings.Builder
	b.WriteString(`{"global_logs": [`)
	for i := 0; i < LogCap+5; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"timestamp": "2024-01-01 00:00", "event": "x"}`)
	}
	b.WriteString(`]}`)

	doc, err := Decode(strings.NewReader(b.String()))
	require.NoError(t, err)
	assert.Len(t, doc.GlobalLogs, LogCap)
}

func TestEncode_RoundTripKeepsState(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	doc := NewDocument()
	p := NewProfile("Income", 5000, now)
	require.NoError(t, p.SetAsset("schd", 70, 12.5))
	require.NoError(t, p.SetAsset("VGIT", 30, 3))
	p.Assets[0].Purchases = []Purchase{{Date: NewDay(now), Amount: 1000, Price: 80, Quantity: 12.5, AllocatedPct: 14}}
	p.AllocatedPct = 20
	p.LastRebalanced = &now
	p.AppendRebalance(RebalanceRecord{ID: "r1", Timestamp: now, Summary: "SCHD BUY 1.0000"})
	require.NoError(t, doc.AddProfile(p, now))
	doc.Revision = 7

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc))
	back, err := Decode(&buf)
	require.NoError(t, err)

	assert.Equal(t, int64(7), back.Revision)
	got := back.Profiles["Income"]
	require.NotNil(t, got)
	assert.Equal(t, []string{"SCHD", "VGIT"}, got.Tickers())
	assert.Equal(t, 20.0, got.AllocatedPct)
	require.Len(t, got.Assets[0].Purchases, 1)
	assert.Equal(t, 80.0, got.Assets[0].Purchases[0].Price)
	assert.Equal(t, "2026-10-18", got.Assets[0].Purchases[0].Date.String())
	require.NotNil(t, got.LastRebalanced)
	assert.True(t, got.LastRebalanced.Equal(now))
	require.Len(t, got.RebalanceEvents, 1)
	assert.Equal(t, "r1", got.RebalanceEvents[0].ID)
	assert.Len(t, back.GlobalLogs, 1)
}
