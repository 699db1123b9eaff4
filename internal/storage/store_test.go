package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camuig/alphastream/internal/deploy"
	"github.com/camuig/alphastream/internal/drift"
	"github.com/camuig/alphastream/internal/portfolio"
	"github.com/camuig/alphastream/internal/rebalance"
)

var now = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

type documentStore interface {
	Load(ctx context.Context) (*portfolio.Document, error)
	Save(ctx context.Context, doc *portfolio.Document) error
}

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func stores(t *testing.T) map[string]documentStore {
	return map[string]documentStore{
		"sqlite": newSQLiteStore(t),
		"file":   NewFileStore(filepath.Join(t.TempDir(), "wealth.json")),
	}
}

func sampleDocument(t *testing.T) *portfolio.Document {
	doc := portfolio.NewDocument()
	p := portfolio.NewProfile("Growth", 10000, now)
	require.NoError(t, p.SetAsset("VTI", 60, 10))
	require.NoError(t, p.SetAsset("BND", 40, 5))
	require.NoError(t, doc.AddProfile(p, now))
	return doc
}

func TestStore_EmptyLoad(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			doc, err := store.Load(context.Background())
			require.NoError(t, err)
			assert.Empty(t, doc.Profiles)
			assert.Equal(t, int64(0), doc.Revision)
		})
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			doc := sampleDocument(t)
			require.NoError(t, store.Save(ctx, doc))
			assert.Equal(t, int64(1), doc.Revision)

			loaded, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1), loaded.Revision)
			p, err := loaded.Profile("Growth")
			require.NoError(t, err)
			assert.Equal(t, []string{"VTI", "BND"}, p.Tickers())
			assert.Len(t, loaded.GlobalLogs, 1)

			require.NoError(t, p.SetAsset("VTI", 50, 12))
			require.NoError(t, store.Save(ctx, loaded))
			assert.Equal(t, int64(2), loaded.Revision)
		})
	}
}

func TestStore_RevisionConflict(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Save(ctx, sampleDocument(t)))

			first, err := store.Load(ctx)
			require.NoError(t, err)
			second, err := store.Load(ctx)
			require.NoError(t, err)

			first.Profiles["Growth"].Principal = 20000
			require.NoError(t, store.Save(ctx, first))

			second.Profiles["Growth"].Principal = 1
			err = store.Save(ctx, second)
			assert.ErrorIs(t, err, portfolio.ErrRevisionConflict)
			assert.Equal(t, int64(1), second.Revision)

			latest, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, 20000.0, latest.Profiles["Growth"].Principal)
		})
	}
}

func TestStore_FreshDocumentCannotClobber(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Save(ctx, sampleDocument(t)))

			// what a caller falls back to after a failed load
			empty := portfolio.NewDocument()
			assert.ErrorIs(t, store.Save(ctx, empty), portfolio.ErrRevisionConflict)
		})
	}
}

func TestFileStore_ReadsLegacyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alphastream_wealth.json")
	legacy := `{"profiles": {"Old": {"principal": 5000, "assets": {"SPY": {"units": 3, "target": 100}}}}}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	store := NewFileStore(path)
	doc, err := store.Load(context.Background())
	require.NoError(t, err)

	p, err := doc.Profile("Old")
	require.NoError(t, err)
	assert.Equal(t, 5.0, p.DriftTolerance)
	assert.Equal(t, []string{"SPY"}, p.Tickers())

	require.NoError(t, store.Save(context.Background(), doc))
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(path).Load(context.Background())
	assert.ErrorIs(t, err, portfolio.ErrStoreUnavailable)
}

func TestRepository_Audit(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	p := portfolio.NewProfile("Growth", 400, now)
	p.AllocatedPct = 100
	p.Assets = []*portfolio.Asset{
		{Ticker: "A", Units: 3, Target: 60},
		{Ticker: "B", Units: 1, Target: 40},
	}
	prices := portfolio.Prices{"A": 100, "B": 100}

	none, err := store.GetLatestSnapshot(ctx, "Growth")
	require.NoError(t, err)
	assert.Nil(t, none)

	result := drift.Evaluate(p, prices, now)
	require.NoError(t, store.RecordDrift(ctx, "Growth", result))
	snap, err := store.GetLatestSnapshot(ctx, "Growth")
	require.NoError(t, err)
	assert.True(t, snap.NeedsRebalance)
	assert.Equal(t, "never_rebalanced", snap.Reason)

	exec, err := rebalance.Execute(p, prices, now)
	require.NoError(t, err)
	require.NoError(t, store.RecordRebalance(ctx, "Growth", exec))

	trades, err := store.GetRecentTrades(ctx, "Growth", 10)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, exec.Record.ID, trades[0].RecordID)

	turnover, err := store.TurnoverSince(ctx, "Growth", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, 120.0, turnover, 1e-6)

	fresh := portfolio.NewProfile("Fresh", 1000, now)
	fresh.Assets = []*portfolio.Asset{{Ticker: "A", Target: 100}}
	dep, err := deploy.Record(fresh, 50, now, prices, now)
	require.NoError(t, err)
	require.NoError(t, store.RecordDeployment(ctx, "Fresh", dep))

	deps, err := store.GetDeployments(ctx, "Fresh", 5)
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, 500.0, deps[0].Amount)
	assert.Contains(t, deps[0].LotsJSON, `"ticker":"A"`)

	require.NoError(t, store.SaveAdvisorLog(ctx, &AdvisorLog{Profile: "Growth", Summary: "ok", Proceed: true}))
}
