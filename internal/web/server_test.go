package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camuig/alphastream/internal/config"
	"github.com/camuig/alphastream/internal/executor"
	"github.com/camuig/alphastream/internal/logger"
	"github.com/camuig/alphastream/internal/portfolio"
	"github.com/camuig/alphastream/internal/pricing"
	"github.com/camuig/alphastream/internal/storage"
)

type staticSource portfolio.Prices

func (s staticSource) Name() string { return "static" }

func (s staticSource) LatestPrices(_ context.Context, tickers []string) (portfolio.Prices, error) {
	out := portfolio.Prices{}
	for _, t := range tickers {
		if p, ok := s[t]; ok {
			out[t] = p
		}
	}
	return out, nil
}

func (s staticSource) History(context.Context, string, time.Time) ([]pricing.Point, error) {
	return nil, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := storage.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	store := storage.NewSQLiteStore(db)
	t.Cleanup(func() { store.Close() })

	log := logger.Discard()
	exec := executor.NewExecutor(store, staticSource{"A": 10, "B": 20}, log, executor.WithAuditor(store.Repository))
	cfg := &config.Config{Prices: config.PricesConfig{Provider: "yahoo"}}

	srv := httptest.NewServer(NewServer(exec, store.Repository, cfg, log).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func seed(t *testing.T, srv *httptest.Server) {
	t.Helper()
	status, _ := do(t, srv, http.MethodPost, "/api/profiles", map[string]any{"name": "Growth", "principal": 1000})
	require.Equal(t, http.StatusCreated, status)
	status, _ = do(t, srv, http.MethodPut, "/api/profiles/Growth/assets/a", map[string]any{"target": 60})
	require.Equal(t, http.StatusOK, status)
	status, _ = do(t, srv, http.MethodPut, "/api/profiles/Growth/assets/B", map[string]any{"target": 40})
	require.Equal(t, http.StatusOK, status)
}

func TestProfileLifecycle(t *testing.T) {
	srv := newTestServer(t)
	seed(t, srv)

	status, body := do(t, srv, http.MethodGet, "/api/profiles", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `["Growth"]`, string(body))

	status, _ = do(t, srv, http.MethodPost, "/api/profiles", map[string]any{"name": "Growth"})
	assert.Equal(t, http.StatusConflict, status)

	status, body = do(t, srv, http.MethodGet, "/api/profiles/Growth", nil)
	require.Equal(t, http.StatusOK, status)
	var p portfolio.Profile
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Len(t, p.Assets, 2)
	assert.Equal(t, "A", p.Assets[0].Ticker)

	status, _ = do(t, srv, http.MethodDelete, "/api/profiles/Growth", nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = do(t, srv, http.MethodGet, "/api/profiles/Growth", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAssetValidation(t *testing.T) {
	srv := newTestServer(t)
	seed(t, srv)

	status, _ := do(t, srv, http.MethodPut, "/api/profiles/Growth/assets/NOPE", map[string]any{"target": 0})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = do(t, srv, http.MethodPut, "/api/profiles/Growth/assets/B", map[string]any{"target": 41})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, srv, http.MethodPut, "/api/profiles/Growth/assets/B", map[string]any{"weight": 10})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, srv, http.MethodDelete, "/api/profiles/Growth/assets/B", nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = do(t, srv, http.MethodDelete, "/api/profiles/Growth/assets/B", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDeployAndRebalance(t *testing.T) {
	srv := newTestServer(t)
	seed(t, srv)

	status, body := do(t, srv, http.MethodGet, "/api/profiles/Growth/orders", nil)
	require.Equal(t, http.StatusOK, status)
	var orders ordersResponse
	require.NoError(t, json.Unmarshal(body, &orders))
	assert.Len(t, orders.Plan.Orders, 2)
	assert.InDelta(t, 1000, orders.Plan.BaseValue, 1e-9)

	status, _ = do(t, srv, http.MethodPost, "/api/profiles/Growth/rebalance", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = do(t, srv, http.MethodPost, "/api/profiles/Growth/deployments", map[string]any{"pct": 100, "date": "2026-10-01"})
	require.Equal(t, http.StatusCreated, status)

	status, body = do(t, srv, http.MethodGet, "/api/profiles/Growth/assets/a/average-cost", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"ticker": "A", "available": true, "average_cost": 10}`, string(body))

	status, _ = do(t, srv, http.MethodPost, "/api/profiles/Growth/rebalance", nil)
	require.Equal(t, http.StatusOK, status)

	status, body = do(t, srv, http.MethodGet, "/api/profiles/Growth/trades", nil)
	require.Equal(t, http.StatusOK, status)
	var trades tradesResponse
	require.NoError(t, json.Unmarshal(body, &trades))
	assert.Len(t, trades.Events, 1)
	assert.Len(t, trades.Deployments, 1)
	assert.NotNil(t, trades.Turnover30d)
	assert.Nil(t, trades.LastSnapshot)

	status, body = do(t, srv, http.MethodGet, "/api/profiles/Growth/drift", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"reason":"grace_period"`)
}

func TestSettingsAndPerformance(t *testing.T) {
	srv := newTestServer(t)
	seed(t, srv)

	status, body := do(t, srv, http.MethodPatch, "/api/profiles/Growth/settings",
		map[string]any{"drift_tolerance": 7.5, "benchmark": "spy"})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"benchmark":"SPY"`)

	status, _ = do(t, srv, http.MethodPatch, "/api/profiles/Growth/settings", map[string]any{"drift_tolerance": 30})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = do(t, srv, http.MethodPatch, "/api/profiles/Growth/settings", map[string]any{"fully_deployed": true})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"allocated_pct":100`)

	status, _ = do(t, srv, http.MethodPost, "/api/profiles", map[string]any{"name": "Watchlist", "principal": 0})
	require.Equal(t, http.StatusCreated, status)
	status, body = do(t, srv, http.MethodGet, "/api/profiles/Watchlist", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"principal":0`)

	status, body = do(t, srv, http.MethodGet, "/api/profiles/Growth/performance", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"principal":1000`)
}

func TestOrdersReviewWithoutAdvisor(t *testing.T) {
	srv := newTestServer(t)
	seed(t, srv)

	status, body := do(t, srv, http.MethodGet, "/api/profiles/Growth/orders?review=1", nil)
	require.Equal(t, http.StatusOK, status)
	var orders ordersResponse
	require.NoError(t, json.Unmarshal(body, &orders))
	assert.Nil(t, orders.Review)
	assert.Equal(t, executor.ErrAdvisorDisabled.Error(), orders.ReviewError)
}

func TestDashboard(t *testing.T) {
	srv := newTestServer(t)
	seed(t, srv)

	status, body := do(t, srv, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "Growth")
	assert.Contains(t, string(body), "no_value")

	status, body = do(t, srv, http.MethodGet, "/api/overview", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"name":"Growth"`)
}
