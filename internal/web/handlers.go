package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/camuig/alphastream/internal/advisor"
	"github.com/camuig/alphastream/internal/drift"
	"github.com/camuig/alphastream/internal/executor"
	"github.com/camuig/alphastream/internal/portfolio"
	"github.com/camuig/alphastream/internal/rebalance"
	"github.com/camuig/alphastream/internal/storage"
)

const defaultTradeLimit = 50

type createProfileRequest struct {
	Name          string   `json:"name"`
	Principal     *float64 `json:"principal"`
	Currency      string   `json:"currency"`
	YearlyGoalPct *float64 `json:"yearly_goal_pct"`
	StartDate     string   `json:"start_date"`
}

type setAssetRequest struct {
	Target float64 `json:"target"`
	Units  float64 `json:"units"`
}

type deployRequest struct {
	Pct  float64 `json:"pct"`
	Date string  `json:"date"`
}

type ordersResponse struct {
	Plan         rebalance.Plan     `json:"plan"`
	Drift        drift.Result       `json:"drift"`
	Unpriced     []string           `json:"unpriced,omitempty"`
	AverageCosts map[string]float64 `json:"average_costs,omitempty"`
	Review       *advisor.Review    `json:"review,omitempty"`
	ReviewError  string             `json:"review_error,omitempty"`
}

type averageCostResponse struct {
	Ticker      string   `json:"ticker"`
	Available   bool     `json:"available"`
	AverageCost *float64 `json:"average_cost,omitempty"`
}

type tradesResponse struct {
	Events       []string                 `json:"events"`
	Trades       []storage.RebalanceTrade `json:"trades,omitempty"`
	Deployments  []storage.DeploymentLog  `json:"deployments,omitempty"`
	Turnover30d  *float64                 `json:"turnover_30d,omitempty"`
	LastSnapshot *storage.DriftSnapshot   `json:"last_snapshot,omitempty"`
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.exec.Overview(r.Context()))
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.exec.Names(r.Context()))
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	create := executor.CreateRequest{
		Name:          req.Name,
		Principal:     req.Principal,
		Currency:      req.Currency,
		YearlyGoalPct: req.YearlyGoalPct,
	}
	if req.StartDate != "" {
		day, err := portfolio.ParseDay(req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		create.StartDate = day.Time
	}

	p, err := s.exec.CreateProfile(r.Context(), create)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.exec.Profile(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.exec.RemoveProfile(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDrift(w http.ResponseWriter, r *http.Request) {
	a, err := s.exec.Analyze(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a.Drift)
}

// handleOrders returns the rebalance plan. With ?review=1 the advisor is
// consulted too; an advisor failure is reported next to the plan.
func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var (
		a      *executor.Analysis
		review *advisor.Review
		err    error
	)
	wantReview, _ := strconv.ParseBool(r.URL.Query().Get("review"))
	if wantReview {
		a, review, err = s.exec.Review(r.Context(), name)
	}
	if a == nil {
		reviewErr := err
		if a, err = s.exec.Analyze(r.Context(), name); err != nil {
			s.fail(w, r, err)
			return
		}
		err = reviewErr
	}

	resp := ordersResponse{
		Plan:         a.Plan,
		Drift:        a.Drift,
		Unpriced:     a.Unpriced,
		AverageCosts: a.AverageCosts,
		Review:       review,
	}
	if err != nil {
		resp.ReviewError = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRebalance(w http.ResponseWriter, r *http.Request) {
	exec, err := s.exec.Rebalance(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exec)
}

func (s *Server) handleDeploy(w http.ResponseWriter, r *http.Request) {
	var req deployRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var date time.Time
	if req.Date != "" {
		day, err := portfolio.ParseDay(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		date = day.Time
	}

	dep, err := s.exec.Deploy(r.Context(), chi.URLParam(r, "name"), req.Pct, date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dep)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var req executor.Settings
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := s.exec.UpdateSettings(r.Context(), chi.URLParam(r, "name"), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	report, err := s.exec.Performance(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	events, err := s.exec.Trades(r.Context(), name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := tradesResponse{Events: events}

	if s.trades != nil {
		limit := defaultTradeLimit
		if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
			limit = v
		}
		ctx := r.Context()
		trades, err := s.trades.GetRecentTrades(ctx, name, limit)
		if err != nil {
			s.logger.Error("get recent trades", "profile", name, "error", err)
		}
		resp.Trades = trades

		deps, err := s.trades.GetDeployments(ctx, name, limit)
		if err != nil {
			s.logger.Error("get deployments", "profile", name, "error", err)
		}
		resp.Deployments = deps

		if turnover, err := s.trades.TurnoverSince(ctx, name, time.Now().AddDate(0, 0, -30)); err != nil {
			s.logger.Error("turnover", "profile", name, "error", err)
		} else {
			resp.Turnover30d = &turnover
		}

		snap, err := s.trades.GetLatestSnapshot(ctx, name)
		if err != nil {
			s.logger.Error("latest drift snapshot", "profile", name, "error", err)
		}
		resp.LastSnapshot = snap
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetAsset(w http.ResponseWriter, r *http.Request) {
	var req setAssetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	asset, err := s.exec.SetAsset(r.Context(), chi.URLParam(r, "name"), chi.URLParam(r, "ticker"), req.Target, req.Units)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func (s *Server) handleRemoveAsset(w http.ResponseWriter, r *http.Request) {
	if err := s.exec.RemoveAsset(r.Context(), chi.URLParam(r, "name"), chi.URLParam(r, "ticker")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAverageCost(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	cost, ok, err := s.exec.AverageCost(r.Context(), chi.URLParam(r, "name"), ticker)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := averageCostResponse{Ticker: portfolio.NormalizeTicker(ticker), Available: ok}
	if ok {
		resp.AverageCost = &cost
	}
	writeJSON(w, http.StatusOK, resp)
}

// fail maps engine and store errors onto HTTP statuses.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, portfolio.ErrProfileNotFound), errors.Is(err, portfolio.ErrAssetNotFound):
		return http.StatusNotFound
	case errors.Is(err, portfolio.ErrProfileExists), errors.Is(err, portfolio.ErrRevisionConflict):
		return http.StatusConflict
	case errors.Is(err, portfolio.ErrMissingPriceData), errors.Is(err, portfolio.ErrDegenerateValuation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, portfolio.ErrInvalidAllocation):
		return http.StatusBadRequest
	case errors.Is(err, portfolio.ErrStoreUnavailable), errors.Is(err, executor.ErrAdvisorDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
