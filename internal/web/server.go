package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/camuig/alphastream/internal/config"
	"github.com/camuig/alphastream/internal/executor"
	"github.com/camuig/alphastream/internal/logger"
	"github.com/camuig/alphastream/internal/storage"
)

// TradeLog exposes the audit rows written by rebalances, deployments and the
// drift monitor. Optional: the file store has no audit tables.
type TradeLog interface {
	GetRecentTrades(ctx context.Context, profile string, limit int) ([]storage.RebalanceTrade, error)
	GetDeployments(ctx context.Context, profile string, limit int) ([]storage.DeploymentLog, error)
	TurnoverSince(ctx context.Context, profile string, since time.Time) (float64, error)
	GetLatestSnapshot(ctx context.Context, profile string) (*storage.DriftSnapshot, error)
}

type Server struct {
	httpServer *http.Server
	exec       *executor.Executor
	trades     TradeLog
	config     *config.Config
	logger     *logger.Logger
}

func NewServer(exec *executor.Executor, trades TradeLog, cfg *config.Config, log *logger.Logger) *Server {
	s := &Server{
		exec:   exec,
		trades: trades,
		config: cfg,
		logger: log,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}

	return s
}

// Routes builds the router. The write timeout is generous because an advisor
// review can take a while.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleDashboard)

	r.Route("/api", func(r chi.Router) {
		r.Get("/overview", s.handleOverview)
		r.Get("/profiles", s.handleListProfiles)
		r.Post("/profiles", s.handleCreateProfile)

		r.Route("/profiles/{name}", func(r chi.Router) {
			r.Get("/", s.handleGetProfile)
			r.Delete("/", s.handleDeleteProfile)
			r.Get("/drift", s.handleDrift)
			r.Get("/orders", s.handleOrders)
			r.Post("/rebalance", s.handleRebalance)
			r.Post("/deployments", s.handleDeploy)
			r.Patch("/settings", s.handleSettings)
			r.Get("/performance", s.handlePerformance)
			r.Get("/trades", s.handleTrades)
			r.Put("/assets/{ticker}", s.handleSetAsset)
			r.Delete("/assets/{ticker}", s.handleRemoveAsset)
			r.Get("/assets/{ticker}/average-cost", s.handleAverageCost)
		})
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String())
	})
}

func (s *Server) Start() error {
	s.logger.Info("web server starting", "port", s.config.Web.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
