// Package scheduler runs the periodic drift check over all profiles.
package scheduler

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/camuig/alphastream/internal/config"
	"github.com/camuig/alphastream/internal/drift"
	"github.com/camuig/alphastream/internal/logger"
	"github.com/camuig/alphastream/internal/portfolio"
)

// Service is the part of the executor the monitor needs.
type Service interface {
	CheckDrift(ctx context.Context) ([]*portfolio.Profile, []drift.Result)
	RecordDrift(ctx context.Context, name string, result drift.Result) error
	NotifyDrift(p *portfolio.Profile, result drift.Result)
	NotifyError(context string, err error)
}

type Scheduler struct {
	service  Service
	interval time.Duration
	cooldown time.Duration
	alerted  *gocache.Cache
	logger   *logger.Logger
}

func NewScheduler(svc Service, cfg *config.Config, log *logger.Logger) *Scheduler {
	cooldown := cfg.AlertCooldown()
	return &Scheduler{
		service:  svc,
		interval: cfg.MonitorInterval(),
		cooldown: cooldown,
		alerted:  gocache.New(cooldown, 2*cooldown),
		logger:   log.With("component", "drift_monitor"),
	}
}

func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("drift monitor started", "interval", s.interval.String(), "alert_cooldown", s.cooldown.String())

	// Run immediately on start
	s.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("drift monitor stopped")
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in drift cycle", "panic", fmt.Sprint(r))
			s.service.NotifyError("drift monitor panic", fmt.Errorf("%v", r))
		}
	}()

	profiles, results := s.service.CheckDrift(ctx)
	drifted := 0
	for i, p := range profiles {
		if s.handle(ctx, p, results[i]) {
			drifted++
		}
	}
	s.logger.Info("drift cycle completed", "profiles", len(profiles), "drifted", drifted)
}

// handle records one profile's result and alerts at most once per cooldown.
func (s *Scheduler) handle(ctx context.Context, p *portfolio.Profile, result drift.Result) (drifted bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic checking profile", "profile", p.Name, "panic", fmt.Sprint(r))
		}
	}()

	if err := s.service.RecordDrift(ctx, p.Name, result); err != nil {
		s.logger.Error("save drift snapshot", "profile", p.Name, "error", err)
	}

	if !result.NeedsRebalance {
		s.alerted.Delete(p.Name)
		return false
	}

	s.logger.Info("profile needs rebalance", "profile", p.Name, "reason", result.Reason, "assets", len(result.Details))
	if _, found := s.alerted.Get(p.Name); found {
		s.logger.Debug("drift alert suppressed", "profile", p.Name)
		return true
	}
	s.service.NotifyDrift(p, result)
	if s.cooldown > 0 {
		s.alerted.Set(p.Name, time.Now(), s.cooldown)
	}
	return true
}
