// Package app assembles the store, price sources, notifier and advisor
// behind one Executor. Both binaries start here.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/camuig/alphastream/internal/advisor"
	"github.com/camuig/alphastream/internal/broker"
	"github.com/camuig/alphastream/internal/config"
	"github.com/camuig/alphastream/internal/executor"
	"github.com/camuig/alphastream/internal/logger"
	"github.com/camuig/alphastream/internal/moex"
	"github.com/camuig/alphastream/internal/pricing"
	"github.com/camuig/alphastream/internal/scheduler"
	"github.com/camuig/alphastream/internal/storage"
	"github.com/camuig/alphastream/internal/telegram"
	"github.com/camuig/alphastream/internal/web"
	"github.com/camuig/alphastream/internal/yahoo"
)

type App struct {
	Config   *config.Config
	Logger   *logger.Logger
	Executor *executor.Executor
	Notifier *telegram.Notifier
	Prices   pricing.Source

	repo    *storage.Repository
	closers []func() error
}

// New wires every component from cfg. Close must be called on success.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: log}

	store, err := a.openStore()
	if err != nil {
		return nil, err
	}

	prices, err := a.priceSource(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Prices = prices
	a.Notifier = telegram.NewNotifier(cfg.Telegram, log)
	if !a.Notifier.Enabled() {
		log.Info("telegram notifications disabled")
	}

	opts := []executor.Option{
		executor.WithNotifier(a.Notifier),
		executor.WithDefaults(cfg.Defaults),
	}
	if a.repo != nil {
		opts = append(opts, executor.WithAuditor(a.repo))
	}
	if cfg.Advisor.Enabled {
		opts = append(opts, executor.WithReviewer(advisor.NewClient(cfg.Advisor, log)))
		log.Info("advisor enabled", "model", cfg.Advisor.Model)
	}

	a.Executor = executor.NewExecutor(store, prices, log, opts...)
	return a, nil
}

func (a *App) openStore() (executor.Store, error) {
	switch a.Config.Store.Driver {
	case "file":
		a.Logger.Info("using file store", "path", a.Config.Store.Path)
		return storage.NewFileStore(a.Config.Store.Path), nil
	default:
		s, err := storage.OpenSQLiteStore(a.Config.Store.Path)
		if err != nil {
			return nil, err
		}
		a.Logger.Info("using sqlite store", "path", a.Config.Store.Path)
		a.repo = s.Repository
		a.closers = append(a.closers, s.Close)
		return s, nil
	}
}

// priceSource builds the provider chain in configured order behind a TTL cache.
func (a *App) priceSource(ctx context.Context) (pricing.Source, error) {
	cfg := a.Config
	var sources []pricing.Source
	for _, name := range cfg.Providers() {
		switch name {
		case "yahoo":
			opts := []yahoo.Option{yahoo.WithConcurrency(cfg.Prices.YahooConcurrency)}
			if cfg.Prices.YahooURL != "" {
				opts = append(opts, yahoo.WithBaseURL(cfg.Prices.YahooURL))
			}
			sources = append(sources, yahoo.NewClient(a.Logger, opts...))
		case "moex":
			var opts []moex.Option
			if cfg.Prices.MOEXURL != "" {
				opts = append(opts, moex.WithBaseURL(cfg.Prices.MOEXURL))
			}
			if cfg.Prices.MOEXBoard != "" {
				opts = append(opts, moex.WithBoard(cfg.Prices.MOEXBoard))
			}
			sources = append(sources, moex.NewClient(a.Logger, opts...))
		case "tinkoff":
			bc, err := broker.NewBrokerClient(ctx, cfg.Tinkoff, a.Logger)
			if err != nil {
				return nil, fmt.Errorf("tinkoff price source: %w", err)
			}
			a.closers = append(a.closers, bc.Stop)
			sources = append(sources, bc)
		default:
			return nil, fmt.Errorf("unknown price provider %q", name)
		}
	}
	if len(sources) == 0 {
		return nil, errors.New("no price provider configured")
	}

	chain := pricing.NewChain(a.Logger, sources...)
	a.Logger.Info("price source ready", "chain", chain.Name(), "cache_ttl", cfg.CacheTTL().String())
	return pricing.NewCached(chain, cfg.CacheTTL()), nil
}

// WebServer returns the HTTP server. Trade audit rows are only exposed when
// the store keeps them.
func (a *App) WebServer() *web.Server {
	var trades web.TradeLog
	if a.repo != nil {
		trades = a.repo
	}
	return web.NewServer(a.Executor, trades, a.Config, a.Logger)
}

func (a *App) Monitor() *scheduler.Scheduler {
	return scheduler.NewScheduler(a.Executor, a.Config, a.Logger)
}

// Close releases the store and broker connections in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
