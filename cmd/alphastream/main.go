package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camuig/alphastream/internal/app"
	"github.com/camuig/alphastream/internal/config"
	"github.com/camuig/alphastream/internal/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Init logger
	log := logger.New(cfg.Logging.Level)
	log.Info("starting alphastream", "store", cfg.Store.Driver, "providers", cfg.Providers())

	// Context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("init failed", "error", err)
		os.Exit(1)
	}

	// Start drift monitor in goroutine
	if cfg.Monitor.Enabled {
		go a.Monitor().Run(ctx)
	}

	// Start web server in goroutine
	webServer := a.WebServer()
	if cfg.Web.Enabled {
		go func() {
			if err := webServer.Start(); err != nil {
				log.Error("web server error", "error", err)
			}
		}()
	}

	a.Notifier.NotifyStatus("📈 AlphaStream started")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutdown signal received", "signal", sig.String())

	// Graceful shutdown
	cancel() // stop drift monitor

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if cfg.Web.Enabled {
		if err := webServer.Shutdown(shutdownCtx); err != nil {
			log.Error("web server shutdown error", "error", err)
		}
	}

	if err := a.Close(); err != nil {
		log.Error("close error", "error", err)
	}

	a.Notifier.NotifyStatus("🛑 AlphaStream stopped")
	log.Info("alphastream stopped")
}
