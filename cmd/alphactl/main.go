// Command alphactl manages profiles from the terminal against the same store
// and price sources as the service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/camuig/alphastream/internal/app"
	"github.com/camuig/alphastream/internal/config"
	"github.com/camuig/alphastream/internal/logger"
)

var configPath = flag.String("config", "config.yaml", "path to config file")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&profilesCmd{}, "profiles")
	commander.Register(&createCmd{}, "profiles")
	commander.Register(&removeProfileCmd{}, "profiles")
	commander.Register(&settingsCmd{}, "profiles")

	commander.Register(&setAssetCmd{}, "assets")
	commander.Register(&removeAssetCmd{}, "assets")
	commander.Register(&avgCostCmd{}, "assets")

	commander.Register(&driftCmd{}, "rebalancing")
	commander.Register(&ordersCmd{}, "rebalancing")
	commander.Register(&rebalanceCmd{}, "rebalancing")
	commander.Register(&tradesCmd{}, "rebalancing")

	commander.Register(&deployCmd{}, "capital")
	commander.Register(&performanceCmd{}, "capital")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// openApp loads the config and wires the engine. Logs go to stderr so they
// do not mix with rendered output.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := logger.NewWithWriter(cfg.Logging.Level, os.Stderr)
	return app.New(ctx, cfg, log)
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

func usage(msg string) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	return subcommands.ExitUsageError
}
