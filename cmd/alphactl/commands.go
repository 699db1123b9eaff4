package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/subcommands"

	"github.com/camuig/alphastream/internal/app"
	"github.com/camuig/alphastream/internal/executor"
	"github.com/camuig/alphastream/internal/format"
	"github.com/camuig/alphastream/internal/portfolio"
)

// run opens the app, runs fn and closes the app again.
func run(ctx context.Context, fn func(a *app.App) error) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()
	if err := fn(a); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

func parseFloat(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return v, nil
}

type profilesCmd struct{}

func (*profilesCmd) Name() string     { return "profiles" }
func (*profilesCmd) Synopsis() string { return "list profiles with value and drift status" }
func (*profilesCmd) Usage() string {
	return `alphactl profiles

  Values every profile with one price fetch and shows whether it needs a rebalance.
`
}
func (*profilesCmd) SetFlags(*flag.FlagSet) {}

func (*profilesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app.App) error {
		printMarkdown(overviewMarkdown(a.Executor.Overview(ctx)))
		return nil
	})
}

type createCmd struct {
	principal float64
	currency  string
	goal      float64
	start     string
}

func (*createCmd) Name() string     { return "create" }
func (*createCmd) Synopsis() string { return "create a profile" }
func (*createCmd) Usage() string {
	return `alphactl create [-principal n] [-currency c] [-goal pct] [-start YYYY-MM-DD] <name>

  Creates an empty profile. Omitted values take the configured defaults.
`
}

func (c *createCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.principal, "principal", 0, "capital to deploy")
	f.StringVar(&c.currency, "currency", "", "currency code")
	f.Float64Var(&c.goal, "goal", 0, "yearly growth goal in percent")
	f.StringVar(&c.start, "start", "", "start date (defaults to today)")
}

func (c *createCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage("create needs exactly one profile name")
	}
	req := executor.CreateRequest{Name: f.Arg(0), Currency: c.currency}
	f.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "principal":
			req.Principal = &c.principal
		case "goal":
			req.YearlyGoalPct = &c.goal
		}
	})
	if c.start != "" {
		day, err := portfolio.ParseDay(c.start)
		if err != nil {
			return usage(err.Error())
		}
		req.StartDate = day.Time
	}
	return run(ctx, func(a *app.App) error {
		p, err := a.Executor.CreateProfile(ctx, req)
		if err != nil {
			return err
		}
		printMarkdown(profileMarkdown(p))
		return nil
	})
}

type removeProfileCmd struct{}

func (*removeProfileCmd) Name() string           { return "remove-profile" }
func (*removeProfileCmd) Synopsis() string       { return "delete a profile with all its assets" }
func (*removeProfileCmd) Usage() string          { return "alphactl remove-profile <name>\n" }
func (*removeProfileCmd) SetFlags(*flag.FlagSet) {}

func (*removeProfileCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage("remove-profile needs exactly one profile name")
	}
	return run(ctx, func(a *app.App) error {
		if err := a.Executor.RemoveProfile(ctx, f.Arg(0)); err != nil {
			return err
		}
		fmt.Printf("Removed profile %s\n", f.Arg(0))
		return nil
	})
}

type settingsCmd struct {
	tolerance float64
	goal      float64
	benchmark string
	deployed  bool
}

func (*settingsCmd) Name() string     { return "settings" }
func (*settingsCmd) Synopsis() string { return "change drift tolerance, yearly goal or benchmark" }
func (*settingsCmd) Usage() string {
	return `alphactl settings [-tolerance pct] [-goal pct] [-benchmark ticker] [-deployed] <name>

  Only the given flags are changed. An empty -benchmark clears it.
  -deployed marks holdings entered by hand as fully funded.
`
}

func (c *settingsCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.tolerance, "tolerance", 0, "drift tolerance in percentage points (0.5 to 20)")
	f.Float64Var(&c.goal, "goal", 0, "yearly growth goal in percent")
	f.StringVar(&c.benchmark, "benchmark", "", "benchmark ticker")
	f.BoolVar(&c.deployed, "deployed", false, "mark the principal as fully deployed")
}

func (c *settingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage("settings needs exactly one profile name")
	}
	var s executor.Settings
	f.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "tolerance":
			s.DriftTolerance = &c.tolerance
		case "goal":
			s.YearlyGoalPct = &c.goal
		case "benchmark":
			s.Benchmark = &c.benchmark
		case "deployed":
			s.FullyDeployed = &c.deployed
		}
	})
	return run(ctx, func(a *app.App) error {
		p, err := a.Executor.UpdateSettings(ctx, f.Arg(0), s)
		if err != nil {
			return err
		}
		printMarkdown(profileMarkdown(p))
		return nil
	})
}

type setAssetCmd struct {
	units float64
}

func (*setAssetCmd) Name() string     { return "set-asset" }
func (*setAssetCmd) Synopsis() string { return "add or update a holding" }
func (*setAssetCmd) Usage() string {
	return `alphactl set-asset [-units n] <name> <ticker> <target%>

  Sets the target weight and units of a ticker. The ticker must have a price.
`
}

func (c *setAssetCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.units, "units", 0, "units held")
}

func (c *setAssetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 3 {
		return usage("set-asset needs a profile name, a ticker and a target")
	}
	target, err := parseFloat("target", strings.TrimSuffix(f.Arg(2), "%"))
	if err != nil {
		return usage(err.Error())
	}
	return run(ctx, func(a *app.App) error {
		asset, err := a.Executor.SetAsset(ctx, f.Arg(0), f.Arg(1), target, c.units)
		if err != nil {
			return err
		}
		fmt.Printf("%s: target %.2f%%, units %.4f\n", asset.Ticker, asset.Target, asset.Units)
		return nil
	})
}

type removeAssetCmd struct{}

func (*removeAssetCmd) Name() string           { return "remove-asset" }
func (*removeAssetCmd) Synopsis() string       { return "remove a holding and its purchase lots" }
func (*removeAssetCmd) Usage() string          { return "alphactl remove-asset <name> <ticker>\n" }
func (*removeAssetCmd) SetFlags(*flag.FlagSet) {}

func (*removeAssetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		return usage("remove-asset needs a profile name and a ticker")
	}
	return run(ctx, func(a *app.App) error {
		if err := a.Executor.RemoveAsset(ctx, f.Arg(0), f.Arg(1)); err != nil {
			return err
		}
		fmt.Printf("Removed %s from %s\n", portfolio.NormalizeTicker(f.Arg(1)), f.Arg(0))
		return nil
	})
}

type avgCostCmd struct{}

func (*avgCostCmd) Name() string           { return "avgcost" }
func (*avgCostCmd) Synopsis() string       { return "show the weighted-average purchase price of a holding" }
func (*avgCostCmd) Usage() string          { return "alphactl avgcost <name> <ticker>\n" }
func (*avgCostCmd) SetFlags(*flag.FlagSet) {}

func (*avgCostCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		return usage("avgcost needs a profile name and a ticker")
	}
	return run(ctx, func(a *app.App) error {
		p, err := a.Executor.Profile(ctx, f.Arg(0))
		if err != nil {
			return err
		}
		cost, ok, err := a.Executor.AverageCost(ctx, f.Arg(0), f.Arg(1))
		if err != nil {
			return err
		}
		ticker := portfolio.NormalizeTicker(f.Arg(1))
		if !ok {
			fmt.Printf("%s: average cost not available until the principal is fully deployed\n", ticker)
			return nil
		}
		fmt.Printf("%s: %s\n", ticker, format.Money(cost, p.Currency))
		return nil
	})
}

type driftCmd struct{}

func (*driftCmd) Name() string           { return "drift" }
func (*driftCmd) Synopsis() string       { return "check whether a profile needs rebalancing" }
func (*driftCmd) Usage() string          { return "alphactl drift <name>\n" }
func (*driftCmd) SetFlags(*flag.FlagSet) {}

func (*driftCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage("drift needs exactly one profile name")
	}
	return run(ctx, func(a *app.App) error {
		analysis, err := a.Executor.Analyze(ctx, f.Arg(0))
		if err != nil {
			return err
		}
		printMarkdown(driftMarkdown(analysis))
		return nil
	})
}

type ordersCmd struct {
	review bool
}

func (*ordersCmd) Name() string     { return "orders" }
func (*ordersCmd) Synopsis() string { return "show the trades that would restore the targets" }
func (*ordersCmd) Usage() string {
	return `alphactl orders [-review] <name>

  Computes the rebalance orders without applying them. With -review the
  configured advisor comments on the proposal.
`
}

func (c *ordersCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.review, "review", false, "ask the advisor for a review")
}

func (c *ordersCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage("orders needs exactly one profile name")
	}
	return run(ctx, func(a *app.App) error {
		if !c.review {
			analysis, err := a.Executor.Analyze(ctx, f.Arg(0))
			if err != nil {
				return err
			}
			printMarkdown(ordersMarkdown(analysis, nil))
			return nil
		}
		analysis, review, err := a.Executor.Review(ctx, f.Arg(0))
		if err != nil {
			if analysis == nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		printMarkdown(ordersMarkdown(analysis, review))
		return nil
	})
}

type rebalanceCmd struct {
	dryRun bool
}

func (*rebalanceCmd) Name() string     { return "rebalance" }
func (*rebalanceCmd) Synopsis() string { return "apply the target allocation to a profile" }
func (*rebalanceCmd) Usage() string {
	return `alphactl rebalance [-dry-run] <name>

  Overwrites every priced holding's units with its target value at current
  prices and records the change.
`
}

func (c *rebalanceCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.dryRun, "dry-run", false, "show the orders without applying them")
}

func (c *rebalanceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage("rebalance needs exactly one profile name")
	}
	return run(ctx, func(a *app.App) error {
		if c.dryRun {
			analysis, err := a.Executor.Analyze(ctx, f.Arg(0))
			if err != nil {
				return err
			}
			printMarkdown(ordersMarkdown(analysis, nil))
			fmt.Println("Dry run, nothing applied.")
			return nil
		}
		exec, err := a.Executor.Rebalance(ctx, f.Arg(0))
		if err != nil {
			return err
		}
		p, err := a.Executor.Profile(ctx, f.Arg(0))
		if err != nil {
			return err
		}
		printMarkdown(executionMarkdown(p, exec))
		return nil
	})
}

type tradesCmd struct{}

func (*tradesCmd) Name() string           { return "trades" }
func (*tradesCmd) Synopsis() string       { return "list past rebalances, newest first" }
func (*tradesCmd) Usage() string          { return "alphactl trades <name>\n" }
func (*tradesCmd) SetFlags(*flag.FlagSet) {}

func (*tradesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage("trades needs exactly one profile name")
	}
	return run(ctx, func(a *app.App) error {
		lines, err := a.Executor.Trades(ctx, f.Arg(0))
		if err != nil {
			return err
		}
		printMarkdown(tradesMarkdown(f.Arg(0), lines))
		return nil
	})
}

type deployCmd struct {
	date string
}

func (*deployCmd) Name() string     { return "deploy" }
func (*deployCmd) Synopsis() string { return "deploy a percentage of the principal into the market" }
func (*deployCmd) Usage() string {
	return `alphactl deploy [-d YYYY-MM-DD] <name> <pct>

  Buys pct percent of the principal split by target weight at current prices.
`
}

func (c *deployCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "purchase date (defaults to today)")
}

func (c *deployCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		return usage("deploy needs a profile name and a percentage")
	}
	pct, err := parseFloat("percentage", strings.TrimSuffix(f.Arg(1), "%"))
	if err != nil {
		return usage(err.Error())
	}
	var date time.Time
	if c.date != "" {
		day, err := portfolio.ParseDay(c.date)
		if err != nil {
			return usage(err.Error())
		}
		date = day.Time
	}
	return run(ctx, func(a *app.App) error {
		dep, err := a.Executor.Deploy(ctx, f.Arg(0), pct, date)
		if err != nil {
			return err
		}
		p, err := a.Executor.Profile(ctx, f.Arg(0))
		if err != nil {
			return err
		}
		printMarkdown(deploymentMarkdown(p, dep))
		return nil
	})
}

type performanceCmd struct{}

func (*performanceCmd) Name() string     { return "performance" }
func (*performanceCmd) Synopsis() string { return "compare a profile with its goal and benchmark" }
func (*performanceCmd) Usage() string {
	return "alphactl performance <name>\n"
}
func (*performanceCmd) SetFlags(*flag.FlagSet) {}

func (*performanceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage("performance needs exactly one profile name")
	}
	return run(ctx, func(a *app.App) error {
		report, err := a.Executor.Performance(ctx, f.Arg(0))
		if err != nil {
			return err
		}
		printMarkdown(performanceMarkdown(report))
		return nil
	})
}
