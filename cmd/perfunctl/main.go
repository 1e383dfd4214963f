package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Autilos/perfun-bot-new/internal/app"
	"github.com/Autilos/perfun-bot-new/internal/config"
	logpkg "github.com/Autilos/perfun-bot-new/internal/logger"
	healthuc "github.com/Autilos/perfun-bot-new/internal/usecase/health"
	usageuc "github.com/Autilos/perfun-bot-new/internal/usecase/usage"
	"github.com/Autilos/perfun-bot-new/internal/version"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "perfunctl",
		Usage:   "Operate the perfun knowledge base",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Usage:   "Config environment (reads config/<env>.yaml)",
				EnvVars: []string{"ENV"},
				Value:   "local",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "sync",
				Usage:  "Run one enrichment pass over the product source",
				Action: syncCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "source",
						Usage: "Override source.kind (storefront, woocommerce)",
					},
					&cli.StringFlag{
						Name:  "reference",
						Usage: "Override reference.path",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Override pipeline.batch_size",
					},
				},
			},
			{
				Name:   "count",
				Usage:  "Print the exact number of stored products",
				Action: countCommand,
			},
			{
				Name:   "bestsellers",
				Usage:  "Tag the best selling products of the last days",
				Action: bestsellersCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Only print the ranking",
					},
					&cli.IntFlag{
						Name:  "top",
						Usage: "Override bestseller.top_n",
					},
				},
			},
			{
				Name:   "health",
				Usage:  "Check database, embedding provider and product source",
				Action: healthCommand,
			},
			{
				Name:   "usage",
				Usage:  "Print embedding token spend for the current period",
				Action: usageCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "period",
						Usage: "Aggregation period (day, month)",
						Value: string(usageuc.PeriodDay),
					},
				},
			},
		},
	}
}

// setup loads config, applies overrides and builds the components.
func setup(c *cli.Context, override func(*config.Config)) (*app.App, *zap.Logger, error) {
	env := c.String("env")
	cfg, err := config.Load(env)
	if err != nil {
		return nil, nil, err
	}
	if override != nil {
		override(&cfg)
		if err := cfg.Validate(); err != nil {
			return nil, nil, fmt.Errorf("invalid config: %w", err)
		}
	}

	level := c.String("log-level")
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logpkg.NewLogger(env, level)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	a, err := app.New(c.Context, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return a, logger, nil
}

func syncCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	c.Context = ctx

	a, logger, err := setup(c, func(cfg *config.Config) {
		if s := c.String("source"); s != "" {
			cfg.Source.Kind = s
		}
		if p := c.String("reference"); p != "" {
			cfg.Reference.Path = p
		}
		if n := c.Int("batch-size"); n > 0 {
			cfg.Pipeline.BatchSize = n
		}
	})
	if err != nil {
		return err
	}
	defer a.Close()
	defer func() { _ = logger.Sync() }()

	sum, err := a.Driver().Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer,
		"processed=%d skipped=%d matched=%d embedded=%d persisted=%d lost=%d interrupted=%t duration=%s\n",
		sum.Processed, sum.Skipped, sum.Matched, sum.Embedded, sum.Persisted, sum.Lost, sum.Interrupted, sum.Duration,
	)
	if sum.Interrupted {
		return cli.Exit("interrupted", 130)
	}
	return nil
}

func countCommand(c *cli.Context) error {
	a, _, err := setup(c, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.Products.Count(c.Context)
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	fmt.Fprintln(c.App.Writer, n)
	return nil
}

func bestsellersCommand(c *cli.Context) error {
	a, _, err := setup(c, func(cfg *config.Config) {
		if n := c.Int("top"); n > 0 {
			cfg.Bestseller.TopN = n
		}
	})
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.Bestsellers()
	if err != nil {
		return err
	}

	if c.Bool("dry-run") {
		ranked, err := svc.Rank(c.Context)
		if err != nil {
			return err
		}
		for i, r := range ranked {
			fmt.Fprintf(c.App.Writer, "%2d. %d (%d units)\n", i+1, r.ProductID, r.Units)
		}
		return nil
	}

	res, err := svc.Tag(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "top=%d tagged=%d already_tagged=%d missing=%d\n",
		len(res.Top), res.Tagged, res.AlreadyTagged, res.Missing)
	return nil
}

func healthCommand(c *cli.Context) error {
	a, _, err := setup(c, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	report := a.Health.Check(context.WithoutCancel(c.Context))
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if report.Status == healthuc.Unhealthy {
		return cli.Exit("unhealthy", 1)
	}
	return nil
}

func usageCommand(c *cli.Context) error {
	period, err := usageuc.ParsePeriod(c.String("period"))
	if err != nil {
		return err
	}
	a, _, err := setup(c, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(a.Usage.GetReport(c.Context, period))
}
