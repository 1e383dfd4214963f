package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Autilos/perfun-bot-new/internal/app"
	"github.com/Autilos/perfun-bot-new/internal/config"
	"github.com/Autilos/perfun-bot-new/internal/domain"
	logpkg "github.com/Autilos/perfun-bot-new/internal/logger"
	"github.com/Autilos/perfun-bot-new/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}

	code := run(cfg, env, logger)
	_ = logger.Sync()
	os.Exit(code)
}

func run(cfg config.Config, env string, logger *zap.Logger) int {
	logger.Info("Starting perfun sync",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("source", cfg.Source.Kind),
		zap.String("db_driver", cfg.Database.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", zap.Error(err))
		return 1
	}
	defer a.Close()

	opsCtx, stopOps := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(opsCtx)
	g.Go(func() error { return a.ServeOps(gctx) })

	sum, runErr := a.Driver().Run(ctx)

	stopOps()
	if err := g.Wait(); err != nil {
		logger.Error("Ops server failed", zap.Error(err))
	}

	if runErr != nil {
		if errors.Is(runErr, domain.ErrFatalCollector) {
			logger.Error("Sync aborted: product source unavailable", zap.Error(runErr))
		} else {
			logger.Error("Sync failed", zap.Error(runErr))
		}
		return 1
	}

	if n, err := a.Products.Count(context.WithoutCancel(ctx)); err != nil {
		logger.Warn("Failed to count knowledge base", zap.Error(err))
	} else {
		logger.Info("Knowledge base size", zap.Int("products", n))
	}

	if sum.Interrupted {
		logger.Warn("Sync interrupted, buffered records were flushed")
		return 130
	}
	return 0
}
