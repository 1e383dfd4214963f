// Package app is the composition root shared by the binaries: it turns a
// Config into a store, a collector, an embedder chain and the use cases.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Autilos/perfun-bot-new/internal/config"
	"github.com/Autilos/perfun-bot-new/internal/db"
	dbBadger "github.com/Autilos/perfun-bot-new/internal/db/badger"
	dbRedis "github.com/Autilos/perfun-bot-new/internal/db/redis"
	"github.com/Autilos/perfun-bot-new/internal/domain"
	domref "github.com/Autilos/perfun-bot-new/internal/domain/reference"
	"github.com/Autilos/perfun-bot-new/internal/metrics"
	budgetrepo "github.com/Autilos/perfun-bot-new/internal/repository/budget"
	"github.com/Autilos/perfun-bot-new/internal/repository/embcache"
	productrepo "github.com/Autilos/perfun-bot-new/internal/repository/product"
	refrepo "github.com/Autilos/perfun-bot-new/internal/repository/reference"
	chiTransport "github.com/Autilos/perfun-bot-new/internal/transport/chi"
	"github.com/Autilos/perfun-bot-new/internal/transport/fetch"
	openaiEmb "github.com/Autilos/perfun-bot-new/internal/transport/openai"
	"github.com/Autilos/perfun-bot-new/internal/transport/storefront"
	"github.com/Autilos/perfun-bot-new/internal/transport/woocommerce"
	batchuc "github.com/Autilos/perfun-bot-new/internal/usecase/batch"
	"github.com/Autilos/perfun-bot-new/internal/usecase/bestseller"
	embeddinguc "github.com/Autilos/perfun-bot-new/internal/usecase/embedding"
	healthuc "github.com/Autilos/perfun-bot-new/internal/usecase/health"
	"github.com/Autilos/perfun-bot-new/internal/usecase/pipeline"
	usageuc "github.com/Autilos/perfun-bot-new/internal/usecase/usage"
)

// ErrBestsellersUnavailable is returned when no commerce API credentials are configured.
var ErrBestsellersUnavailable = errors.New("bestseller tagging needs source.consumer_key and source.consumer_secret")

const embeddingProvider = "openai"

// sourceCollector is a pipeline collector that can also be probed.
type sourceCollector interface {
	pipeline.Collector
	HealthCheck(ctx context.Context) error
}

// App holds the wired components of one process.
type App struct {
	Config    config.Config
	Registry  *prometheus.Registry
	Store     db.Store
	Products  *productrepo.Repo
	Collector sourceCollector
	Embedder  *embeddinguc.Provider
	Health    *healthuc.Service
	Usage     *usageuc.Service

	pipelineMetrics *metrics.Pipeline
	woo             *woocommerce.Client
	logger          *zap.Logger
}

// New connects to the database and builds every component. The caller owns
// Close.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	store, err := openStore(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.String("driver", cfg.Database.Driver))

	// Metrics are registered explicitly, no init().
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pm := metrics.NewPipeline(reg)
	em := metrics.NewEmbedding(reg)

	a := &App{
		Config:          cfg,
		Registry:        reg,
		Store:           store,
		Products:        productrepo.New(store, cfg.Storage.KeyPrefix),
		pipelineMetrics: pm,
		logger:          logger,
	}

	if cfg.Source.ConsumerKey != "" && cfg.Source.SiteURL != "" {
		a.woo = woocommerce.NewClient(newFetcher(cfg.Source, true, pm, logger), cfg.Source.SiteURL, cfg.Source.PageSize)
	}

	switch cfg.Source.Kind {
	case config.SourceWooCommerce:
		a.Collector = woocommerce.NewCollector(a.woo, logger)
	default:
		a.Collector = storefront.NewCollector(newFetcher(cfg.Source, false, pm, logger), cfg.Source.SitemapURL, logger)
	}

	inner, checker, budget := buildEmbedder(ctx, cfg, store, em, logger)
	a.Embedder = embeddinguc.NewProvider(inner, cfg.Embedding.MinTextLength, em, logger)
	a.Health = healthuc.New(store, checker, a.Collector)

	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetReader = budget
	}
	a.Usage = usageuc.New(budgetReader)

	return a, nil
}

// Close releases the database.
func (a *App) Close() {
	a.Store.Close()
}

// Driver builds a pipeline driver with a fresh batch buffer.
func (a *App) Driver() *pipeline.Driver {
	sink := batchuc.New(a.Products, a.Config.Pipeline.BatchSize, a.pipelineMetrics, a.logger)
	return pipeline.NewDriver(a.Collector, a.referenceLoader(), a.Embedder, sink, a.pipelineMetrics, a.logger)
}

// Bestsellers builds the bestseller tagging service.
func (a *App) Bestsellers() (*bestseller.Service, error) {
	if a.woo == nil {
		return nil, ErrBestsellersUnavailable
	}
	bc := a.Config.Bestseller
	return bestseller.New(woocommerce.NewSalesSource(a.woo), a.Products, bestseller.Config{
		Lookback: time.Duration(bc.LookbackDays) * 24 * time.Hour,
		TopN:     bc.TopN,
		Excluded: bc.ExcludedProductIDs,
		Tag:      bc.Tag,
	}, a.logger), nil
}

// ServeOps runs the metrics/health listener until ctx is done. It returns
// immediately when ops.port is 0.
func (a *App) ServeOps(ctx context.Context) error {
	if a.Config.Ops.Port == 0 {
		return nil
	}
	srv := chiTransport.NewServer(a.Health, a.Registry, a.logger)
	return chiTransport.Serve(ctx, a.Config.Ops.Port, srv.Router(a.Config.Ops.APIKeys),
		time.Duration(a.Config.Ops.ShutdownSec)*time.Second, a.logger)
}

func (a *App) referenceLoader() pipeline.ReferenceLoader {
	path := a.Config.Reference.Path
	return func() ([]domref.Reference, error) {
		if path == "" {
			return nil, errors.New("reference.path is not set")
		}
		refs, issues, err := refrepo.Load(path)
		if err != nil {
			return nil, err
		}
		for _, is := range issues {
			a.logger.Warn("Reference entry degraded",
				zap.Int("index", is.Index),
				zap.String("name", is.Name),
				zap.String("field", is.Field),
				zap.Error(is.Err),
			)
		}
		if len(issues) > 0 {
			a.logger.Warn("Reference dataset loaded with issues",
				zap.String("path", path),
				zap.Int("entries", len(refs)),
				zap.Int("issues", len(issues)),
			)
		}
		return refs, nil
	}
}

func openStore(cfg config.DatabaseConfig, logger *zap.Logger) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverBadger:
		s, err := dbBadger.Open(cfg.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
		return s, nil
	case config.DriverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func newFetcher(cfg config.SourceConfig, auth bool, pm *metrics.Pipeline, logger *zap.Logger) *fetch.Client {
	fc := fetch.Config{
		Delay:      time.Duration(cfg.RequestDelayMs) * time.Millisecond,
		Timeout:    time.Duration(cfg.TimeoutSec) * time.Second,
		MaxRetries: cfg.MaxRetries,
		UserAgent:  cfg.UserAgent,
		Requests:   pm.SourceRequests,
	}
	if auth {
		fc.Username = cfg.ConsumerKey
		fc.Password = cfg.ConsumerSecret
	}
	return fetch.New(fc, logger)
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
// Without an API key embedding is disabled and all results are nil. The
// budget tracker always counts spend; it only enforces when a limit is set.
func buildEmbedder(
	ctx context.Context,
	cfg config.Config,
	store db.Store,
	m *metrics.Embedding,
	logger *zap.Logger,
) (domain.Embedder, healthuc.EmbeddingChecker, *embeddinguc.BudgetTracker) {
	ec := cfg.Embedding
	if ec.APIKey == "" {
		logger.Warn("embedding.api_key not set, products are stored without vectors")
		return nil, nil, nil
	}

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     ec.APIKey,
		BaseURL:    ec.BaseURL,
		Model:      ec.Model,
		Dimensions: ec.Dimensions,
		Provider:   embeddingProvider,
		Metrics:    m,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if ec.Cache {
		embedder = embcache.New(base, store, embcache.Config{
			KeyPrefix:  cfg.Storage.KeyPrefix,
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
		}, m.CacheTotal, logger)
	}

	action := embeddinguc.BudgetActionWarn
	if ec.Budget.Action == string(embeddinguc.BudgetActionReject) {
		action = embeddinguc.BudgetActionReject
	}
	budget := embeddinguc.NewBudgetTracker(embeddingProvider, cfg.Storage.KeyPrefix, embeddinguc.BudgetLimits{
		Daily:   ec.Budget.DailyTokenLimit,
		Monthly: ec.Budget.MonthlyTokenLimit,
		Action:  action,
	}, logger).WithStore(ctx, budgetrepo.New(store))

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, embeddingProvider, ec.Model, budget, m, logger)
	logger.Info("Embedder created",
		zap.String("provider", embeddingProvider),
		zap.String("model", ec.Model),
		zap.Int("dimensions", ec.Dimensions),
		zap.Bool("cache", ec.Cache),
	)
	return embedder, base, budget
}
