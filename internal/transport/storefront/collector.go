// Package storefront collects products by crawling the shop's product sitemap
// and parsing each rendered product page.
package storefront

import (
	"context"
	"fmt"
	"iter"

	"go.uber.org/zap"

	"github.com/Autilos/perfun-bot-new/internal/domain"
	"github.com/Autilos/perfun-bot-new/internal/domain/product"
)

// fetcher is the consumer interface for HTTP access (ISP).
type fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Collector yields one product.Raw per product page in the sitemap.
type Collector struct {
	fetch      fetcher
	sitemapURL string
	logger     *zap.Logger
}

// NewCollector creates a storefront collector. Request spacing is the
// fetcher's job.
func NewCollector(f fetcher, sitemapURL string, logger *zap.Logger) *Collector {
	return &Collector{fetch: f, sitemapURL: sitemapURL, logger: logger}
}

// Name identifies the source in logs.
func (c *Collector) Name() string { return "storefront" }

// Records downloads the sitemap and returns a lazy sequence over its product
// pages. A sitemap that cannot be fetched or parsed is fatal.
func (c *Collector) Records(ctx context.Context) (iter.Seq2[product.Raw, error], error) {
	body, err := c.fetch.Get(ctx, c.sitemapURL)
	if err != nil {
		return nil, fmt.Errorf("%w: sitemap %s: %w", domain.ErrFatalCollector, c.sitemapURL, err)
	}
	urls, err := parseSitemap(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFatalCollector, err)
	}

	c.logger.Info("Sitemap loaded",
		zap.String("url", c.sitemapURL),
		zap.Int("products", len(urls)),
	)

	return func(yield func(product.Raw, error) bool) {
		for _, u := range urls {
			if ctx.Err() != nil {
				return
			}
			if !yield(c.page(ctx, u)) {
				return
			}
		}
	}, nil
}

func (c *Collector) page(ctx context.Context, pageURL string) (product.Raw, error) {
	body, err := c.fetch.Get(ctx, pageURL)
	if err != nil {
		return product.Raw{ProductURL: pageURL}, domain.NewSkip(pageURL, "fetch failed", err)
	}
	return parsePage(body, pageURL)
}

// HealthCheck fetches the sitemap.
func (c *Collector) HealthCheck(ctx context.Context) error {
	if _, err := c.fetch.Get(ctx, c.sitemapURL); err != nil {
		return fmt.Errorf("sitemap: %w", err)
	}
	return nil
}
