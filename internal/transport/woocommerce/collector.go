package woocommerce

import (
	"context"
	"fmt"
	"iter"

	"go.uber.org/zap"

	"github.com/Autilos/perfun-bot-new/internal/domain"
	"github.com/Autilos/perfun-bot-new/internal/domain/product"
)

// Collector pages through the product catalog and yields one product.Raw per
// product. Variable products are expanded with their variation lines.
type Collector struct {
	client *Client
	logger *zap.Logger
}

// NewCollector creates a WooCommerce collector.
func NewCollector(client *Client, logger *zap.Logger) *Collector {
	return &Collector{client: client, logger: logger}
}

// Name identifies the source in logs.
func (c *Collector) Name() string { return "woocommerce" }

// Records fetches the first page eagerly so an unreachable or unauthorized
// API fails the run; later pages are fetched as the sequence is consumed.
func (c *Collector) Records(ctx context.Context) (iter.Seq2[product.Raw, error], error) {
	first, err := c.client.Products(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFatalCollector, err)
	}

	return func(yield func(product.Raw, error) bool) {
		page, items := 1, first
		for len(items) > 0 {
			c.logger.Debug("Products page fetched", zap.Int("page", page), zap.Int("count", len(items)))

			for _, p := range items {
				if ctx.Err() != nil {
					return
				}
				if !yield(c.record(ctx, p)) {
					return
				}
			}

			page++
			items, err = c.client.Products(ctx, page)
			if err != nil {
				if ctx.Err() == nil {
					c.logger.Error("Product listing aborted", zap.Int("page", page), zap.Error(err))
				}
				return
			}
		}
	}, nil
}

func (c *Collector) record(ctx context.Context, p Product) (product.Raw, error) {
	var variations []Variation
	if p.Type == typeVariable {
		v, err := c.client.Variations(ctx, p.ID)
		if err != nil {
			c.logger.Warn("Variations unavailable",
				zap.Int64("product_id", p.ID),
				zap.Error(err),
			)
		}
		variations = v
	}
	return toRaw(p, variations)
}

// HealthCheck verifies the API answers and accepts the credentials.
func (c *Collector) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx)
}
