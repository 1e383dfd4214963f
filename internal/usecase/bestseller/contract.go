package bestseller

import (
	"context"
	"time"

	"github.com/Autilos/perfun-bot-new/internal/domain/product"
)

// Sale is one ordered line: a product id and the quantity sold.
type Sale struct {
	ProductID int64
	Quantity  int
}

// OrderSource returns order lines of paid orders placed after since.
type OrderSource interface {
	Sales(ctx context.Context, since time.Time) ([]Sale, error)
}

// productStore is the consumer interface for stored products (ISP).
type productStore interface {
	Get(ctx context.Context, externalID string) (product.Enriched, error)
	Upsert(ctx context.Context, p product.Enriched) error
}
