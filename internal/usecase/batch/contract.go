package batch

import (
	"context"

	"github.com/Autilos/perfun-bot-new/internal/domain/product"
)

// Writer persists a batch of products in one submission, replacing existing
// entries with the same external id.
type Writer interface {
	BatchUpsert(ctx context.Context, products []product.Enriched) error
}
