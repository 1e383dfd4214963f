package pipeline

import (
	"context"
	"iter"

	"github.com/Autilos/perfun-bot-new/internal/domain/product"
	"github.com/Autilos/perfun-bot-new/internal/domain/reference"
	"github.com/Autilos/perfun-bot-new/internal/usecase/batch"
)

// Collector yields source records. Records fails only when the source is
// unreachable as a whole (error wraps domain.ErrFatalCollector); per-item
// problems are yielded as skippable errors.
type Collector interface {
	Name() string
	Records(ctx context.Context) (iter.Seq2[product.Raw, error], error)
}

// Embedder computes an optional embedding for a description.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, bool)
}

// Sink buffers enriched products for batched persistence.
type Sink interface {
	Add(ctx context.Context, p product.Enriched) error
	Flush(ctx context.Context) error
	Stats() batch.Stats
}

// ReferenceLoader reads the reference dataset.
type ReferenceLoader func() ([]reference.Reference, error)
