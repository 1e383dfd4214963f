// Package batch buffers enriched products and submits them to the knowledge
// base in fixed-size batches.
package batch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Autilos/perfun-bot-new/internal/domain"
	"github.com/Autilos/perfun-bot-new/internal/domain/product"
	"github.com/Autilos/perfun-bot-new/internal/metrics"
)

// DefaultSize is the flush threshold.
const DefaultSize = 10

// Stats counts flush outcomes.
type Stats struct {
	Flushes       int
	FailedFlushes int
	Persisted     int
	Lost          int
}

// Upserter accumulates products and flushes them when the buffer is full.
// It is not safe for concurrent use; one pipeline run owns it.
type Upserter struct {
	writer  Writer
	size    int
	buf     []product.Enriched
	stats   Stats
	metrics *metrics.Pipeline
	logger  *zap.Logger
}

// New creates an upserter. size <= 0 uses DefaultSize; m may be nil.
func New(w Writer, size int, m *metrics.Pipeline, logger *zap.Logger) *Upserter {
	if size <= 0 {
		size = DefaultSize
	}
	return &Upserter{
		writer:  w,
		size:    size,
		buf:     make([]product.Enriched, 0, size),
		metrics: m,
		logger:  logger,
	}
}

// Add buffers p and flushes once the threshold is reached. The returned error
// is the flush failure, if any; the record is not retried.
func (u *Upserter) Add(ctx context.Context, p product.Enriched) error {
	u.buf = append(u.buf, p)
	if len(u.buf) < u.size {
		return nil
	}
	return u.Flush(ctx)
}

// Flush submits whatever is buffered. On failure the buffer is dropped, the
// loss is counted, and an error wrapping domain.ErrBatchPersist is returned.
func (u *Upserter) Flush(ctx context.Context) error {
	if len(u.buf) == 0 {
		return nil
	}

	pending := u.buf
	u.buf = make([]product.Enriched, 0, u.size)
	n := len(pending)

	start := time.Now()
	err := u.writer.BatchUpsert(ctx, pending)
	duration := time.Since(start)

	if u.metrics != nil {
		u.metrics.BatchDuration.Observe(duration.Seconds())
	}

	if err != nil {
		u.stats.FailedFlushes++
		u.stats.Lost += n
		if u.metrics != nil {
			u.metrics.BatchesTotal.WithLabelValues("error").Inc()
			u.metrics.RecordsLost.Add(float64(n))
		}
		u.logger.Error("Batch upsert failed, records dropped",
			zap.Int("batch_size", n),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %d records: %w", domain.ErrBatchPersist, n, err)
	}

	u.stats.Flushes++
	u.stats.Persisted += n
	if u.metrics != nil {
		u.metrics.BatchesTotal.WithLabelValues("ok").Inc()
	}
	u.logger.Info("Batch upserted",
		zap.Int("batch_size", n),
		zap.Duration("duration", duration),
	)
	return nil
}

// Pending returns the number of buffered records.
func (u *Upserter) Pending() int { return len(u.buf) }

// Stats returns the flush counters so far.
func (u *Upserter) Stats() Stats { return u.stats }
