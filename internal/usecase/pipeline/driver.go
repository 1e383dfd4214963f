// Package pipeline runs one catalog enrichment pass: load the reference
// dataset, walk the source records, merge, embed, and persist in batches.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Autilos/perfun-bot-new/internal/domain"
	"github.com/Autilos/perfun-bot-new/internal/domain/product"
	"github.com/Autilos/perfun-bot-new/internal/domain/reference"
	"github.com/Autilos/perfun-bot-new/internal/metrics"
)

// State is a pipeline lifecycle stage.
type State string

// Pipeline states, in order.
const (
	StateInit             State = "init"
	StateLoadingReference State = "loading_reference"
	StateCollecting       State = "collecting"
	StateFlushFinal       State = "flush_final"
	StateDone             State = "done"
)

var allStates = []State{StateInit, StateLoadingReference, StateCollecting, StateFlushFinal, StateDone}

// finalFlushTimeout bounds the last flush after an interruption.
const finalFlushTimeout = 30 * time.Second

// Summary is the outcome of one run.
type Summary struct {
	Processed   int // records merged and handed to the sink
	Skipped     int
	Matched     int
	Embedded    int
	Persisted   int
	Lost        int
	Interrupted bool
	Duration    time.Duration
}

// Driver orchestrates a run. A Driver is single-use per Run call and not
// safe for concurrent runs.
type Driver struct {
	collector Collector
	loadRefs  ReferenceLoader
	embedder  Embedder
	sink      Sink
	metrics   *metrics.Pipeline
	logger    *zap.Logger
	state     State
}

// NewDriver creates a pipeline driver. m may be nil.
func NewDriver(
	c Collector,
	refs ReferenceLoader,
	e Embedder,
	s Sink,
	m *metrics.Pipeline,
	logger *zap.Logger,
) *Driver {
	d := &Driver{
		collector: c,
		loadRefs:  refs,
		embedder:  e,
		sink:      s,
		metrics:   m,
		logger:    logger,
	}
	d.setState(StateInit)
	return d
}

// State returns the current lifecycle stage.
func (d *Driver) State() State { return d.state }

// Run executes one pass. Only a fatal collector error is returned; skipped
// records and failed batches are counted in the summary. When ctx is cancelled
// the records buffered so far are still flushed.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	var sum Summary

	d.setState(StateLoadingReference)
	idx := d.loadIndex()

	d.setState(StateCollecting)
	records, err := d.collector.Records(ctx)
	if err != nil {
		sum.Duration = time.Since(start)
		d.setState(StateDone)
		if !errors.Is(err, domain.ErrFatalCollector) {
			err = fmt.Errorf("%w: %w", domain.ErrFatalCollector, err)
		}
		d.logger.Error("Collector failed", zap.String("collector", d.collector.Name()), zap.Error(err))
		return sum, err
	}

	for raw, recErr := range records {
		if ctx.Err() != nil {
			sum.Interrupted = true
			break
		}
		if recErr != nil {
			d.skip(&sum, recErr)
			continue
		}
		d.process(ctx, idx, raw, &sum)
	}
	if ctx.Err() != nil {
		sum.Interrupted = true
	}

	d.setState(StateFlushFinal)
	flushCtx := ctx
	if sum.Interrupted {
		var cancel context.CancelFunc
		flushCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), finalFlushTimeout)
		defer cancel()
	}
	// The failure is already logged and counted by the sink.
	_ = d.sink.Flush(flushCtx)

	stats := d.sink.Stats()
	sum.Persisted = stats.Persisted
	sum.Lost = stats.Lost
	sum.Duration = time.Since(start)
	d.setState(StateDone)

	d.logger.Info("Pipeline finished",
		zap.String("collector", d.collector.Name()),
		zap.Int("processed", sum.Processed),
		zap.Int("skipped", sum.Skipped),
		zap.Int("matched", sum.Matched),
		zap.Int("embedded", sum.Embedded),
		zap.Int("persisted", sum.Persisted),
		zap.Int("lost", sum.Lost),
		zap.Bool("interrupted", sum.Interrupted),
		zap.Duration("duration", sum.Duration),
	)
	return sum, nil
}

func (d *Driver) process(ctx context.Context, idx *reference.Index, raw product.Raw, sum *Summary) {
	if err := raw.Validate(); err != nil {
		d.skip(sum, err)
		return
	}

	var ref *reference.Reference
	if r, ok := idx.Match(raw.Name); ok {
		ref = &r
		sum.Matched++
		d.countMatch("hit")
	} else {
		d.countMatch("miss")
		d.logger.Debug("No reference match", zap.String("external_id", raw.ExternalID), zap.String("name", raw.Name))
	}

	enriched := product.Merge(raw, ref)
	if vec, ok := d.embedder.Embed(ctx, enriched.Description()); ok {
		enriched = enriched.WithEmbedding(vec)
		sum.Embedded++
	}

	// A failed auto-flush is counted by the sink; the run goes on.
	_ = d.sink.Add(ctx, enriched)
	sum.Processed++
	if d.metrics != nil {
		d.metrics.RecordsTotal.WithLabelValues("processed").Inc()
	}
}

func (d *Driver) skip(sum *Summary, err error) {
	sum.Skipped++
	reason := domain.SkipReason(err)
	if d.metrics != nil {
		d.metrics.RecordsTotal.WithLabelValues("skipped").Inc()
		d.metrics.SkippedTotal.WithLabelValues(reason).Inc()
	}
	d.logger.Warn("Record skipped", zap.String("reason", reason), zap.Error(err))
}

func (d *Driver) loadIndex() *reference.Index {
	if d.loadRefs == nil {
		return reference.NewIndex(nil)
	}
	refs, err := d.loadRefs()
	if err != nil {
		d.logger.Error("Reference dataset unavailable, continuing without enrichment", zap.Error(err))
		return reference.NewIndex(nil)
	}
	idx := reference.NewIndex(refs)
	d.logger.Info("Reference index built",
		zap.Int("entries", len(refs)),
		zap.Int("keys", idx.Len()),
		zap.Int("collisions", idx.Collisions()),
	)
	return idx
}

func (d *Driver) countMatch(result string) {
	if d.metrics != nil {
		d.metrics.MatchesTotal.WithLabelValues(result).Inc()
	}
}

func (d *Driver) setState(s State) {
	d.state = s
	if d.metrics == nil {
		return
	}
	for _, st := range allStates {
		v := 0.0
		if st == s {
			v = 1
		}
		d.metrics.State.WithLabelValues(string(st)).Set(v)
	}
}
