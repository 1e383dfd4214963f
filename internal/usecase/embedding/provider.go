package embedding

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Autilos/perfun-bot-new/internal/domain"
	"github.com/Autilos/perfun-bot-new/internal/domain/product"
	"github.com/Autilos/perfun-bot-new/internal/metrics"
)

// DefaultMinTextLength is the shortest text, in characters, worth embedding.
const DefaultMinTextLength = 10

// Skip reasons reported on the skipped counter.
const (
	SkipTooShort      = "too_short"
	SkipNoDescription = "no_description"
	SkipFailed        = "failed"
	SkipDisabled      = "disabled"
)

// Provider decides whether a description is worth embedding and turns
// embedder failures into an absent vector. A product without an embedding is
// still stored.
type Provider struct {
	inner   domain.Embedder
	minLen  int
	metrics *metrics.Embedding
	logger  *zap.Logger
}

// NewProvider wraps an embedder chain. minLen <= 0 uses DefaultMinTextLength.
// A nil inner disables embedding; every product is stored without a vector.
func NewProvider(inner domain.Embedder, minLen int, m *metrics.Embedding, logger *zap.Logger) *Provider {
	if minLen <= 0 {
		minLen = DefaultMinTextLength
	}
	return &Provider{inner: inner, minLen: minLen, metrics: m, logger: logger}
}

// Eligible reports whether text would be sent to the embedder, and if not, why.
func (p *Provider) Eligible(text string) (bool, string) {
	if text == product.NoDescription {
		return false, SkipNoDescription
	}
	if utf8.RuneCountInString(text) < p.minLen {
		return false, SkipTooShort
	}
	return true, ""
}

// Embed returns the vector for text, or false when the text is ineligible or
// the embedder failed.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, bool) {
	if ok, reason := p.Eligible(text); !ok {
		p.skip(reason)
		return nil, false
	}
	if p.inner == nil {
		p.skip(SkipDisabled)
		return nil, false
	}

	res, err := p.inner.Embed(ctx, text)
	if err != nil {
		p.logger.Warn("Embedding unavailable, storing without vector",
			zap.Int("text_length", len(text)),
			zap.Error(err),
		)
		p.skip(SkipFailed)
		return nil, false
	}
	if len(res.Embedding) == 0 {
		p.skip(SkipFailed)
		return nil, false
	}
	return res.Embedding, true
}

func (p *Provider) skip(reason string) {
	if p.metrics != nil {
		p.metrics.SkippedTotal.WithLabelValues(reason).Inc()
	}
}
