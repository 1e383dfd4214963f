// Package bestseller marks the best selling products in the knowledge base.
package bestseller

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Autilos/perfun-bot-new/internal/domain"
)

// Defaults used when Config fields are zero.
const (
	DefaultLookback = 30 * 24 * time.Hour
	DefaultTopN     = 10
	DefaultTag      = "[BESTSELLER]"
)

// DefaultExcluded is the free sample product, which is added to most orders.
var DefaultExcluded = []int64{15916}

// Config controls ranking and tagging.
type Config struct {
	Lookback time.Duration
	TopN     int
	Excluded []int64
	Tag      string
}

// Ranked is a product id with the units sold in the lookback window.
type Ranked struct {
	ProductID int64
	Units     int
}

// Result summarizes a tagging pass.
type Result struct {
	Top           []Ranked
	Tagged        int
	AlreadyTagged int
	Missing       int
}

// Service ranks products by units sold and tags the stored descriptions.
type Service struct {
	orders   OrderSource
	products productStore
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a Service. Zero Config fields take the defaults; a nil
// Excluded list excludes DefaultExcluded.
func New(orders OrderSource, products productStore, cfg Config, logger *zap.Logger) *Service {
	if cfg.Lookback <= 0 {
		cfg.Lookback = DefaultLookback
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	if cfg.Excluded == nil {
		cfg.Excluded = DefaultExcluded
	}
	if cfg.Tag == "" {
		cfg.Tag = DefaultTag
	}
	return &Service{
		orders:   orders,
		products: products,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Rank returns the top products by units sold. Ties go to the lower id.
func (s *Service) Rank(ctx context.Context) ([]Ranked, error) {
	since := s.now().Add(-s.cfg.Lookback)
	sales, err := s.orders.Sales(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("fetch sales: %w", err)
	}

	units := make(map[int64]int)
	for _, sale := range sales {
		if slices.Contains(s.cfg.Excluded, sale.ProductID) || sale.ProductID == 0 {
			continue
		}
		units[sale.ProductID] += sale.Quantity
	}

	ranked := make([]Ranked, 0, len(units))
	for id, n := range units {
		if n > 0 {
			ranked = append(ranked, Ranked{ProductID: id, Units: n})
		}
	}
	slices.SortFunc(ranked, func(a, b Ranked) int {
		if c := cmp.Compare(b.Units, a.Units); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	if len(ranked) > s.cfg.TopN {
		ranked = ranked[:s.cfg.TopN]
	}
	return ranked, nil
}

// Tag appends the tag to the descriptions of the top products that do not
// carry it yet. Products missing from the knowledge base are logged and
// counted; any other store failure aborts.
func (s *Service) Tag(ctx context.Context) (Result, error) {
	top, err := s.Rank(ctx)
	if err != nil {
		return Result{}, err
	}

	res := Result{Top: top}
	for _, r := range top {
		id := strconv.FormatInt(r.ProductID, 10)
		p, err := s.products.Get(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			res.Missing++
			s.logger.Warn("Bestseller not in knowledge base", zap.String("external_id", id))
			continue
		}
		if err != nil {
			return res, fmt.Errorf("get product %s: %w", id, err)
		}

		if strings.Contains(p.Description(), s.cfg.Tag) {
			res.AlreadyTagged++
			s.logger.Debug("Already tagged", zap.String("external_id", id), zap.String("name", p.Name()))
			continue
		}

		tagged := p.WithDescription(p.Description() + "\n\n" + s.cfg.Tag)
		if err := s.products.Upsert(ctx, tagged); err != nil {
			return res, fmt.Errorf("tag product %s: %w", id, err)
		}
		res.Tagged++
		s.logger.Info("Tagged as bestseller",
			zap.String("external_id", id),
			zap.String("name", p.Name()),
			zap.Int("units", r.Units),
		)
	}
	return res, nil
}
