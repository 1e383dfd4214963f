package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Autilos/perfun-bot-new/internal/domain"
)

// BudgetAction defines behavior when token budget is exceeded.
type BudgetAction string

const (
	// BudgetActionWarn logs once per period and lets requests through.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject blocks the request.
	BudgetActionReject BudgetAction = "reject"
)

// persistTimeout bounds each counter write.
const persistTimeout = 2 * time.Second

// BudgetStore is the persistence interface for budget counters.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// BudgetLimits configures a tracker. Zero limits mean unlimited.
type BudgetLimits struct {
	Daily   int64
	Monthly int64
	Action  BudgetAction
}

// BudgetUsage is a point-in-time view of the counters.
type BudgetUsage struct {
	DailyUsed, DailyLimit     int64
	MonthlyUsed, MonthlyLimit int64
}

// BudgetTracker caps embedding spend per day and per month. Check is served
// from memory; Record updates memory, then writes through to the store so
// consecutive runs share one budget.
type BudgetTracker struct {
	mu        sync.Mutex
	limits    BudgetLimits
	provider  string
	keyPrefix string
	store     BudgetStore
	logger    *zap.Logger
	now       func() time.Time

	day, month         time.Time
	dailyUsed, monthly int64
	warned             bool
}

// NewBudgetTracker creates a budget tracker. Counter keys are stored under keyPrefix.
func NewBudgetTracker(provider, keyPrefix string, limits BudgetLimits, logger *zap.Logger) *BudgetTracker {
	if limits.Action == "" {
		limits.Action = BudgetActionWarn
	}
	b := &BudgetTracker{
		limits:    limits,
		provider:  provider,
		keyPrefix: keyPrefix,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	b.day, b.month = periodStart(b.now())
	return b
}

// WithStore attaches a persistence store and loads the current period's counters.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	now := b.now()
	if v, err := store.Get(ctx, b.dailyKey(now)); err == nil {
		b.dailyUsed = v
	} else {
		b.logger.Warn("Failed to load daily budget", zap.Error(err))
	}
	if v, err := store.Get(ctx, b.monthlyKey(now)); err == nil {
		b.monthly = v
	} else {
		b.logger.Warn("Failed to load monthly budget", zap.Error(err))
	}

	b.logger.Info("Embedding budget loaded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.dailyUsed),
		zap.Int64("monthly_used", b.monthly),
	)
	return b
}

// Check returns domain.ErrEmbeddingQuotaExceeded when a limit is reached and
// the action is reject.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()

	over := (b.limits.Daily > 0 && b.dailyUsed >= b.limits.Daily) ||
		(b.limits.Monthly > 0 && b.monthly >= b.limits.Monthly)
	if !over {
		return nil
	}
	if b.limits.Action == BudgetActionReject {
		return domain.ErrEmbeddingQuotaExceeded
	}
	if !b.warned {
		b.warned = true
		b.logger.Warn("Token budget exceeded, continuing",
			zap.String("provider", b.provider),
			zap.Int64("daily_used", b.dailyUsed),
			zap.Int64("daily_limit", b.limits.Daily),
			zap.Int64("monthly_used", b.monthly),
			zap.Int64("monthly_limit", b.limits.Monthly),
		)
	}
	return nil
}

// Record adds consumed tokens and persists them when a store is attached.
func (b *BudgetTracker) Record(ctx context.Context, tokens int64) {
	b.mu.Lock()
	b.rollover()
	b.dailyUsed += tokens
	b.monthly += tokens
	store := b.store
	now := b.now()
	b.mu.Unlock()

	if store == nil {
		return
	}

	// Counters must survive a cancelled run.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	for _, key := range []string{b.dailyKey(now), b.monthlyKey(now)} {
		if err := store.IncrBy(ctx, key, tokens); err != nil {
			b.logger.Warn("Failed to persist budget", zap.String("key", key), zap.Error(err))
		}
	}
}

// RemainingDaily returns tokens left today, -1 when unlimited.
func (b *BudgetTracker) RemainingDaily() int64 {
	u := b.Usage()
	return remaining(u.DailyLimit, u.DailyUsed)
}

// RemainingMonthly returns tokens left this month, -1 when unlimited.
func (b *BudgetTracker) RemainingMonthly() int64 {
	u := b.Usage()
	return remaining(u.MonthlyLimit, u.MonthlyUsed)
}

// Usage returns the current counters.
func (b *BudgetTracker) Usage() BudgetUsage {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return BudgetUsage{
		DailyUsed:    b.dailyUsed,
		DailyLimit:   b.limits.Daily,
		MonthlyUsed:  b.monthly,
		MonthlyLimit: b.limits.Monthly,
	}
}

func (b *BudgetTracker) dailyKey(t time.Time) string {
	return fmt.Sprintf("%sbudget:%s:daily:%s", b.keyPrefix, b.provider, t.Format("2006-01-02"))
}

func (b *BudgetTracker) monthlyKey(t time.Time) string {
	return fmt.Sprintf("%sbudget:%s:monthly:%s", b.keyPrefix, b.provider, t.Format("2006-01"))
}

// rollover zeroes counters when the day or month changes. Caller holds mu.
func (b *BudgetTracker) rollover() {
	day, month := periodStart(b.now())
	if day.After(b.day) {
		b.day = day
		b.dailyUsed = 0
		b.warned = false
	}
	if month.After(b.month) {
		b.month = month
		b.monthly = 0
		b.warned = false
	}
}

func periodStart(t time.Time) (day, month time.Time) {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
		time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func remaining(limit, used int64) int64 {
	if limit == 0 {
		return -1
	}
	if used >= limit {
		return 0
	}
	return limit - used
}
