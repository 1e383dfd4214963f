package embedding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Autilos/perfun-bot-new/internal/domain"
)

func newTracker(daily, monthly int64, action BudgetAction) *BudgetTracker {
	return NewBudgetTracker("test", "perfun:", BudgetLimits{Daily: daily, Monthly: monthly, Action: action}, zap.NewNop())
}

func TestBudgetTracker_RejectWhenExceeded(t *testing.T) {
	bt := newTracker(100, 0, BudgetActionReject)
	bt.Record(context.Background(), 100)

	if err := bt.Check(context.Background()); !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("expected domain.ErrEmbeddingQuotaExceeded, got %v", err)
	}
}

func TestBudgetTracker_WarnWhenExceeded(t *testing.T) {
	bt := newTracker(100, 0, BudgetActionWarn)
	bt.Record(context.Background(), 200)

	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("expected nil error for warn action, got %v", err)
	}
	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("expected nil error on repeated check, got %v", err)
	}
}

func TestBudgetTracker_DefaultActionIsWarn(t *testing.T) {
	bt := newTracker(10, 0, "")
	bt.Record(context.Background(), 50)

	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("expected warn by default, got %v", err)
	}
}

func TestBudgetTracker_MonthlyReject(t *testing.T) {
	bt := newTracker(0, 500, BudgetActionReject)
	bt.Record(context.Background(), 500)

	if err := bt.Check(context.Background()); !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("expected domain.ErrEmbeddingQuotaExceeded for monthly limit, got %v", err)
	}
}

func TestBudgetTracker_UnlimitedWhenZero(t *testing.T) {
	bt := newTracker(0, 0, BudgetActionReject)
	bt.Record(context.Background(), 999999999)

	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("expected nil error for unlimited budget, got %v", err)
	}
	if bt.RemainingDaily() != -1 || bt.RemainingMonthly() != -1 {
		t.Errorf("expected -1 for unlimited, got %d/%d", bt.RemainingDaily(), bt.RemainingMonthly())
	}
}

func TestBudgetTracker_Remaining(t *testing.T) {
	bt := newTracker(1000, 10000, BudgetActionWarn)
	bt.Record(context.Background(), 300)

	if daily := bt.RemainingDaily(); daily != 700 {
		t.Errorf("expected daily remaining 700, got %d", daily)
	}
	if monthly := bt.RemainingMonthly(); monthly != 9700 {
		t.Errorf("expected monthly remaining 9700, got %d", monthly)
	}

	bt.Record(context.Background(), 5000)
	if daily := bt.RemainingDaily(); daily != 0 {
		t.Errorf("expected daily remaining clamped to 0, got %d", daily)
	}
}

func TestBudgetTracker_DailyRollover(t *testing.T) {
	bt := newTracker(100, 1000, BudgetActionReject)
	now := time.Date(2026, 10, 15, 23, 59, 0, 0, time.UTC)
	bt.now = func() time.Time { return now }
	bt.day, bt.month = periodStart(now)

	bt.Record(context.Background(), 100)
	if err := bt.Check(context.Background()); err == nil {
		t.Fatal("expected rejection before midnight")
	}

	now = now.Add(2 * time.Minute)
	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("expected daily counter reset after midnight, got %v", err)
	}

	u := bt.Usage()
	if u.DailyUsed != 0 || u.MonthlyUsed != 100 {
		t.Errorf("unexpected usage after day rollover: %+v", u)
	}
}

func TestBudgetTracker_MonthlyRollover(t *testing.T) {
	bt := newTracker(0, 100, BudgetActionReject)
	now := time.Date(2026, 10, 31, 12, 0, 0, 0, time.UTC)
	bt.now = func() time.Time { return now }
	bt.day, bt.month = periodStart(now)

	bt.Record(context.Background(), 100)
	now = time.Date(2026, 11, 1, 0, 1, 0, 0, time.UTC)

	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("expected monthly counter reset, got %v", err)
	}
}

type mockBudgetStore struct {
	mu     sync.Mutex
	data   map[string]int64
	getErr error
	setErr error
}

func newMockBudgetStore() *mockBudgetStore {
	return &mockBudgetStore{data: make(map[string]int64)}
}

func (m *mockBudgetStore) IncrBy(_ context.Context, key string, val int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] += val
	return nil
}

func (m *mockBudgetStore) Get(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return 0, m.getErr
	}
	return m.data[key], nil
}

func fixedTracker(daily, monthly int64, action BudgetAction) *BudgetTracker {
	bt := newTracker(daily, monthly, action)
	now := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	bt.now = func() time.Time { return now }
	bt.day, bt.month = periodStart(now)
	return bt
}

func TestBudgetTracker_WithStore_LoadsValues(t *testing.T) {
	store := newMockBudgetStore()
	store.data["perfun:budget:test:daily:2026-10-15"] = 300
	store.data["perfun:budget:test:monthly:2026-10"] = 5000

	bt := fixedTracker(1000, 10000, BudgetActionReject).WithStore(context.Background(), store)

	u := bt.Usage()
	if u.DailyUsed != 300 {
		t.Errorf("expected daily_used=300, got %d", u.DailyUsed)
	}
	if u.MonthlyUsed != 5000 {
		t.Errorf("expected monthly_used=5000, got %d", u.MonthlyUsed)
	}
}

func TestBudgetTracker_Record_PersistsToStore(t *testing.T) {
	store := newMockBudgetStore()
	bt := fixedTracker(10000, 100000, BudgetActionWarn).WithStore(context.Background(), store)

	bt.Record(context.Background(), 100)
	bt.Record(context.Background(), 200)

	if got := store.data["perfun:budget:test:daily:2026-10-15"]; got != 300 {
		t.Errorf("expected store daily=300, got %d", got)
	}
	if got := store.data["perfun:budget:test:monthly:2026-10"]; got != 300 {
		t.Errorf("expected store monthly=300, got %d", got)
	}
}

func TestBudgetTracker_Record_SurvivesCancelledContext(t *testing.T) {
	store := newMockBudgetStore()
	bt := fixedTracker(0, 0, BudgetActionWarn).WithStore(context.Background(), store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bt.Record(ctx, 7)

	if got := store.data["perfun:budget:test:daily:2026-10-15"]; got != 7 {
		t.Errorf("expected counter persisted after cancel, got %d", got)
	}
}

func TestBudgetTracker_WithStore_LoadError(t *testing.T) {
	store := newMockBudgetStore()
	store.getErr = errors.New("connection refused")

	bt := fixedTracker(1000, 10000, BudgetActionReject).WithStore(context.Background(), store)

	if u := bt.Usage(); u.DailyUsed != 0 || u.MonthlyUsed != 0 {
		t.Errorf("expected zero usage on load error, got %+v", u)
	}
}

func TestBudgetTracker_Record_StoreWriteError(t *testing.T) {
	store := newMockBudgetStore()
	bt := fixedTracker(1000, 10000, BudgetActionWarn).WithStore(context.Background(), store)
	store.setErr = errors.New("write timeout")

	bt.Record(context.Background(), 50)

	if u := bt.Usage(); u.DailyUsed != 50 {
		t.Errorf("expected daily_used=50 even with store error, got %d", u.DailyUsed)
	}
}

func TestBudgetTracker_Keys(t *testing.T) {
	bt := fixedTracker(0, 0, BudgetActionWarn)
	ts := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)

	if got := bt.dailyKey(ts); got != "perfun:budget:test:daily:2026-03-07" {
		t.Errorf("unexpected daily key %q", got)
	}
	if got := bt.monthlyKey(ts); got != "perfun:budget:test:monthly:2026-03" {
		t.Errorf("unexpected monthly key %q", got)
	}
}
