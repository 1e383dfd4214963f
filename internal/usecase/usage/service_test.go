package usage

import (
	"context"
	"testing"
	"time"

	embeddinguc "github.com/Autilos/perfun-bot-new/internal/usecase/embedding"
)

// --- Mock ---

type mockBudgetReader struct {
	usage embeddinguc.BudgetUsage
}

func (m *mockBudgetReader) Usage() embeddinguc.BudgetUsage { return m.usage }

var fixedNow = time.Date(2026, 3, 7, 15, 30, 0, 0, time.UTC)

func newService(br BudgetReader) *Service {
	s := New(br)
	s.now = func() time.Time { return fixedNow }
	return s
}

// --- Tests ---

func TestGetReport_DailyPeriod(t *testing.T) {
	br := &mockBudgetReader{usage: embeddinguc.BudgetUsage{
		DailyUsed: 3000, DailyLimit: 10000,
		MonthlyUsed: 50000, MonthlyLimit: 100000,
	}}
	r := newService(br).GetReport(context.Background(), PeriodDay)

	if r.Period != PeriodDay {
		t.Errorf("expected period %q, got %q", PeriodDay, r.Period)
	}
	wantStart := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	if !r.PeriodStart.Equal(wantStart) || !r.PeriodEnd.Equal(wantStart.Add(24*time.Hour)) {
		t.Errorf("unexpected bounds %s - %s", r.PeriodStart, r.PeriodEnd)
	}
	if r.Used != 3000 || r.Limit != 10000 || r.Remaining != 7000 || r.Exhausted {
		t.Errorf("unexpected report %+v", r)
	}
}

func TestGetReport_MonthlyPeriod(t *testing.T) {
	br := &mockBudgetReader{usage: embeddinguc.BudgetUsage{MonthlyUsed: 100000, MonthlyLimit: 100000}}
	r := newService(br).GetReport(context.Background(), PeriodMonth)

	if !r.PeriodStart.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start %s", r.PeriodStart)
	}
	if !r.PeriodEnd.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected end %s", r.PeriodEnd)
	}
	if r.Remaining != 0 || !r.Exhausted {
		t.Errorf("expected exhausted budget, got %+v", r)
	}
}

func TestGetReport_OverspentClampsToZero(t *testing.T) {
	br := &mockBudgetReader{usage: embeddinguc.BudgetUsage{DailyUsed: 12000, DailyLimit: 10000}}
	r := newService(br).GetReport(context.Background(), PeriodDay)

	if r.Remaining != 0 || !r.Exhausted {
		t.Errorf("unexpected report %+v", r)
	}
}

func TestGetReport_Unlimited(t *testing.T) {
	br := &mockBudgetReader{usage: embeddinguc.BudgetUsage{DailyUsed: 500}}
	r := newService(br).GetReport(context.Background(), PeriodDay)

	if r.Used != 500 || r.Limit != 0 || r.Remaining != -1 || r.Exhausted {
		t.Errorf("unexpected report %+v", r)
	}
}

func TestGetReport_NilReader(t *testing.T) {
	r := newService(nil).GetReport(context.Background(), PeriodMonth)

	if r.Used != 0 || r.Remaining != -1 || r.Exhausted {
		t.Errorf("unexpected report %+v", r)
	}
}

func TestParsePeriod(t *testing.T) {
	for _, in := range []string{"day", "month"} {
		if _, err := ParsePeriod(in); err != nil {
			t.Errorf("ParsePeriod(%q): %v", in, err)
		}
	}
	if _, err := ParsePeriod("total"); err == nil {
		t.Error("expected error for unsupported period")
	}
}
