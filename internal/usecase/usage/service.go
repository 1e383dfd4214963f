// Package usage reports embedding token spend against the configured budget.
package usage

import (
	"context"
	"fmt"
	"time"
)

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod accepts "day" or "month".
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodDay, PeriodMonth:
		return Period(s), nil
	default:
		return "", fmt.Errorf("unknown period %q (want day or month)", s)
	}
}

// Report is token usage for one period. Limit 0 and Remaining -1 mean unlimited.
type Report struct {
	Period      Period    `json:"period"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	Used        int64     `json:"tokens_used"`
	Limit       int64     `json:"tokens_limit"`
	Remaining   int64     `json:"tokens_remaining"`
	Exhausted   bool      `json:"exhausted"`
}

// Service handles usage reporting.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil (embedding disabled or no budget).
func New(br BudgetReader) *Service {
	return &Service{br: br, now: func() time.Time { return time.Now().UTC() }}
}

// GetReport builds a usage report for the given period.
func (s *Service) GetReport(_ context.Context, period Period) Report {
	now := s.now()
	r := Report{Period: period, Remaining: -1}

	switch period {
	case PeriodMonth:
		r.PeriodStart = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		r.PeriodEnd = r.PeriodStart.AddDate(0, 1, 0)
	default:
		r.Period = PeriodDay
		r.PeriodStart = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		r.PeriodEnd = r.PeriodStart.Add(24 * time.Hour)
	}

	if s.br == nil {
		return r
	}

	u := s.br.Usage()
	if r.Period == PeriodMonth {
		r.Used, r.Limit = u.MonthlyUsed, u.MonthlyLimit
	} else {
		r.Used, r.Limit = u.DailyUsed, u.DailyLimit
	}
	if r.Limit > 0 {
		r.Remaining = max(r.Limit-r.Used, 0)
		r.Exhausted = r.Remaining == 0
	}
	return r
}
