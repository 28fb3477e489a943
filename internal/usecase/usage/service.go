// Package usage reports embedding token spend against the budget.
package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/tribe/internal/domain/usage"
)

// Service builds usage reports.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. A nil br reports zero spend with no limit.
func New(br BudgetReader) *Service {
	return &Service{br: br, now: time.Now}
}

// Report returns the spend for the period containing now.
func (s *Service) Report(_ context.Context, period domusage.Period) domusage.Report {
	start, end := period.Bounds(s.now())
	r := domusage.Report{Period: period, Start: start, End: end, Remaining: -1}
	if s.br == nil {
		return r
	}
	if period == domusage.PeriodMonth {
		r.Used, r.Limit, r.Remaining = s.br.MonthlyUsed(), s.br.MonthlyLimit(), s.br.RemainingMonthly()
	} else {
		r.Used, r.Limit, r.Remaining = s.br.DailyUsed(), s.br.DailyLimit(), s.br.RemainingDaily()
	}
	return r
}
