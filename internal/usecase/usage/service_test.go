package usage

import (
	"context"
	"testing"
	"time"

	domusage "github.com/kailas-cloud/tribe/internal/domain/usage"
)

type mockBudgetReader struct {
	dailyUsed, monthlyUsed   int64
	dailyLimit, monthlyLimit int64
}

func (m *mockBudgetReader) DailyUsed() int64        { return m.dailyUsed }
func (m *mockBudgetReader) MonthlyUsed() int64      { return m.monthlyUsed }
func (m *mockBudgetReader) DailyLimit() int64       { return m.dailyLimit }
func (m *mockBudgetReader) MonthlyLimit() int64     { return m.monthlyLimit }
func (m *mockBudgetReader) RemainingDaily() int64   { return m.dailyLimit - m.dailyUsed }
func (m *mockBudgetReader) RemainingMonthly() int64 { return m.monthlyLimit - m.monthlyUsed }

func fixedNow() time.Time { return time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC) }

func TestReport_Day(t *testing.T) {
	svc := New(&mockBudgetReader{dailyUsed: 40, dailyLimit: 100, monthlyUsed: 400, monthlyLimit: 1000})
	svc.now = fixedNow

	r := svc.Report(context.Background(), domusage.PeriodDay)
	if r.Used != 40 || r.Limit != 100 || r.Remaining != 60 {
		t.Errorf("report = %+v", r)
	}
	if !r.Start.Equal(time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", r.Start)
	}
	if r.Exhausted() {
		t.Error("budget should not be exhausted")
	}
}

func TestReport_Month(t *testing.T) {
	svc := New(&mockBudgetReader{monthlyUsed: 1000, monthlyLimit: 1000})
	svc.now = fixedNow

	r := svc.Report(context.Background(), domusage.PeriodMonth)
	if r.Used != 1000 || r.Remaining != 0 || !r.Exhausted() {
		t.Errorf("report = %+v", r)
	}
	if !r.End.Equal(time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v", r.End)
	}
}

func TestReport_NoBudget(t *testing.T) {
	svc := New(nil)
	svc.now = fixedNow

	r := svc.Report(context.Background(), domusage.PeriodDay)
	if r.Used != 0 || r.Limit != 0 || r.Remaining != -1 {
		t.Errorf("report = %+v", r)
	}
}
