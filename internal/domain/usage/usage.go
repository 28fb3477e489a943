// Package usage describes embedding token spend over a budget period.
package usage

import (
	"fmt"
	"time"
)

// Period is the budget window a report covers.
type Period string

// Report periods.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod maps a query value to a Period. Blank means PeriodDay.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("unknown usage period %q", s)
	}
}

// Bounds returns the UTC window of p containing t.
func (p Period) Bounds(t time.Time) (start, end time.Time) {
	t = t.UTC()
	if p == PeriodMonth {
		start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}
	start = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// Report is the token spend for one period. Limit 0 means unlimited,
// in which case Remaining is -1.
type Report struct {
	Period    Period
	Start     time.Time
	End       time.Time
	Used      int64
	Limit     int64
	Remaining int64
}

// Exhausted reports whether a limited budget has nothing left.
func (r Report) Exhausted() bool { return r.Limit > 0 && r.Remaining <= 0 }
