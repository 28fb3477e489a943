package usage

// BudgetReader exposes the counters of an embedding budget.
type BudgetReader interface {
	DailyUsed() int64
	MonthlyUsed() int64
	RemainingDaily() int64
	RemainingMonthly() int64
	DailyLimit() int64
	MonthlyLimit() int64
}
