// Package embedding guards the embedding provider with a token budget.
package embedding

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tribe/internal/domain"
	"github.com/kailas-cloud/tribe/internal/domain/usage"
)

// BudgetAction is what happens once a budget is spent.
type BudgetAction string

const (
	// BudgetActionWarn logs and lets the request through.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject fails the request with domain.ErrEmbeddingQuotaExceeded.
	BudgetActionReject BudgetAction = "reject"
)

// BudgetStore persists per-period counters across restarts and replicas.
type BudgetStore interface {
	Add(ctx context.Context, provider string, p usage.Period, at time.Time, tokens int64) error
	Load(ctx context.Context, provider string, p usage.Period, at time.Time) (int64, error)
}

// Limits caps token spend per UTC day and month. Zero means unlimited.
type Limits struct {
	Daily   int64
	Monthly int64
	Action  BudgetAction
}

// BudgetTracker counts tokens in memory and writes them behind to a store.
// Check never touches the store.
type BudgetTracker struct {
	mu          sync.Mutex
	limits      Limits
	provider    string
	dailyUsed   int64
	monthlyUsed int64
	day         time.Time
	month       time.Time
	store       BudgetStore
	now         func() time.Time
	logger      *zap.Logger
}

// NewBudgetTracker creates a tracker for provider.
func NewBudgetTracker(provider string, limits Limits, logger *zap.Logger) *BudgetTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limits.Action == "" {
		limits.Action = BudgetActionReject
	}
	b := &BudgetTracker{
		limits:   limits,
		provider: provider,
		now:      time.Now,
		logger:   logger,
	}
	b.day, b.month = periods(b.now())
	return b
}

// WithStore attaches a store and seeds the counters from it.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	b.rollover()
	if v, err := store.Load(ctx, b.provider, usage.PeriodDay, b.day); err == nil {
		b.dailyUsed = v
	} else {
		b.logger.Warn("Failed to load daily budget", zap.Error(err))
	}
	if v, err := store.Load(ctx, b.provider, usage.PeriodMonth, b.month); err == nil {
		b.monthlyUsed = v
	} else {
		b.logger.Warn("Failed to load monthly budget", zap.Error(err))
	}
	b.logger.Info("Budget loaded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.dailyUsed),
		zap.Int64("monthly_used", b.monthlyUsed),
	)
	return b
}

// Check reports whether another request may be sent.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()

	daily := b.limits.Daily > 0 && b.dailyUsed >= b.limits.Daily
	monthly := b.limits.Monthly > 0 && b.monthlyUsed >= b.limits.Monthly
	if !daily && !monthly {
		return nil
	}
	if b.limits.Action == BudgetActionReject {
		return domain.ErrEmbeddingQuotaExceeded
	}
	b.logger.Warn("Token budget exceeded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.dailyUsed),
		zap.Int64("daily_limit", b.limits.Daily),
		zap.Int64("monthly_used", b.monthlyUsed),
		zap.Int64("monthly_limit", b.limits.Monthly),
	)
	return nil
}

// Record adds spent tokens. Store write failures are logged, not returned.
func (b *BudgetTracker) Record(ctx context.Context, tokens int64) {
	if tokens <= 0 {
		return
	}
	b.mu.Lock()
	b.rollover()
	b.dailyUsed += tokens
	b.monthlyUsed += tokens
	store, day, month := b.store, b.day, b.month
	b.mu.Unlock()

	if store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := store.Add(ctx, b.provider, usage.PeriodDay, day, tokens); err != nil {
		b.logger.Warn("Failed to persist daily budget", zap.Error(err))
	}
	if err := store.Add(ctx, b.provider, usage.PeriodMonth, month, tokens); err != nil {
		b.logger.Warn("Failed to persist monthly budget", zap.Error(err))
	}
}

// RemainingDaily returns tokens left today, -1 when unlimited.
func (b *BudgetTracker) RemainingDaily() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return remaining(b.limits.Daily, b.dailyUsed)
}

// RemainingMonthly returns tokens left this month, -1 when unlimited.
func (b *BudgetTracker) RemainingMonthly() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return remaining(b.limits.Monthly, b.monthlyUsed)
}

func remaining(limit, used int64) int64 {
	if limit == 0 {
		return -1
	}
	return max(limit-used, 0)
}

// rollover zeroes counters when the UTC day or month changes. Caller holds mu.
func (b *BudgetTracker) rollover() {
	day, month := periods(b.now())
	if day.After(b.day) {
		b.dailyUsed = 0
		b.day = day
	}
	if month.After(b.month) {
		b.monthlyUsed = 0
		b.month = month
	}
}

func periods(t time.Time) (day, month time.Time) {
	day, _ = usage.PeriodDay.Bounds(t)
	month, _ = usage.PeriodMonth.Bounds(t)
	return day, month
}

// DailyUsed returns tokens spent today.
func (b *BudgetTracker) DailyUsed() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return b.dailyUsed
}

// MonthlyUsed returns tokens spent this month.
func (b *BudgetTracker) MonthlyUsed() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return b.monthlyUsed
}

// DailyLimit returns the daily cap.
func (b *BudgetTracker) DailyLimit() int64 { return b.limits.Daily }

// MonthlyLimit returns the monthly cap.
func (b *BudgetTracker) MonthlyLimit() int64 { return b.limits.Monthly }
