// Package budget persists embedding token counters in Valkey, one key per
// provider and UTC period: tribe:budget:{provider}:{day|month}:{period start}.
package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/tribe/internal/db"
	"github.com/kailas-cloud/tribe/internal/domain/usage"
)

const keyPrefix = "tribe:budget:"

// Default key lifetimes, long enough to outlive the period they count.
const (
	DefaultDailyTTL   = 48 * time.Hour
	DefaultMonthlyTTL = 62 * 24 * time.Hour
)

type counter interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Store keeps per-period token counters. Keys expire on their own once the
// period is over, so no cleanup job is needed.
type Store struct {
	kv       counter
	dailyTTL time.Duration
	monthTTL time.Duration
}

// New creates a budget store. Zero TTLs fall back to the defaults.
func New(kv counter, dailyTTL, monthTTL time.Duration) *Store {
	return &Store{
		kv:       kv,
		dailyTTL: orDefault(dailyTTL, DefaultDailyTTL),
		monthTTL: orDefault(monthTTL, DefaultMonthlyTTL),
	}
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// Key returns the counter key of provider for the period p containing at.
func Key(provider string, p usage.Period, at time.Time) string {
	start, _ := p.Bounds(at)
	layout := time.DateOnly
	if p == usage.PeriodMonth {
		layout = "2006-01"
	}
	return keyPrefix + provider + ":" + string(p) + ":" + start.Format(layout)
}

// Add increments the counter and arms its TTL the first time it is written.
// Later writes leave the TTL alone so the key still dies with its period.
func (s *Store) Add(ctx context.Context, provider string, p usage.Period, at time.Time, tokens int64) error {
	key := Key(provider, p, at)
	if err := s.kv.IncrBy(ctx, key, tokens); err != nil {
		return fmt.Errorf("budget add %s: %w", key, err)
	}
	if err := s.kv.Expire(ctx, key, s.ttl(p), true); err != nil {
		return fmt.Errorf("budget expire %s: %w", key, err)
	}
	return nil
}

// Load returns the counter for the period p containing at, 0 when unset.
func (s *Store) Load(ctx context.Context, provider string, p usage.Period, at time.Time) (int64, error) {
	key := Key(provider, p, at)
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("budget load %s: %w", key, err)
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("budget load %s: parse %q: %w", key, data, err)
	}
	return n, nil
}

func (s *Store) ttl(p usage.Period) time.Duration {
	if p == usage.PeriodMonth {
		return s.monthTTL
	}
	return s.dailyTTL
}
