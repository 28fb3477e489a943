// Package retry wraps remote calls in a bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goretry "github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tribe/internal/domain"
)

// Policy bounds a retried operation. MaxAttempts counts the first try;
// values below 2 disable retrying.
type Policy struct {
	MaxAttempts int
	Min         time.Duration
	Max         time.Duration
}

// DefaultPolicy is three attempts waiting 1s then up to 5s.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Min: time.Second, Max: 5 * time.Second}
}

// Enabled reports whether the policy retries at all.
func (p Policy) Enabled() bool { return p.MaxAttempts > 1 }

// Validate checks the policy bounds.
func (p Policy) Validate() error {
	if p.MaxAttempts < 0 {
		return fmt.Errorf("max attempts must be >= 0, got %d", p.MaxAttempts)
	}
	if p.Enabled() && p.Min <= 0 {
		return fmt.Errorf("min wait must be positive")
	}
	if p.Max > 0 && p.Max < p.Min {
		return fmt.Errorf("max wait %s is below min wait %s", p.Max, p.Min)
	}
	return nil
}

func (p Policy) backoff() goretry.Backoff {
	b := goretry.NewExponential(p.Min)
	if p.Max > 0 {
		b = goretry.WithCappedDuration(p.Max, b)
	}
	return goretry.WithMaxRetries(uint64(p.MaxAttempts-1), b)
}

// Transient reports errors worth another attempt: network failures and
// HTTP 429 or 5xx answers. Budget, provider, decode and Data API command
// errors fail on the first attempt.
func Transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var te *domain.TransportError
	if errors.As(err, &te) && te.StatusCode >= 400 && te.StatusCode < 500 &&
		te.StatusCode != http.StatusTooManyRequests {
		return false
	}
	return errors.Is(err, domain.ErrTransport)
}

// Do runs fn under the policy. Each failed attempt is logged with op.
// The last error is returned unwrapped when attempts run out.
func Do(ctx context.Context, p Policy, logger *zap.Logger, op string, fn func(ctx context.Context) error) error {
	if !p.Enabled() {
		return fn(ctx)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	attempt := 0
	err := goretry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !Transient(err) {
			return err
		}
		logger.Warn("Attempt failed",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.MaxAttempts),
			zap.Error(err),
		)
		return goretry.RetryableError(err)
	})
	if err != nil {
		return fmt.Errorf("%s after %d attempt(s): %w", op, attempt, err)
	}
	return nil
}
