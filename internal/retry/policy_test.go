package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/tribe/internal/domain"
)

func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, Min: time.Millisecond, Max: 2 * time.Millisecond}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	calls := 0
	err := Do(context.Background(), fastPolicy(3), zap.New(core), "find page", func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("flaky: %w", domain.ErrTransport)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if logs.Len() != 2 {
		t.Errorf("logged %d failed attempts, want 2", logs.Len())
	}
	if logs.All()[0].ContextMap()["op"] != "find page" {
		t.Errorf("log missing op field: %v", logs.All()[0].ContextMap())
	}
}

func TestDo_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), nil, "find page", func(context.Context) error {
		calls++
		return domain.ErrTransport
	})
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if !errors.Is(err, domain.ErrTransport) {
		t.Errorf("expected last error to be returned, got %v", err)
	}
}

func TestDo_NonTransientNotRetried(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"configuration", fmt.Errorf("token missing: %w", domain.ErrConfiguration)},
		{"invalid request", domain.ErrInvalidRequest},
		{"quota exceeded", fmt.Errorf("vectorize query: %w", domain.ErrEmbeddingQuotaExceeded)},
		{"provider error", domain.ErrEmbeddingProviderError},
		{"decode", &domain.DecodeError{Raw: "<html>", Err: errors.New("bad json")}},
		{"client status", &domain.TransportError{StatusCode: 401, Err: errors.New("unauthorized")}},
		{"plain error", errors.New("data api find: INVALID_FILTER_EXPRESSION")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Do(context.Background(), fastPolicy(5), nil, "op", func(context.Context) error {
				calls++
				return tt.err
			})
			if calls != 1 {
				t.Errorf("calls = %d, want 1", calls)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("got %v", err)
			}
		})
	}
}

func TestTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"sentinel", domain.ErrTransport, true},
		{"network", &domain.TransportError{Err: errors.New("connection reset")}, true},
		{"server error", &domain.TransportError{StatusCode: 503, Err: errors.New("unavailable")}, true},
		{"rate limited", &domain.TransportError{StatusCode: 429, Err: errors.New("slow down")}, true},
		{"not found", &domain.TransportError{StatusCode: 404, Err: errors.New("no collection")}, false},
		{"deadline", &domain.TransportError{Err: context.DeadlineExceeded}, false},
		{"quota", domain.ErrEmbeddingQuotaExceeded, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Transient(tt.err); got != tt.want {
				t.Errorf("Transient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDo_Disabled(t *testing.T) {
	calls := 0
	want := errors.New("boom")
	err := Do(context.Background(), Policy{}, nil, "op", func(context.Context) error {
		calls++
		return want
	})
	if calls != 1 || !errors.Is(err, want) {
		t.Errorf("calls=%d err=%v", calls, err)
	}
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Do(ctx, Policy{MaxAttempts: 3, Min: time.Hour}, nil, "op", func(ctx context.Context) error {
		calls++
		return ctx.Err()
	})
	if calls > 1 {
		t.Errorf("calls = %d, canceled context must not be retried", calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v", err)
	}
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		p       Policy
		wantErr bool
	}{
		{"default", DefaultPolicy(), false},
		{"disabled", Policy{}, false},
		{"negative attempts", Policy{MaxAttempts: -1}, true},
		{"no min wait", Policy{MaxAttempts: 3}, true},
		{"max below min", Policy{MaxAttempts: 3, Min: 2 * time.Second, Max: time.Second}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.p.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
