package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockProber struct {
	err error
}

func (m *mockProber) HealthCheck(_ context.Context) error { return m.err }

type slowPinger struct{}

func (slowPinger) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, WithCache(&mockPinger{}), WithEmbedding(&mockProber{}))
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{VectorStore, Cache, Embedding} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
}

func TestCheck_VectorStoreOnly(t *testing.T) {
	r := New(&mockPinger{}).Check(context.Background())

	if len(r.Checks) != 1 || r.Checks[VectorStore] != CheckOK {
		t.Errorf("unexpected checks: %v", r.Checks)
	}
}

func TestCheck_VectorStoreError(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("401 unauthorized")}, WithEmbedding(&mockProber{}))
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[VectorStore] != CheckError {
		t.Errorf("expected vector_store %q, got %q", CheckError, r.Checks[VectorStore])
	}
	if r.Checks[Embedding] != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks[Embedding])
	}
}

func TestCheck_CacheError(t *testing.T) {
	svc := New(&mockPinger{}, WithCache(&mockPinger{err: errors.New("conn refused")}))
	r := svc.Check(context.Background())

	if r.Status != Degraded || r.Checks[Cache] != CheckError {
		t.Errorf("unexpected report: %+v", r)
	}
}

func TestCheck_EmbeddingError(t *testing.T) {
	svc := New(&mockPinger{}, WithEmbedding(&mockProber{err: errors.New("timeout")}))
	r := svc.Check(context.Background())

	if r.Status != Degraded || r.Checks[Embedding] != CheckError {
		t.Errorf("unexpected report: %+v", r)
	}
}

func TestCheck_TimeoutMarksError(t *testing.T) {
	svc := New(slowPinger{}, WithTimeout(10*time.Millisecond))
	r := svc.Check(context.Background())

	if r.Checks[VectorStore] != CheckError {
		t.Errorf("expected timeout to fail the check, got %q", r.Checks[VectorStore])
	}
}

type slowProber struct{}

func (slowProber) HealthCheck(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestCheck_RunsConcurrently(t *testing.T) {
	const timeout = 200 * time.Millisecond
	svc := New(slowPinger{}, WithCache(slowPinger{}), WithEmbedding(slowProber{}), WithTimeout(timeout))

	start := time.Now()
	r := svc.Check(context.Background())
	elapsed := time.Since(start)

	if len(r.Checks) != 3 || r.Status != Degraded {
		t.Fatalf("report = %+v", r)
	}
	if elapsed >= 2*timeout {
		t.Errorf("checks took %v, expected them to overlap", elapsed)
	}
}
