package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tribe/internal/domain"
	"github.com/kailas-cloud/tribe/internal/metrics"
)

type mockEmbedder struct {
	vec        []float32
	tokens     int
	err        error
	batchSizes []int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, PromptTokens: m.tokens, TotalTokens: m.tokens}, nil
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchSizes = append(m.batchSizes, len(texts))
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i := range texts {
		out.Embeddings[i] = m.vec
	}
	out.PromptTokens = m.tokens * len(texts)
	out.TotalTokens = m.tokens * len(texts)
	return out, nil
}

func TestGuard_EmbedRecordsTokens(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{1, 0}, tokens: 7}
	b, _ := newTestTracker(Limits{Daily: 100, Monthly: 1000}, oct14)
	g := NewGuard(inner, "guard-embed", b, zap.NewNop())

	res, err := g.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != 2 {
		t.Fatalf("embedding = %v", res.Embedding)
	}
	if got := b.RemainingDaily(); got != 93 {
		t.Errorf("RemainingDaily = %d, want 93", got)
	}
	gauge := metrics.EmbeddingBudgetTokensRemaining.WithLabelValues("guard-embed", "daily")
	if got := testutil.ToFloat64(gauge); got != 93 {
		t.Errorf("daily gauge = %v, want 93", got)
	}
}

func TestGuard_EmbedRejectedByBudget(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{1}, tokens: 1}
	b, _ := newTestTracker(Limits{Daily: 5}, oct14)
	b.Record(context.Background(), 5)
	g := NewGuard(inner, "openai", b, nil)

	_, err := g.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("expected ErrEmbeddingQuotaExceeded, got %v", err)
	}
}

func TestGuard_EmbedInnerError(t *testing.T) {
	inner := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	g := NewGuard(inner, "openai", nil, nil)

	if _, err := g.Embed(context.Background(), "x"); !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestGuard_BatchChunks(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{1}, tokens: 1}
	g := NewGuard(inner, "openai", nil, nil)

	texts := make([]string, MaxAPIBatchSize+10)
	res, err := g.BatchEmbed(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != len(texts) {
		t.Fatalf("got %d embeddings, want %d", len(res.Embeddings), len(texts))
	}
	if len(inner.batchSizes) != 2 || inner.batchSizes[0] != MaxAPIBatchSize || inner.batchSizes[1] != 10 {
		t.Errorf("batch sizes = %v", inner.batchSizes)
	}
	if res.TotalTokens != len(texts) {
		t.Errorf("TotalTokens = %d", res.TotalTokens)
	}
}

func TestGuard_BatchStopsWhenBudgetRunsOut(t *testing.T) {
	inner := &mockEmbedder{vec: []float32{1}, tokens: 1}
	b, _ := newTestTracker(Limits{Daily: MaxAPIBatchSize}, oct14)
	g := NewGuard(inner, "openai", b, nil)

	_, err := g.BatchEmbed(context.Background(), make([]string, MaxAPIBatchSize+1))
	if !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("expected ErrEmbeddingQuotaExceeded, got %v", err)
	}
	if len(inner.batchSizes) != 1 {
		t.Errorf("expected one chunk before rejection, got %v", inner.batchSizes)
	}
}

func TestGuard_BatchEmpty(t *testing.T) {
	inner := &mockEmbedder{}
	g := NewGuard(inner, "openai", nil, nil)

	res, err := g.BatchEmbed(context.Background(), nil)
	if err != nil || len(res.Embeddings) != 0 {
		t.Fatalf("BatchEmbed(nil) = %+v, %v", res, err)
	}
	if len(inner.batchSizes) != 0 {
		t.Error("no provider call expected")
	}
}

type healthyEmbedder struct {
	mockEmbedder
	err error
}

func (h *healthyEmbedder) HealthCheck(context.Context) error { return h.err }

func TestGuard_HealthCheckDelegates(t *testing.T) {
	g := NewGuard(&healthyEmbedder{err: errors.New("down")}, "openai", nil, nil)
	if err := g.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected inner health error")
	}

	g = NewGuard(&mockEmbedder{}, "openai", nil, nil)
	if err := g.HealthCheck(context.Background()); err != nil {
		t.Fatalf("embedder without health check: %v", err)
	}
}
