package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tribe/internal/domain"
	"github.com/kailas-cloud/tribe/internal/metrics"
)

// MaxAPIBatchSize is the largest number of texts sent in one provider call.
const MaxAPIBatchSize = 256

// Budget is the part of BudgetTracker the guard needs.
type Budget interface {
	Check(ctx context.Context) error
	Record(ctx context.Context, tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// Guard wraps an embedder with budget checks and batch chunking.
// Request metrics are recorded by the transport; Guard only owns budget gauges.
type Guard struct {
	inner    domain.Embedder
	provider string
	budget   Budget
	logger   *zap.Logger
}

var (
	_ domain.Embedder      = (*Guard)(nil)
	_ domain.BatchEmbedder = (*Guard)(nil)
)

// NewGuard wraps inner. A nil budget only chunks.
func NewGuard(inner domain.Embedder, provider string, budget Budget, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{inner: inner, provider: provider, budget: budget, logger: logger}
}

// Embed checks the budget, embeds one text and records its tokens.
func (g *Guard) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := g.check(ctx); err != nil {
		return domain.EmbeddingResult{}, err
	}
	res, err := g.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	g.record(ctx, res.TotalTokens)
	return res, nil
}

// BatchEmbed embeds texts in chunks of MaxAPIBatchSize, re-checking the budget before each chunk.
func (g *Guard) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	var out domain.BatchEmbeddingResult
	for offset := 0; offset < len(texts); offset += MaxAPIBatchSize {
		if err := g.check(ctx); err != nil {
			return domain.BatchEmbeddingResult{}, err
		}
		chunk := texts[offset:min(offset+MaxAPIBatchSize, len(texts))]
		res, err := domain.EmbedAll(ctx, g.inner, chunk)
		if err != nil {
			g.logger.Error("Batch embedding failed",
				zap.String("provider", g.provider),
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed (chunk %d): %w", offset, err)
		}
		g.record(ctx, res.TotalTokens)
		out.Embeddings = append(out.Embeddings, res.Embeddings...)
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}
	return out, nil
}

// HealthCheck delegates to the inner embedder when it supports it. The budget is not consulted.
func (g *Guard) HealthCheck(ctx context.Context) error {
	if hc, ok := g.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func (g *Guard) check(ctx context.Context) error {
	if g.budget == nil {
		return nil
	}
	if err := g.budget.Check(ctx); err != nil {
		g.logger.Warn("Embedding budget exhausted", zap.String("provider", g.provider), zap.Error(err))
		return fmt.Errorf("budget check: %w", err)
	}
	return nil
}

func (g *Guard) record(ctx context.Context, tokens int) {
	if g.budget == nil || tokens <= 0 {
		return
	}
	g.budget.Record(ctx, int64(tokens))
	gauge := metrics.EmbeddingBudgetTokensRemaining
	gauge.WithLabelValues(g.provider, "daily").Set(float64(g.budget.RemainingDaily()))
	gauge.WithLabelValues(g.provider, "monthly").Set(float64(g.budget.RemainingMonthly()))
}
