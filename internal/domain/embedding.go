package domain

import (
	"context"
	"fmt"
)

// Embedder turns a text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes several texts in one provider call.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies that a dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult is a single vector plus the tokens it cost.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult holds vectors in input order and the summed token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// EmbedAll uses the batch path when e supports it and falls back to one call per text.
func EmbedAll(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	if be, ok := e.(BatchEmbedder); ok {
		res, err := be.BatchEmbed(ctx, texts)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}
		if len(res.Embeddings) != len(texts) {
			return BatchEmbeddingResult{}, fmt.Errorf("batch embed: got %d vectors for %d texts", len(res.Embeddings), len(texts))
		}
		return res, nil
	}
	return BatchFallback(ctx, e, texts)
}

// BatchFallback embeds texts one at a time.
func BatchFallback(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	out := BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("fallback embed [%d]: %w", i, err)
		}
		out.Embeddings[i] = res.Embedding
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}
	return out, nil
}

type tokenTallyKey struct{}

// TokenTally counts embedding tokens spent while serving one request.
// The handler attaches it, the search service adds to it, the handler reports it.
type TokenTally struct {
	Tokens int
	Calls  int
}

// WithTokenTally returns a context carrying a fresh tally.
func WithTokenTally(ctx context.Context) (context.Context, *TokenTally) {
	t := &TokenTally{}
	return context.WithValue(ctx, tokenTallyKey{}, t), t
}

// TokenTallyFrom returns the tally attached to ctx, or nil.
func TokenTallyFrom(ctx context.Context) *TokenTally {
	t, _ := ctx.Value(tokenTallyKey{}).(*TokenTally)
	return t
}

// Add records one embedding call. Safe on a nil tally.
func (t *TokenTally) Add(tokens int) {
	if t == nil {
		return
	}
	t.Tokens += tokens
	t.Calls++
}
