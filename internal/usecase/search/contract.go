package search

import (
	"context"

	"github.com/kailas-cloud/tribe/internal/db/astra"
	"github.com/kailas-cloud/tribe/internal/domain"
	"github.com/kailas-cloud/tribe/internal/domain/document"
)

// Store is the vector store contract of the search service.
type Store interface {
	Find(ctx context.Context, req astra.FindRequest) ([]document.Document, error)
	InsertMany(ctx context.Context, docs []document.Document) (int, error)
	DeleteByIDs(ctx context.Context, ids []string) (int, error)
}

// Embedder vectorizes query and snippet text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
