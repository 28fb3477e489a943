package pager

import (
	"context"

	"github.com/kailas-cloud/tribe/internal/db/astra"
	"github.com/kailas-cloud/tribe/internal/domain/document"
)

// Finder runs one find command against the vector store.
type Finder interface {
	Find(ctx context.Context, req astra.FindRequest) ([]document.Document, error)
}
