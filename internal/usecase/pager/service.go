// Package pager fetches large result sets from the vector store page by page
// using a keyset cursor on (created_at desc, _id desc).
package pager

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tribe/internal/db/astra"
	"github.com/kailas-cloud/tribe/internal/domain"
	"github.com/kailas-cloud/tribe/internal/domain/document"
	"github.com/kailas-cloud/tribe/internal/domain/search/filter"
	"github.com/kailas-cloud/tribe/internal/metrics"
	"github.com/kailas-cloud/tribe/internal/retry"
)

// Cursor fields. Both live at the top level of stored documents.
const (
	FieldCreatedAt = "created_at"
	FieldID        = "_id"
)

// Order is the total order pages are read in.
var Order = astra.SortBy(
	astra.SortKey{Field: FieldCreatedAt, Direction: astra.Desc},
	astra.SortKey{Field: FieldID, Direction: astra.Desc},
)

// Fetcher reads pages sequentially. Without a retry policy a failed page fails the fetch.
type Fetcher struct {
	finder Finder
	policy retry.Policy
	logger *zap.Logger
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithRetry retries each page fetch under p.
func WithRetry(p retry.Policy) Option {
	return func(f *Fetcher) { f.policy = p }
}

// WithLogger sets the logger used for page and retry events.
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// New creates a Fetcher over finder.
func New(finder Finder, opts ...Option) *Fetcher {
	f := &Fetcher{finder: finder, logger: zap.NewNop()}
	for _, o := range opts {
		o(f)
	}
	return f
}

// After is the strict keyset condition selecting documents that sort after c.
func After(c document.Document) filter.Expr {
	return filter.Or(
		filter.Lt(FieldCreatedAt, c.CreatedAt),
		filter.And(
			filter.Eq(FieldCreatedAt, c.CreatedAt),
			filter.Lt(FieldID, c.ID),
		),
	)
}

// Fetch returns up to total documents matching base, newest first.
// Fields in base are metadata paths and get the metadata prefix unless they
// already carry it. It stops once total is reached or a page comes back
// shorter than batch.
func (f *Fetcher) Fetch(ctx context.Context, base filter.Expr, total, batch int) ([]document.Document, error) {
	if total <= 0 || batch <= 0 {
		return nil, fmt.Errorf("total and batch must be positive, got %d and %d: %w", total, batch, domain.ErrInvalidRequest)
	}
	base = base.WithFieldPrefix(astra.MetadataPrefix)

	out := make([]document.Document, 0, min(total, batch*4))
	var cursor *document.Document

	for page := 1; len(out) < total; page++ {
		cond := base
		if cursor != nil {
			cond = filter.And(base, After(*cursor))
		}
		req := astra.FindRequest{
			Filter:            cond,
			Sort:              Order,
			Limit:             batch,
			IncludeSimilarity: true,
		}

		docs, err := f.page(ctx, page, req)
		if err != nil {
			return nil, err
		}
		f.logger.Debug("Fetched page", zap.Int("page", page), zap.Int("documents", len(docs)))
		metrics.VectorDocumentsFetched.Add(float64(len(docs)))

		if len(docs) > 0 && cursor != nil && !docs[len(docs)-1].After(*cursor) {
			return nil, fmt.Errorf("page %d: cursor did not advance past %q: %w", page, cursor.ID, domain.ErrDecode)
		}
		out = append(out, docs...)
		if len(docs) < batch {
			break
		}
		last := docs[len(docs)-1]
		cursor = &last
	}

	if len(out) > total {
		out = out[:total]
	}
	return out, nil
}

func (f *Fetcher) page(ctx context.Context, n int, req astra.FindRequest) ([]document.Document, error) {
	var docs []document.Document
	err := retry.Do(ctx, f.policy, f.logger, fmt.Sprintf("fetch page %d", n), func(ctx context.Context) error {
		var err error
		docs, err = f.finder.Find(ctx, req)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", n, err)
	}
	return docs, nil
}
