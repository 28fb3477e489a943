// Package search runs filtered vector searches and ingests snippets.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tribe/internal/db/astra"
	"github.com/kailas-cloud/tribe/internal/domain"
	"github.com/kailas-cloud/tribe/internal/domain/document"
	"github.com/kailas-cloud/tribe/internal/domain/facet"
	"github.com/kailas-cloud/tribe/internal/domain/search/filter"
	"github.com/kailas-cloud/tribe/internal/domain/search/mode"
	"github.com/kailas-cloud/tribe/internal/logger"
	"github.com/kailas-cloud/tribe/internal/retry"
)

// Query is one search. A nil Strategy means Similarity with the default K.
type Query struct {
	Text     string
	Filter   filter.Expr
	Strategy mode.Strategy
}

// IngestItem is a snippet to embed and store.
type IngestItem struct {
	ID        string
	Content   string
	Metadata  map[string]any
	CreatedAt time.Time
}

// Service handles vector search and ingestion.
type Service struct {
	store  Store
	embed  Embedder
	policy retry.Policy
	now    func() time.Time
}

// New creates a search service. Each search is retried under policy.
func New(store Store, embed Embedder, policy retry.Policy) *Service {
	return &Service{store: store, embed: embed, policy: policy, now: time.Now}
}

// Search embeds the query text and runs the strategy against the store.
// Filter fields are addressed under the metadata prefix. Blank text returns
// no documents without calling anything.
func (s *Service) Search(ctx context.Context, q Query) ([]document.Document, error) {
	if facet.IsBlank(q.Text) {
		return []document.Document{}, nil
	}
	if q.Strategy == nil {
		q.Strategy = mode.Similarity{K: mode.DefaultK}
	}
	if err := q.Filter.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	var docs []document.Document
	err := retry.Do(ctx, s.policy, logger.FromContext(ctx), "vector search", func(ctx context.Context) error {
		var err error
		docs, err = s.search(ctx, q)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Debug("Vector search done",
		zap.String("search_type", mode.Name(q.Strategy)),
		zap.Int("results", len(docs)),
	)
	return docs, nil
}

func (s *Service) search(ctx context.Context, q Query) ([]document.Document, error) {
	emb, err := s.embed.Embed(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	domain.TokenTallyFrom(ctx).Add(emb.TotalTokens)

	f := q.Filter.WithFieldPrefix(astra.MetadataPrefix)
	vec := astra.SortByVector(emb.Embedding)

	switch st := q.Strategy.(type) {
	case mode.Similarity:
		return s.find(ctx, astra.FindRequest{Filter: f, Sort: vec, Limit: st.K, IncludeSimilarity: true})
	case mode.ScoreThreshold:
		docs, err := s.find(ctx, astra.FindRequest{Filter: f, Sort: vec, Limit: st.K, IncludeSimilarity: true})
		if err != nil {
			return nil, err
		}
		return aboveThreshold(docs, st.Threshold), nil
	case mode.MMR:
		docs, err := s.find(ctx, astra.FindRequest{
			Filter: f, Sort: vec, Limit: st.FetchK, IncludeSimilarity: true, IncludeVector: true,
		})
		if err != nil {
			return nil, err
		}
		return selectMMR(emb.Embedding, docs, st.K, st.Lambda), nil
	case mode.Custom:
		docs, err := s.find(ctx, astra.FindRequest{
			Filter: f, Sort: vec, Limit: st.K, IncludeSimilarity: true, AllFields: true, Timeout: st.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return aboveThreshold(docs, st.Threshold), nil
	default:
		return nil, fmt.Errorf("unsupported search strategy %T: %w", st, domain.ErrInvalidRequest)
	}
}

func (s *Service) find(ctx context.Context, req astra.FindRequest) ([]document.Document, error) {
	docs, err := s.store.Find(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	return docs, nil
}

func aboveThreshold(docs []document.Document, threshold float64) []document.Document {
	kept := docs[:0]
	for _, d := range docs {
		if d.Similarity >= threshold {
			kept = append(kept, d)
		}
	}
	return kept
}

// Ingest embeds items and stores them. Missing ids are generated and missing
// timestamps set to now. It returns the number of stored documents.
func (s *Service) Ingest(ctx context.Context, items []IngestItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	texts := make([]string, len(items))
	for i, it := range items {
		if facet.IsBlank(it.Content) {
			return 0, fmt.Errorf("item %d: content is required: %w", i, domain.ErrInvalidRequest)
		}
		texts[i] = it.Content
	}

	emb, err := domain.EmbedAll(ctx, s.embed, texts)
	if err != nil {
		return 0, fmt.Errorf("vectorize snippets: %w", err)
	}
	domain.TokenTallyFrom(ctx).Add(emb.TotalTokens)

	now := s.now().UTC()
	docs := make([]document.Document, len(items))
	for i, it := range items {
		d := document.Document{
			ID:        it.ID,
			CreatedAt: it.CreatedAt,
			Content:   it.Content,
			Metadata:  it.Metadata,
			Vector:    emb.Embeddings[i],
		}
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		if d.CreatedAt.IsZero() {
			d.CreatedAt = now
		}
		docs[i] = d
	}

	n, err := s.store.InsertMany(ctx, docs)
	if err != nil {
		return n, fmt.Errorf("insert snippets: %w", err)
	}
	return n, nil
}

// Delete removes documents by id.
func (s *Service) Delete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("ids are required: %w", domain.ErrInvalidRequest)
	}
	n, err := s.store.DeleteByIDs(ctx, ids)
	if err != nil {
		return n, fmt.Errorf("delete snippets: %w", err)
	}
	return n, nil
}
