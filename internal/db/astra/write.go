package astra

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/tribe/internal/domain/document"
	"github.com/kailas-cloud/tribe/internal/domain/search/filter"
)

type insertStatus struct {
	InsertedIDs []json.RawMessage `json:"insertedIds"`
}

type deleteStatus struct {
	DeletedCount int  `json:"deletedCount"`
	MoreData     bool `json:"moreData"`
}

// InsertMany writes docs in BatchSize chunks, running up to
// BulkInsertBatchConcurrency chunks at once. It returns the number inserted.
func (s *Store) InsertMany(ctx context.Context, docs []document.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	var inserted atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.BulkInsertBatchConcurrency)

	for start := 0; start < len(docs); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(docs))
		chunk := docs[start:end]
		start := start
		g.Go(func() error {
			n, err := s.insertChunk(gctx, chunk)
			inserted.Add(int64(n))
			if err != nil {
				return fmt.Errorf("insert documents [%d:%d]: %w", start, end, err)
			}
			return nil
		})
	}

	err := g.Wait()
	s.logger.Debug("Inserted documents", zap.Int64("inserted", inserted.Load()), zap.Int("requested", len(docs)))
	return int(inserted.Load()), err
}

func (s *Store) insertChunk(ctx context.Context, chunk []document.Document) (int, error) {
	encoded := make([]map[string]any, len(chunk))
	for i, d := range chunk {
		encoded[i] = encodeDocument(d)
	}
	payload := map[string]any{
		"documents": encoded,
		"options":   map[string]any{"ordered": false},
	}

	env, err := s.command(ctx, s.cfg.collectionURL(), "insertMany", payload)
	if err != nil {
		return 0, err
	}
	var st insertStatus
	if len(env.Status) > 0 {
		if err := json.Unmarshal(env.Status, &st); err != nil {
			return 0, fmt.Errorf("decode insert status: %w", err)
		}
	}
	return len(st.InsertedIDs), nil
}

// DeleteMany removes every document matching f, repeating while the server
// reports more matches. An empty filter is rejected.
func (s *Store) DeleteMany(ctx context.Context, f filter.Expr) (int, error) {
	if f.IsEmpty() {
		return 0, fmt.Errorf("delete many: refusing empty filter, use DropCollection")
	}
	if err := f.Validate(); err != nil {
		return 0, fmt.Errorf("delete many: %w", err)
	}

	total := 0
	for {
		env, err := s.command(ctx, s.cfg.collectionURL(), "deleteMany", map[string]any{"filter": f})
		if err != nil {
			return total, fmt.Errorf("delete many: %w", err)
		}
		var st deleteStatus
		if len(env.Status) > 0 {
			if err := json.Unmarshal(env.Status, &st); err != nil {
				return total, fmt.Errorf("decode delete status: %w", err)
			}
		}
		total += st.DeletedCount
		if !st.MoreData {
			return total, nil
		}
	}
}

// DeleteByIDs removes documents by id in BatchSize chunks with up to
// BulkDeleteConcurrency requests in flight.
func (s *Store) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	var deleted atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.BulkDeleteConcurrency)

	for start := 0; start < len(ids); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(ids))
		values := make([]any, end-start)
		for i, id := range ids[start:end] {
			values[i] = id
		}
		g.Go(func() error {
			n, err := s.DeleteMany(gctx, filter.In("_id", values...))
			deleted.Add(int64(n))
			return err
		})
	}

	err := g.Wait()
	return int(deleted.Load()), err
}
