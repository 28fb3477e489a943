package search

import (
	"context"
	"sync"

	"github.com/kailas-cloud/tribe/internal/db/astra"
	"github.com/kailas-cloud/tribe/internal/domain"
	"github.com/kailas-cloud/tribe/internal/domain/document"
)

type mockStore struct {
	mu       sync.Mutex
	requests []astra.FindRequest
	docs     []document.Document
	findErrs []error // consumed one per call
	inserted []document.Document
	deleted  []string
}

func (m *mockStore) Find(_ context.Context, req astra.FindRequest) ([]document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if len(m.findErrs) > 0 {
		err := m.findErrs[0]
		m.findErrs = m.findErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	out := make([]document.Document, len(m.docs))
	copy(out, m.docs)
	return out, nil
}

func (m *mockStore) InsertMany(_ context.Context, docs []document.Document) (int, error) {
	m.inserted = append(m.inserted, docs...)
	return len(docs), nil
}

func (m *mockStore) DeleteByIDs(_ context.Context, ids []string) (int, error) {
	m.deleted = append(m.deleted, ids...)
	return len(ids), nil
}

type mockEmbedder struct {
	vec    []float32
	tokens int
	err    error
	calls  int
	texts  []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	m.texts = append(m.texts, text)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: m.tokens}, nil
}
