package pager

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kailas-cloud/tribe/internal/db/astra"
	"github.com/kailas-cloud/tribe/internal/domain/document"
	"github.com/kailas-cloud/tribe/internal/domain/search/filter"
)

// memStore is an in-memory Finder that honours filters, the cursor sort and limits.
type memStore struct {
	mu      sync.Mutex
	docs    []document.Document
	calls   []astra.FindRequest
	failFor int // number of leading calls that fail
	failErr error
}

func (m *memStore) Find(_ context.Context, req astra.FindRequest) ([]document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if len(m.calls) <= m.failFor {
		return nil, m.failErr
	}

	var out []document.Document
	for _, d := range m.docs {
		if match(d, req.Filter) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[j].After(out[i]) })
	if req.Limit > 0 && len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out, nil
}

func match(d document.Document, e filter.Expr) bool {
	switch e.Kind() {
	case filter.KindEmpty:
		return true
	case filter.KindAnd:
		for _, c := range e.Children() {
			if !match(d, c) {
				return false
			}
		}
		return true
	case filter.KindOr:
		for _, c := range e.Children() {
			if match(d, c) {
				return true
			}
		}
		return false
	}

	got, ok := field(d, e.Field())
	if !ok {
		return false
	}
	cmp := compare(got, e.Value())
	switch e.Op() {
	case filter.OpEq:
		return cmp == 0
	case filter.OpNe:
		return cmp != 0
	case filter.OpLt:
		return cmp < 0
	case filter.OpLte:
		return cmp <= 0
	case filter.OpGt:
		return cmp > 0
	case filter.OpGte:
		return cmp >= 0
	}
	panic("unsupported op " + string(e.Op()))
}

func field(d document.Document, path string) (any, bool) {
	switch path {
	case FieldID:
		return d.ID, true
	case FieldCreatedAt:
		return d.CreatedAt, true
	}
	if key, ok := strings.CutPrefix(path, astra.MetadataPrefix); ok {
		v, ok := d.Metadata[key]
		return v, ok
	}
	return nil, false
}

func compare(a, b any) int {
	switch x := a.(type) {
	case time.Time:
		return x.Compare(b.(time.Time))
	case string:
		return strings.Compare(x, fmt.Sprint(b))
	case int:
		y := b.(int)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	panic(fmt.Sprintf("unsupported value %T", a))
}

func (m *memStore) filterJSON(call int) string {
	b, _ := json.Marshal(m.calls[call].Filter)
	return string(b)
}

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// seed creates n documents. Every tieEvery documents share a timestamp so
// page boundaries fall inside runs of equal created_at.
func seed(n, tieEvery int) []document.Document {
	docs := make([]document.Document, n)
	for i := range docs {
		docs[i] = document.Document{
			ID:        fmt.Sprintf("doc-%03d", i),
			CreatedAt: epoch.Add(time.Duration(i/tieEvery) * time.Minute),
			Content:   "snippet",
			Metadata:  map[string]any{"tribe": fmt.Sprint(i % 2), "likes": i},
		}
	}
	return docs
}
