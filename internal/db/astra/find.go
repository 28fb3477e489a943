package astra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/tribe/internal/domain/document"
	"github.com/kailas-cloud/tribe/internal/domain/search/filter"
)

// Direction is a sort direction.
type Direction int

// Sort directions.
const (
	Asc  Direction = 1
	Desc Direction = -1
)

// SortKey is one (field, direction) pair.
type SortKey struct {
	Field     string
	Direction Direction
}

// Sort is either an ordered list of keys or a vector similarity sort.
// Key order is significant and preserved on the wire.
type Sort struct {
	keys   []SortKey
	vector []float32
}

// SortBy returns a field sort in the given key order.
func SortBy(keys ...SortKey) Sort { return Sort{keys: keys} }

// SortByVector returns a similarity sort against vec.
func SortByVector(vec []float32) Sort { return Sort{vector: vec} }

// Keys returns the field sort keys.
func (s Sort) Keys() []SortKey { return s.keys }

// Vector returns the similarity sort vector.
func (s Sort) Vector() []float32 { return s.vector }

// IsZero reports whether no sort is set.
func (s Sort) IsZero() bool { return len(s.keys) == 0 && s.vector == nil }

// MarshalJSON writes the keys as a JSON object in insertion order.
func (s Sort) MarshalJSON() ([]byte, error) {
	if s.vector != nil {
		return json.Marshal(map[string]any{"$vector": s.vector})
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k.Field)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		fmt.Fprintf(&buf, ":%d", int(k.Direction))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FindRequest is a find command.
type FindRequest struct {
	Filter            filter.Expr
	Sort              Sort
	Limit             int
	IncludeSimilarity bool
	IncludeVector     bool
	// AllFields projects every document field.
	AllFields bool
	// Timeout bounds this call only; zero uses the store default.
	Timeout time.Duration
}

type findOptions struct {
	Limit             int  `json:"limit,omitempty"`
	IncludeSimilarity bool `json:"includeSimilarity,omitempty"`
}

type findPayload struct {
	Filter     filter.Expr    `json:"filter"`
	Sort       *Sort          `json:"sort,omitempty"`
	Projection map[string]any `json:"projection,omitempty"`
	Options    findOptions    `json:"options"`
}

type findData struct {
	Documents []rawDocument `json:"documents"`
}

// Find runs a find command and decodes the matching documents in server order.
func (s *Store) Find(ctx context.Context, req FindRequest) ([]document.Document, error) {
	if err := req.Filter.Validate(); err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	p := findPayload{
		Filter:  req.Filter,
		Options: findOptions{Limit: req.Limit, IncludeSimilarity: req.IncludeSimilarity},
	}
	if !req.Sort.IsZero() {
		sort := req.Sort
		p.Sort = &sort
	}
	switch {
	case req.AllFields:
		p.Projection = map[string]any{"*": true}
	case req.IncludeVector:
		p.Projection = map[string]any{"$vector": true}
	}

	env, err := s.command(ctx, s.cfg.collectionURL(), "find", p)
	if err != nil {
		return nil, err
	}

	var data findData
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("find: decode documents: %w", err)
		}
	}

	docs := make([]document.Document, 0, len(data.Documents))
	for i, raw := range data.Documents {
		d, err := raw.decode()
		if err != nil {
			return nil, fmt.Errorf("find: document %d: %w", i, err)
		}
		docs = append(docs, d)
	}
	return docs, nil
}
