// Package document holds the vector-store document model.
package document

import (
	"fmt"
	"time"
)

// Document is a stored snippet with its metadata and, when requested, its score and vector.
type Document struct {
	ID         string
	CreatedAt  time.Time
	Content    string
	Similarity float64
	Metadata   map[string]any
	Vector     []float32
}

// After reports whether d sorts after other in (created_at desc, id desc) order,
// i.e. whether d is strictly less than other on the compound key.
func (d Document) After(other Document) bool {
	if !d.CreatedAt.Equal(other.CreatedAt) {
		return d.CreatedAt.Before(other.CreatedAt)
	}
	return d.ID < other.ID
}

// MetadataString returns a metadata value formatted for display, or fallback when absent.
func (d Document) MetadataString(key, fallback string) string {
	v, ok := d.Metadata[key]
	if !ok || v == nil {
		return fallback
	}
	switch x := v.(type) {
	case string:
		if x == "" {
			return fallback
		}
		return x
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprint(x)
	}
}
