package astra

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/tribe/internal/domain/document"
	"github.com/kailas-cloud/tribe/internal/domain/search/filter"
)

type rawDocument map[string]json.RawMessage

func (r rawDocument) decode() (document.Document, error) {
	var d document.Document

	if v, ok := r["_id"]; ok {
		id, err := decodeID(v)
		if err != nil {
			return d, fmt.Errorf("_id: %w", err)
		}
		d.ID = id
	}
	if v, ok := r["created_at"]; ok {
		t, err := decodeTime(v)
		if err != nil {
			return d, fmt.Errorf("created_at: %w", err)
		}
		d.CreatedAt = t
	}
	for _, key := range []string{"content", "$vectorize", "page_content"} {
		if v, ok := r[key]; ok {
			if err := json.Unmarshal(v, &d.Content); err == nil && d.Content != "" {
				break
			}
		}
	}
	if v, ok := r["$similarity"]; ok {
		if err := json.Unmarshal(v, &d.Similarity); err != nil {
			return d, fmt.Errorf("$similarity: %w", err)
		}
	}
	if v, ok := r["metadata"]; ok && string(v) != "null" {
		if err := json.Unmarshal(v, &d.Metadata); err != nil {
			return d, fmt.Errorf("metadata: %w", err)
		}
	}
	if v, ok := r["$vector"]; ok && string(v) != "null" {
		if err := json.Unmarshal(v, &d.Vector); err != nil {
			return d, fmt.Errorf("$vector: %w", err)
		}
	}
	return d, nil
}

// decodeID accepts plain string ids and the typed {"$uuid"} / {"$objectId"} forms.
func decodeID(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var typed map[string]string
	if err := json.Unmarshal(raw, &typed); err == nil {
		for _, k := range []string{"$uuid", "$objectId"} {
			if v, ok := typed[k]; ok {
				return v, nil
			}
		}
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("unsupported id %s", raw)
}

// decodeTime accepts {"$date": ms}, RFC 3339 strings and bare unix milliseconds.
func decodeTime(raw json.RawMessage) (time.Time, error) {
	var date struct {
		Millis *int64 `json:"$date"`
	}
	if err := json.Unmarshal(raw, &date); err == nil && date.Millis != nil {
		return time.UnixMilli(*date.Millis).UTC(), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, err
		}
		return t.UTC(), nil
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unsupported date %s", raw)
}

// encodeDocument renders a document for insertMany.
func encodeDocument(d document.Document) map[string]any {
	out := map[string]any{
		"content": d.Content,
	}
	if d.ID != "" {
		out["_id"] = d.ID
	}
	if !d.CreatedAt.IsZero() {
		out["created_at"] = filter.DateValue{Millis: d.CreatedAt.UnixMilli()}
	}
	if d.Metadata != nil {
		out["metadata"] = d.Metadata
	}
	if d.Vector != nil {
		out["$vector"] = d.Vector
	}
	return out
}
