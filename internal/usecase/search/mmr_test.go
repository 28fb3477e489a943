package search

import (
	"math"
	"testing"

	"github.com/kailas-cloud/tribe/internal/domain/document"
)

func TestCosine(t *testing.T) {
	if got := cosine([]float32{1, 0}, []float32{1, 0}); math.Abs(got-1) > 1e-9 {
		t.Errorf("identical vectors: %v", got)
	}
	if got := cosine([]float32{1, 0}, []float32{0, 1}); math.Abs(got) > 1e-9 {
		t.Errorf("orthogonal vectors: %v", got)
	}
	if got := cosine([]float32{0, 0}, []float32{1, 1}); got != 0 {
		t.Errorf("zero vector: %v", got)
	}
}

func TestSelectMMR_PureRelevance(t *testing.T) {
	cands := []document.Document{
		{ID: "far", Vector: []float32{0, 1}},
		{ID: "near", Vector: []float32{1, 0}},
		{ID: "mid", Vector: []float32{1, 1}},
	}
	got := selectMMR([]float32{1, 0}, cands, 3, 1)
	if len(got) != 3 || got[0].ID != "near" || got[1].ID != "mid" || got[2].ID != "far" {
		t.Errorf("lambda=1 should rank by relevance, got %v", ids(got))
	}
}

func TestSelectMMR_SkipsMissingVectorsAndCapsK(t *testing.T) {
	cands := []document.Document{
		{ID: "no-vec"},
		{ID: "wrong-dim", Vector: []float32{1}},
		{ID: "ok", Vector: []float32{1, 0}},
	}
	got := selectMMR([]float32{1, 0}, cands, 5, 0.5)
	if len(got) != 1 || got[0].ID != "ok" {
		t.Errorf("got %v", ids(got))
	}
	if len(selectMMR([]float32{1, 0}, cands, 0, 0.5)) != 0 {
		t.Error("k=0 should select nothing")
	}
}

func ids(docs []document.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}
