package search

import (
	"math"

	"github.com/kailas-cloud/tribe/internal/domain/document"
)

// selectMMR picks up to k candidates by maximal marginal relevance:
// lambda * sim(query, d) - (1 - lambda) * max sim(d, picked).
// Candidates without a vector are ignored. Vectors are dropped from the result.
func selectMMR(query []float32, candidates []document.Document, k int, lambda float64) []document.Document {
	pool := make([]document.Document, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Vector) == len(query) && len(query) > 0 {
			pool = append(pool, c)
		}
	}
	if k <= 0 || len(pool) == 0 {
		return []document.Document{}
	}

	relevance := make([]float64, len(pool))
	for i, c := range pool {
		relevance[i] = cosine(query, c.Vector)
	}

	picked := make([]int, 0, min(k, len(pool)))
	used := make([]bool, len(pool))
	for len(picked) < k && len(picked) < len(pool) {
		best, bestScore := -1, math.Inf(-1)
		for i := range pool {
			if used[i] {
				continue
			}
			redundancy := 0.0
			if len(picked) > 0 {
				redundancy = math.Inf(-1)
			}
			for _, j := range picked {
				redundancy = math.Max(redundancy, cosine(pool[i].Vector, pool[j].Vector))
			}
			score := lambda*relevance[i] - (1-lambda)*redundancy
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		used[best] = true
		picked = append(picked, best)
	}

	out := make([]document.Document, len(picked))
	for n, i := range picked {
		d := pool[i]
		d.Vector = nil
		out[n] = d
	}
	return out
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
