package mode

import (
	"fmt"
	"time"
)

// Display names accepted by the vector-store node.
const (
	NameSimilarity     = "Similarity"
	NameScoreThreshold = "Similarity with score threshold"
	NameMMR            = "MMR (Max Marginal Relevance)"
	NameCustom         = "Custom Search"
)

// Defaults shared by the strategies.
const (
	DefaultK       = 4
	DefaultFetchK  = 20
	DefaultLambda  = 0.5
	DefaultTimeout = time.Second
)

// Strategy is a search strategy. The set of variants is closed.
type Strategy interface {
	// Limit is the number of results the strategy returns at most.
	Limit() int
	isStrategy()
}

// Similarity returns the K nearest documents.
type Similarity struct {
	K int
}

// ScoreThreshold returns the K nearest documents scoring at least Threshold.
type ScoreThreshold struct {
	K         int
	Threshold float64
}

// MMR picks K documents out of FetchK candidates by maximal marginal relevance.
// Lambda 1 is pure relevance, 0 pure diversity.
type MMR struct {
	K      int
	FetchK int
	Lambda float64
}

// Custom runs a raw collection find with a server time budget and a score threshold.
type Custom struct {
	K         int
	Threshold float64
	Timeout   time.Duration
}

func (s Similarity) Limit() int     { return s.K }
func (s ScoreThreshold) Limit() int { return s.K }
func (s MMR) Limit() int            { return s.K }
func (s Custom) Limit() int         { return s.K }

func (Similarity) isStrategy()     {}
func (ScoreThreshold) isStrategy() {}
func (MMR) isStrategy()            {}
func (Custom) isStrategy()         {}

// Params are the node settings a strategy may draw from.
// A nil Lambda means DefaultLambda; an explicit 0 selects pure diversity.
type Params struct {
	K         int
	Threshold float64
	Timeout   time.Duration
	FetchK    int
	Lambda    *float64
}

// Parse maps a display name to its strategy. Missing numeric params get defaults.
func Parse(name string, p Params) (Strategy, error) {
	k := p.K
	if k <= 0 {
		k = DefaultK
	}
	if p.Threshold < 0 || p.Threshold > 1 {
		return nil, fmt.Errorf("score threshold must be between 0 and 1, got %v", p.Threshold)
	}

	switch name {
	case NameSimilarity, "":
		return Similarity{K: k}, nil
	case NameScoreThreshold:
		return ScoreThreshold{K: k, Threshold: p.Threshold}, nil
	case NameMMR:
		fetchK := p.FetchK
		if fetchK <= 0 {
			fetchK = DefaultFetchK
		}
		if fetchK < k {
			fetchK = k
		}
		lambda := DefaultLambda
		if p.Lambda != nil {
			lambda = *p.Lambda
		}
		if lambda < 0 || lambda > 1 {
			return nil, fmt.Errorf("mmr lambda must be between 0 and 1, got %v", lambda)
		}
		return MMR{K: k, FetchK: fetchK, Lambda: lambda}, nil
	case NameCustom:
		timeout := p.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		return Custom{K: k, Threshold: p.Threshold, Timeout: timeout}, nil
	default:
		return nil, fmt.Errorf("unknown search type %q", name)
	}
}

// Name returns the display name of s.
func Name(s Strategy) string {
	switch s.(type) {
	case ScoreThreshold:
		return NameScoreThreshold
	case MMR:
		return NameMMR
	case Custom:
		return NameCustom
	default:
		return NameSimilarity
	}
}
