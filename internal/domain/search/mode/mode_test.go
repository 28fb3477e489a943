package mode

import (
	"testing"
	"time"
)

func lambda(v float64) *float64 { return &v }

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		want Strategy
	}{
		{NameSimilarity, Params{K: 10}, Similarity{K: 10}},
		{"", Params{}, Similarity{K: DefaultK}},
		{NameScoreThreshold, Params{K: 5, Threshold: 0.4}, ScoreThreshold{K: 5, Threshold: 0.4}},
		{NameMMR, Params{K: 4}, MMR{K: 4, FetchK: DefaultFetchK, Lambda: DefaultLambda}},
		{NameMMR, Params{K: 30, FetchK: 10, Lambda: lambda(0.9)}, MMR{K: 30, FetchK: 30, Lambda: 0.9}},
		{NameMMR, Params{K: 4, Lambda: lambda(0)}, MMR{K: 4, FetchK: DefaultFetchK, Lambda: 0}},
		{NameCustom, Params{K: 25, Threshold: 0.3, Timeout: 10 * time.Second},
			Custom{K: 25, Threshold: 0.3, Timeout: 10 * time.Second}},
		{NameCustom, Params{K: 25}, Custom{K: 25, Timeout: DefaultTimeout}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.name, tt.p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %#v, want %#v", tt.name, got, tt.want)
			}
		})
	}
}

func TestParse_Unknown(t *testing.T) {
	if _, err := Parse("Fuzzy", Params{}); err == nil {
		t.Fatal("expected error for unknown search type")
	}
}

func TestParse_InvalidThreshold(t *testing.T) {
	if _, err := Parse(NameScoreThreshold, Params{Threshold: 1.5}); err == nil {
		t.Fatal("expected error for threshold > 1")
	}
}

func TestParse_InvalidLambda(t *testing.T) {
	if _, err := Parse(NameMMR, Params{Lambda: lambda(-0.2)}); err == nil {
		t.Fatal("expected error for negative lambda")
	}
}

func TestName_RoundTrip(t *testing.T) {
	for _, name := range []string{NameSimilarity, NameScoreThreshold, NameMMR, NameCustom} {
		s, err := Parse(name, Params{K: 3})
		if err != nil {
			t.Fatalf("Parse(%q): %v", name, err)
		}
		if Name(s) != name {
			t.Errorf("Name(Parse(%q)) = %q", name, Name(s))
		}
		if s.Limit() != 3 {
			t.Errorf("%s: Limit() = %d", name, s.Limit())
		}
	}
}
