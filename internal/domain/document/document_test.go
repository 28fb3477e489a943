package document

import (
	"testing"
	"time"
)

func TestAfter(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)

	tests := []struct {
		name string
		a, b Document
		want bool
	}{
		{"older sorts after newer", Document{ID: "z", CreatedAt: t0}, Document{ID: "a", CreatedAt: t1}, true},
		{"newer does not sort after older", Document{ID: "a", CreatedAt: t1}, Document{ID: "z", CreatedAt: t0}, false},
		{"tie broken by id", Document{ID: "a", CreatedAt: t0}, Document{ID: "b", CreatedAt: t0}, true},
		{"equal keys", Document{ID: "a", CreatedAt: t0}, Document{ID: "a", CreatedAt: t0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.After(tt.b); got != tt.want {
				t.Errorf("After() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMetadataString(t *testing.T) {
	d := Document{Metadata: map[string]any{
		"likes":   float64(120),
		"score":   0.25,
		"country": "GB",
		"empty":   "",
		"nil":     nil,
		"flag":    true,
	}}

	tests := []struct {
		key, want string
	}{
		{"likes", "120"},
		{"score", "0.25"},
		{"country", "GB"},
		{"empty", "n/a"},
		{"nil", "n/a"},
		{"missing", "n/a"},
		{"flag", "true"},
	}
	for _, tt := range tests {
		if got := d.MetadataString(tt.key, "n/a"); got != tt.want {
			t.Errorf("MetadataString(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
