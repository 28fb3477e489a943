package langflow

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/kailas-cloud/tribe/internal/domain"
)

func response(t *testing.T, raw string) Response {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return Response{Body: body, Raw: []byte(raw)}
}

func TestExtractMessage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			"primary path",
			`{"outputs":[{"message":{"text":"Climate is a top concern."}}]}`,
			"Climate is a top concern.",
		},
		{
			"first entry with text wins",
			`{"outputs":[{"inputs":{}},{"message":{"text":"second"}},{"message":{"text":"third"}}]}`,
			"second",
		},
		{
			"deep fallback",
			`{"outputs":[{"outputs":[{"results":{"message":{"data":{"text":"Deep answer"}}}}]}]}`,
			"Deep answer",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractMessage(response(t, tt.raw))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractMessage_Sentinel(t *testing.T) {
	for _, raw := range []string{
		`{}`,
		`{"outputs":[]}`,
		`{"outputs":"nope"}`,
		`{"outputs":[{"outputs":[]}]}`,
		`{"outputs":[{"outputs":[{"results":{"message":{"data":{}}}}]}]}`,
		`{"outputs":[{"message":{"text":42}}]}`,
	} {
		got, err := ExtractMessage(response(t, raw))
		if got != domain.ExtractionFailureText {
			t.Errorf("%s: got %q, want sentinel", raw, got)
		}
		if !errors.Is(err, domain.ErrExtraction) {
			t.Errorf("%s: expected ErrExtraction, got %v", raw, err)
		}
	}
}
