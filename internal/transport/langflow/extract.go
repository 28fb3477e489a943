package langflow

import (
	"fmt"

	"github.com/kailas-cloud/tribe/internal/domain"
)

// ExtractMessage pulls the answer text out of a flow reply.
//
// It looks at outputs[i].message.text first, taking the first entry that has one,
// then at outputs[0].outputs[0].results.message.data.text. When neither resolves it
// returns domain.ExtractionFailureText together with domain.ErrExtraction; callers
// show the text and only log the error.
func ExtractMessage(resp Response) (string, error) {
	outputs, _ := resp.Body["outputs"].([]any)
	for _, o := range outputs {
		if text, ok := str(dig(o, "message", "text")); ok {
			return text, nil
		}
	}

	if len(outputs) > 0 {
		inner, _ := dig(outputs[0], "outputs").([]any)
		if len(inner) > 0 {
			if text, ok := str(dig(inner[0], "results", "message", "data", "text")); ok {
				return text, nil
			}
		}
	}

	return domain.ExtractionFailureText, fmt.Errorf("no answer text in %d output(s): %w", len(outputs), domain.ErrExtraction)
}

// dig walks nested JSON objects by key. It returns nil on any missing step.
func dig(v any, keys ...string) any {
	for _, k := range keys {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[k]
	}
	return v
}

func str(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
