package astra

import (
	"fmt"
	"strings"
)

// ErrorDetail is one entry of the Data API errors array.
type ErrorDetail struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode,omitempty"`
}

// APIError is a command the Data API accepted but rejected with errors.
type APIError struct {
	Command string
	Errors  []ErrorDetail
}

func (e *APIError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, d := range e.Errors {
		if d.ErrorCode != "" {
			msgs[i] = d.ErrorCode + ": " + d.Message
		} else {
			msgs[i] = d.Message
		}
	}
	return fmt.Sprintf("data api %s: %s", e.Command, strings.Join(msgs, "; "))
}

// HasCode reports whether any error carries code.
func (e *APIError) HasCode(code string) bool {
	for _, d := range e.Errors {
		if d.ErrorCode == code {
			return true
		}
	}
	return false
}
