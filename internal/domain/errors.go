package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration signals missing credentials or configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransport signals a network or HTTP failure talking to a remote service.
	ErrTransport = errors.New("transport error")
	// ErrDecode signals a malformed or unexpected response body.
	ErrDecode = errors.New("decode error")
	// ErrExtraction signals a well-formed response without answer text.
	ErrExtraction = errors.New("extraction failure")
	// ErrFlow signals an error reported by the flow API inside a decoded response.
	ErrFlow = errors.New("flow error")
	// ErrEmptyMessage signals a blank chat submission.
	ErrEmptyMessage = errors.New("empty message")
	// ErrInvalidRequest signals invalid input parameters.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding token budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
)

// ExtractionFailureText is shown in place of an answer when no text could be extracted.
const ExtractionFailureText = "Error: Unable to extract message from the response."

// TransportError carries the HTTP status of a failed remote call (0 when no response arrived).
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %v", ErrTransport, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", ErrTransport, e.Err)
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Err}
}

// DecodeError keeps the raw response body for diagnosis.
type DecodeError struct {
	Raw string
	Err error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return ErrDecode.Error()
	}
	return fmt.Sprintf("%s: %v", ErrDecode, e.Err)
}

func (e *DecodeError) Unwrap() error { return ErrDecode }

// FlowError is an error field returned inside a successful flow response.
type FlowError struct {
	Detail string
}

func (e *FlowError) Error() string { return fmt.Sprintf("%s: %s", ErrFlow, e.Detail) }

func (e *FlowError) Unwrap() error { return ErrFlow }
