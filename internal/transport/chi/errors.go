package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tribe/internal/db/astra"
	"github.com/kailas-cloud/tribe/internal/domain"
)

// ErrorCode is the machine-readable code of an error response.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest        ErrorCode = "bad_request"
	CodeEmptyMessage      ErrorCode = "empty_message"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeConfiguration     ErrorCode = "configuration_error"
	CodeTransport         ErrorCode = "transport_error"
	CodeDecode            ErrorCode = "decode_error"
	CodeFlow              ErrorCode = "flow_error"
	CodeVectorStore       ErrorCode = "vector_store_error"
	CodeEmbeddingProvider ErrorCode = "embedding_provider_error"
	CodeQuotaExceeded     ErrorCode = "embedding_quota_exceeded"
	CodeInternal          ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body. Raw carries an undecodable upstream body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Raw     string    `json:"raw,omitempty"`
}

// errorHandler maps a domain error to a response. ok is false when it does not apply.
type errorHandler func(err error) (status int, resp ErrorResponse, ok bool)

// defaultErrorHandlers is ordered: typed errors first, then plain sentinels.
var defaultErrorHandlers = []errorHandler{
	decodeErrorHandler,
	flowErrorHandler,
	transportErrorHandler,
	vectorStoreErrorHandler,
	sentinelHandler(domain.ErrEmptyMessage, http.StatusBadRequest, CodeEmptyMessage),
	sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeBadRequest),
	sentinelHandler(domain.ErrConfiguration, http.StatusInternalServerError, CodeConfiguration),
	sentinelHandler(domain.ErrEmbeddingQuotaExceeded, http.StatusTooManyRequests, CodeQuotaExceeded),
	sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProvider),
	sentinelHandler(domain.ErrDecode, http.StatusBadGateway, CodeDecode),
	sentinelHandler(domain.ErrFlow, http.StatusBadGateway, CodeFlow),
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(err error) (int, ErrorResponse, bool) {
		if !errors.Is(err, sentinel) {
			return 0, ErrorResponse{}, false
		}
		return status, ErrorResponse{Code: code, Message: sentinel.Error()}, true
	}
}

func decodeErrorHandler(err error) (int, ErrorResponse, bool) {
	var de *domain.DecodeError
	if !errors.As(err, &de) {
		return 0, ErrorResponse{}, false
	}
	return http.StatusBadGateway, ErrorResponse{Code: CodeDecode, Message: de.Error(), Raw: de.Raw}, true
}

func flowErrorHandler(err error) (int, ErrorResponse, bool) {
	var fe *domain.FlowError
	if !errors.As(err, &fe) {
		return 0, ErrorResponse{}, false
	}
	return http.StatusBadGateway, ErrorResponse{Code: CodeFlow, Message: fe.Error()}, true
}

func transportErrorHandler(err error) (int, ErrorResponse, bool) {
	if !errors.Is(err, domain.ErrTransport) {
		return 0, ErrorResponse{}, false
	}
	msg := "upstream request failed"
	var te *domain.TransportError
	if errors.As(err, &te) && te.StatusCode > 0 {
		msg = fmt.Sprintf("upstream returned status %d", te.StatusCode)
	}
	return http.StatusBadGateway, ErrorResponse{Code: CodeTransport, Message: msg}, true
}

func vectorStoreErrorHandler(err error) (int, ErrorResponse, bool) {
	var ae *astra.APIError
	if !errors.As(err, &ae) {
		return 0, ErrorResponse{}, false
	}
	return http.StatusBadGateway, ErrorResponse{Code: CodeVectorStore, Message: ae.Error()}, true
}

// resolveError maps err to a status and body. Unmapped errors become an opaque 500.
func (s *Server) resolveError(err error) (int, ErrorResponse) {
	for _, h := range s.errorHandlers {
		if status, resp, ok := h(err); ok {
			return status, resp
		}
	}
	return http.StatusInternalServerError, ErrorResponse{Code: CodeInternal, Message: "internal error"}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := s.resolveError(err)
	log := s.requestLogger(r)
	if status >= http.StatusInternalServerError && resp.Code == CodeInternal {
		log.Error("internal error", zap.Error(err))
	} else {
		log.Warn("domain error", zap.Error(err), zap.String("code", string(resp.Code)))
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
