package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/nao1215/riskscope/internal/database"
	"github.com/nao1215/riskscope/internal/dispatch"
)

// Error codes returned in the "error" field.
const (
	CodeUnknownType         = "unknown_type"
	CodeInvalidInput        = "invalid_input"
	CodeAnalyzerUnavailable = "analyzer_unavailable"
	CodeAnalysisFailed      = "analysis_failed"
	CodeTimeout             = "timeout"
	CodeNotFound            = "not_found"
	CodeStorageDisabled     = "storage_disabled"
	CodeInternal            = "internal_error"
)

// errorResponse is the JSON error body.
type errorResponse struct {
	Error  string `json:"error"`
	Type   string `json:"type,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// errStorageDisabled is returned by event routes when no store is configured.
var errStorageDisabled = errors.New("event storage is disabled")

// classify maps an error to an HTTP status and body.
func classify(err error) (int, errorResponse) {
	var unknown *dispatch.UnknownTypeError
	switch {
	case errors.As(err, &unknown):
		return http.StatusBadRequest, errorResponse{Error: CodeUnknownType, Type: unknown.Type}
	case errors.Is(err, dispatch.ErrUnknownType):
		return http.StatusBadRequest, errorResponse{Error: CodeUnknownType}
	case errors.Is(err, dispatch.ErrInvalidInput), errors.Is(err, dispatch.ErrMissingPayload):
		return http.StatusBadRequest, errorResponse{Error: CodeInvalidInput, Detail: err.Error()}
	case errors.Is(err, dispatch.ErrAnalyzerUnavailable), errors.Is(err, errStorageDisabled):
		code := CodeAnalyzerUnavailable
		if errors.Is(err, errStorageDisabled) {
			code = CodeStorageDisabled
		}
		return http.StatusServiceUnavailable, errorResponse{Error: code, Detail: err.Error()}
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: CodeNotFound, Detail: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errorResponse{Error: CodeTimeout, Detail: err.Error()}
	default:
		return http.StatusBadGateway, errorResponse{Error: CodeAnalysisFailed, Detail: err.Error()}
	}
}
