// Package dto provides Data Transfer Objects for HTTP request/response handling.
package dto

import "net/http"

// ErrorResponse is the error envelope of every non-2xx API response.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"traceId,omitempty"`
}

type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Machine-readable error codes. Each maps to one HTTP status.
const (
	ErrorCodeNotFound    = "NOT_FOUND"
	ErrorCodeConflict    = "CONFLICT"
	ErrorCodeValidation  = "VALIDATION_ERROR"
	ErrorCodeBadRequest  = "BAD_REQUEST"
	ErrorCodeUnavailable = "SERVICE_UNAVAILABLE"
	ErrorCodeTimeout     = "TIMEOUT"
	ErrorCodeInternal    = "INTERNAL_ERROR"
)

var codeStatus = map[string]int{
	ErrorCodeNotFound:    http.StatusNotFound,
	ErrorCodeConflict:    http.StatusConflict,
	ErrorCodeValidation:  http.StatusBadRequest,
	ErrorCodeBadRequest:  http.StatusBadRequest,
	ErrorCodeUnavailable: http.StatusServiceUnavailable,
	ErrorCodeTimeout:     http.StatusGatewayTimeout,
	ErrorCodeInternal:    http.StatusInternalServerError,
}

func NewErrorResponse(code, message string) *ErrorResponse {
	return NewErrorResponseWithDetails(code, message, nil)
}

// NewErrorResponseWithDetails carries per-field messages, keyed by the JSON
// field name, in Error.Details.
func NewErrorResponseWithDetails(code, message string, details map[string]string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func (e *ErrorResponse) WithTraceID(traceID string) *ErrorResponse {
	e.TraceID = traceID
	return e
}

// HTTPStatusFromCode returns the status for code; unknown codes are 500.
func HTTPStatusFromCode(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}

	return http.StatusInternalServerError
}
