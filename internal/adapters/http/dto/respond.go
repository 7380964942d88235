package dto

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/mentormind/mentormind-backend/internal/domain"
	"github.com/mentormind/mentormind-backend/internal/platform/logging"
)

// ContextKeyTraceID is the gin.Context key a handler may set to override the
// trace ID reported in error responses.
const ContextKeyTraceID = "trace_id"

// The request ID is the fallback correlation handle when tracing is off.
// These match the keys of the middleware package, which imports this one.
const (
	contextKeyRequestID = "request_id"
	headerRequestID     = "X-Request-ID"
)

// internalErrorMessage replaces the message of errors that are not domain
// errors so internals never reach the client.
const internalErrorMessage = "an internal error occurred"

// MapDomainError picks the status and body for err. Anything that is not a
// domain error becomes a 500 whose message reveals nothing.
func MapDomainError(err error) (int, *ErrorResponse) {
	var (
		validation  *domain.ValidationError
		unavailable *domain.UnavailableError
	)

	switch {
	case err == nil:
		return http.StatusOK, nil
	case domain.IsNotFound(err):
		return http.StatusNotFound, NewErrorResponse(ErrorCodeNotFound, err.Error())
	case domain.IsConflict(err):
		return http.StatusConflict, NewErrorResponse(ErrorCodeConflict, err.Error())
	case errors.As(err, &validation) && validation.Field != "":
		details := map[string]string{validation.Field: validation.Message}
		return http.StatusBadRequest, NewErrorResponseWithDetails(ErrorCodeValidation, err.Error(), details)
	case domain.IsValidation(err):
		return http.StatusBadRequest, NewErrorResponse(ErrorCodeValidation, err.Error())
	case errors.As(err, &unavailable):
		// The cause names hosts and ports; only the service name goes out.
		return http.StatusServiceUnavailable, NewErrorResponse(ErrorCodeUnavailable, unavailable.Service+" is temporarily unavailable")
	case domain.IsUnavailable(err):
		return http.StatusServiceUnavailable, NewErrorResponse(ErrorCodeUnavailable, "a dependency is temporarily unavailable")
	default:
		return http.StatusInternalServerError, NewErrorResponse(ErrorCodeInternal, internalErrorMessage)
	}
}

// GetTraceID returns the ID clients should quote when reporting an error: an
// explicit gin key first, then the active span, then the request ID.
func GetTraceID(c *gin.Context) string {
	if v, ok := c.Get(ContextKeyTraceID); ok {
		if id, ok := v.(string); ok {
			return id
		}

		return ""
	}

	if c.Request == nil {
		return ""
	}

	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		return sc.TraceID().String()
	}

	if id := c.GetString(contextKeyRequestID); id != "" {
		return id
	}

	return c.GetHeader(headerRequestID)
}

// HandleError writes the response for err. Errors mapped to 500 or 503 are
// logged with their full chain since the client only sees a summary.
func HandleError(c *gin.Context, err error) {
	c.JSON(failure(c, err))
}

// AbortWithError is HandleError for middleware: the rest of the chain is
// skipped.
func AbortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(failure(c, err))
}

func failure(c *gin.Context, err error) (int, *ErrorResponse) {
	status, resp := MapDomainError(err)
	resp.TraceID = GetTraceID(c)

	logFailure(c, status, err, resp.TraceID)

	return status, resp
}

// RespondWithErrorCode writes an error response for adapter-level failures,
// such as a malformed path parameter, that have no domain error.
func RespondWithErrorCode(c *gin.Context, code, message string) {
	c.JSON(HTTPStatusFromCode(code), NewErrorResponse(code, message).WithTraceID(GetTraceID(c)))
}

// AbortWithErrorCode is RespondWithErrorCode for middleware.
func AbortWithErrorCode(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(HTTPStatusFromCode(code), NewErrorResponse(code, message).WithTraceID(GetTraceID(c)))
}

// RespondWithValidationErrors writes a 400 response with field-level messages.
func RespondWithValidationErrors(c *gin.Context, fieldErrors map[string]string) {
	resp := NewErrorResponseWithDetails(ErrorCodeValidation, "request validation failed", fieldErrors)
	c.JSON(http.StatusBadRequest, resp.WithTraceID(GetTraceID(c)))
}

// RespondWithBindingError writes the response for an error returned by
// BindAndValidate or BindQueryAndValidate.
func RespondWithBindingError(c *gin.Context, err error) {
	if IsValidationError(err) {
		RespondWithValidationErrors(c, ValidationErrors(err))
		return
	}

	RespondWithErrorCode(c, ErrorCodeBadRequest, "malformed request")
}

func logFailure(c *gin.Context, status int, err error, traceID string) {
	if status < http.StatusInternalServerError {
		return
	}

	ctx := c.Request.Context()

	level := slog.LevelError
	if status == http.StatusServiceUnavailable {
		level = slog.LevelWarn
	}

	logging.FromContext(ctx).Log(ctx, level, "request failed",
		slog.Int("status", status),
		slog.String("error", err.Error()),
		slog.String("trace_id", traceID),
	)
}
