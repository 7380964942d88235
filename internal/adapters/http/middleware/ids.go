// Package middleware provides the Gin middleware of the HTTP server.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mentormind/mentormind-backend/internal/platform/logging"
)

// Header names and gin.Context keys of the request identifiers.
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"

	ContextKeyRequestID     = "request_id"
	ContextKeyCorrelationID = "correlation_id"
)

// RequestID returns middleware that takes the request ID from X-Request-ID,
// or generates a UUID v4, echoes it in the response and attaches it to the
// request logger.
func RequestID() gin.HandlerFunc {
	return identify(HeaderRequestID, ContextKeyRequestID, logging.WithRequestID)
}

// CorrelationID is RequestID for X-Correlation-ID. An upstream caller sets it
// once for a whole business transaction.
func CorrelationID() gin.HandlerFunc {
	return identify(HeaderCorrelationID, ContextKeyCorrelationID, logging.WithCorrelationID)
}

// GetRequestID returns the request ID, or "" outside RequestID.
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}

// GetCorrelationID returns the correlation ID, or "" outside CorrelationID.
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(ContextKeyCorrelationID)
}

func identify(header, key string, enrich func(context.Context, string) context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(header)
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(key, id)
		c.Header(header, id)
		c.Request = c.Request.WithContext(enrich(c.Request.Context(), id))

		c.Next()
	}
}
