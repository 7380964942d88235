package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mentormind/mentormind-backend/internal/adapters/http/dto"
	"github.com/mentormind/mentormind-backend/internal/platform/logging"
)

// Timeout returns middleware that puts a deadline of timeout on the request
// context. Handlers and queries observe it through ctx. When the deadline
// passed and the handler wrote nothing, the client gets 504.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if !errors.Is(ctx.Err(), context.DeadlineExceeded) || c.Writer.Written() {
			return
		}

		logging.FromContext(ctx).WarnContext(ctx, "request timeout",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Duration("timeout", timeout),
		)

		dto.AbortWithErrorCode(c, dto.ErrorCodeTimeout, "request timeout exceeded")
	}
}
