package middleware

import (
	"log/slog"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/mentormind/mentormind-backend/internal/adapters/http/dto"
	"github.com/mentormind/mentormind-backend/internal/platform/logging"
)

// Recovery returns middleware that turns a panic into a 500 response and an
// ERROR log with the stack. It must come first in the chain. It also makes
// logger the request logger, which later middleware enriches.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if logger != nil {
			c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), logger))
		}

		defer func() {
			r := recover()
			if r == nil {
				return
			}

			ctx := c.Request.Context()

			logging.FromContext(ctx).ErrorContext(ctx, "panic recovered",
				slog.Any("error", r),
				slog.String("stack", string(debug.Stack())),
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}

			dto.AbortWithErrorCode(c, dto.ErrorCodeInternal, "an internal error occurred")
		}()

		c.Next()
	}
}
