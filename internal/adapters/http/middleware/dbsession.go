package middleware

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/mentormind/mentormind-backend/internal/platform/logging"
)

// Sessions binds and releases the database connection of one context.
// *database.Database implements it.
type Sessions interface {
	BindLazy(ctx context.Context) context.Context
	Close(ctx context.Context) (bool, error)
}

// DBSession returns middleware that gives every request its own connection
// state. The request's connection is opened by its first query and released
// after the handler returns, so a request that fans out into sessions holds
// no connection while they wait on the pool. A query that cannot get a
// connection surfaces as 503 through the error mapping of the handler.
// Close failures are logged and do not change the response.
func DBSession(db Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := db.BindLazy(c.Request.Context())
		c.Request = c.Request.WithContext(ctx)

		defer func() {
			closed, err := db.Close(ctx)
			if err != nil {
				logging.FromContext(ctx).WarnContext(ctx, "closing request connection",
					slog.String("error", err.Error()),
				)

				return
			}

			if closed {
				logging.FromContext(ctx).Log(ctx, logging.LevelTrace, "request connection closed")
			}
		}()

		c.Next()
	}
}
