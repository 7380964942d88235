package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mentormind/mentormind-backend/internal/adapters/http/handlers"
	"github.com/mentormind/mentormind-backend/internal/adapters/http/middleware"
	"github.com/mentormind/mentormind-backend/internal/platform/config"
	"github.com/mentormind/mentormind-backend/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default timeout for API requests.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// Logger becomes the request logger of every request.
	Logger *slog.Logger

	// AppConfig names the service in traces and metrics.
	AppConfig *config.AppConfig

	// HealthHandler serves /-/. Nil registers no probes.
	HealthHandler *handlers.HealthHandler

	// LessonHandler serves /api/v1/lessons. Nil registers no lesson routes.
	LessonHandler *handlers.LessonHandler

	// DBSession opens the per-request database connection of /api/v1.
	// Usually middleware.DBSession(db).
	DBSession gin.HandlerFunc

	// Timeout is the deadline of /api/v1 requests. Zero disables it.
	Timeout time.Duration
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Global middleware runs in this order:
//  1. Recovery, which also installs the request logger
//  2. Request ID and correlation ID
//  3. OpenTelemetry tracing and HTTP metrics
//  4. Logging, skipping /-/
//
// /api/v1 adds the timeout and then the database session, so the deadline
// also bounds acquiring the connection. Probes under /-/ get neither: the
// readiness check pings the pool itself.
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	serviceName := "mentormind-backend"
	if cfg.AppConfig != nil && cfg.AppConfig.Name != "" {
		serviceName = cfg.AppConfig.Name
	}

	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
	)
	engine.Use(telemetry.Middleware(serviceName)...)
	engine.Use(middleware.Logging())

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	apiV1 := engine.Group("/api/v1")
	if cfg.Timeout > 0 {
		apiV1.Use(middleware.Timeout(cfg.Timeout))
	}

	if cfg.DBSession != nil {
		apiV1.Use(cfg.DBSession)
	}

	if cfg.LessonHandler != nil {
		cfg.LessonHandler.RegisterLessonRoutes(apiV1)
	}
}
