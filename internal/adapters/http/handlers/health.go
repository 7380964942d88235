// Package handlers provides HTTP request handlers for the service.
package handlers

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mentormind/mentormind-backend/internal/ports"
)

// BuildInfo is served on /-/build. Version, Commit and BuildTime come from
// -ldflags at link time.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
}

func NewBuildInfo(version, commit, buildTime string) BuildInfo {
	return BuildInfo{Version: version, Commit: commit, BuildTime: buildTime, GoVersion: runtime.Version()}
}

// HealthHandler serves the operational endpoints under /-/.
type HealthHandler struct {
	registry  ports.HealthRegistry
	buildInfo BuildInfo
	gatherer  prometheus.Gatherer
}

// NewHealthHandler serves metrics from gatherer, or from the default
// Prometheus registry when gatherer is nil.
func NewHealthHandler(registry ports.HealthRegistry, buildInfo BuildInfo, gatherer prometheus.Gatherer) *HealthHandler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	return &HealthHandler{registry: registry, buildInfo: buildInfo, gatherer: gatherer}
}

type livenessResponse struct {
	Status string `json:"status"`
}

type readinessResponse struct {
	Status ports.HealthStatus            `json:"status"`
	Checks map[string]*ports.CheckResult `json:"checks,omitempty"`
}

// Liveness answers 200 while the process is up. It never touches the database.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, livenessResponse{Status: "ok"})
}

// Readiness runs every registered check; any failure turns the answer into a 503.
func (h *HealthHandler) Readiness(c *gin.Context) {
	result := h.registry.CheckAll(c.Request.Context())

	code := http.StatusOK
	if result.Status != ports.HealthStatusHealthy {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, readinessResponse{Status: result.Status, Checks: result.Checks})
}

func (h *HealthHandler) BuildInfoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.buildInfo)
}

// MetricsHandler renders gatherer in the Prometheus exposition format.
func MetricsHandler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// RegisterHealthRoutes mounts live, ready, build and metrics on rg.
// Responses are marked uncacheable.
func (h *HealthHandler) RegisterHealthRoutes(rg *gin.RouterGroup) {
	rg.Use(noStore)

	rg.GET("/live", h.Liveness)
	rg.GET("/ready", h.Readiness)
	rg.GET("/build", h.BuildInfoHandler)
	rg.GET("/metrics", gin.WrapH(MetricsHandler(h.gatherer)))
}

// RegisterHealthRoutesOnEngine mounts the routes under /-/.
func (h *HealthHandler) RegisterHealthRoutesOnEngine(engine *gin.Engine) {
	h.RegisterHealthRoutes(engine.Group("/-"))
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Next()
}
