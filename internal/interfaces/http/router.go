// Package http assembles the gin route tree and the API server around it.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/DentEMG-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/DentEMG-Intelligence/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and cross-cutting dependencies the
// route tree needs.  Nil handlers are simply not mounted, so partial wiring
// in tests stays cheap.
type RouterConfig struct {
	RecommendationHandler *handlers.RecommendationHandler
	ModelHandler          *handlers.ModelHandler
	CorpusHandler         *handlers.CorpusHandler
	HealthHandler         *handlers.HealthHandler

	Metrics          middleware.HTTPRecorder
	MetricsCollector prometheus.MetricsCollector
	Logger           logging.Logger
	Mode             string
}

// NewRouter constructs the complete route tree: global middleware, public
// probes, the metrics endpoint, and the /api/v1 resource group.
func NewRouter(cfg RouterConfig) *gin.Engine {
	mode := cfg.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.RequestLogging(cfg.Logger, middleware.DefaultLoggingConfig()))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(r)
	}
	if cfg.MetricsCollector != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	api := r.Group("/api/v1")
	if cfg.RecommendationHandler != nil {
		cfg.RecommendationHandler.RegisterRoutes(api)
	}
	if cfg.ModelHandler != nil {
		cfg.ModelHandler.RegisterRoutes(api)
	}
	if cfg.CorpusHandler != nil {
		cfg.CorpusHandler.RegisterRoutes(api)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{
			Code:    "COMMON_003",
			Message: "route not found",
		})
	})
	return r
}
