package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/MetaNet/internal/infrastructure/monitoring/logging"
	prom "github.com/turtacn/MetaNet/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MetaNet/internal/interfaces/http/handlers"
	"github.com/turtacn/MetaNet/internal/interfaces/http/middleware"
	"github.com/turtacn/MetaNet/pkg/errors"
	"github.com/turtacn/MetaNet/pkg/types/common"
)

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the complete HTTP route tree.
type RouterConfig struct {
	// Handlers
	FormulaHandler *handlers.FormulaHandler
	NetworkHandler *handlers.NetworkHandler
	HealthHandler  *handlers.HealthHandler

	// Middleware
	Logging LoggingOptions
	// CORS is applied when AllowedOrigins is non-empty.
	CORS middleware.CORSConfig
	// RateLimiter is optional; RateLimit supplies its skip list.
	RateLimiter middleware.RateLimiter
	RateLimit   middleware.RateLimitConfig
	// MaxBodyBytes caps request bodies; 0 disables the cap.
	MaxBodyBytes int64

	// Infrastructure
	Logger         logging.Logger
	Metrics        *prom.NetworkMetrics
	MetricsHandler http.Handler
	MetricsPath    string
	// Mode is a gin mode: "debug", "release" or "test".
	Mode string
}

// LoggingOptions configures request logging; zero values use the defaults.
type LoggingOptions = middleware.LoggingConfig

// NewRouter constructs the complete HTTP route tree from the given
// configuration.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logCfg := cfg.Logging
	if logCfg.SkipPaths == nil && logCfg.SlowThreshold == 0 {
		logCfg = middleware.DefaultLoggingConfig()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// --- Global middleware (applied to every request) ---
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogging(logger, logCfg))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.WithContext(c.Request.Context()).Error("handler panic",
			logging.String("path", c.Request.URL.Path),
			logging.String("panic", fmt.Sprint(recovered)))
		cfg.Metrics.RecordError("http", errors.ErrCodeInternal.String())
		writeError(c, http.StatusInternalServerError, errors.ErrCodeInternal)
	}))
	if len(cfg.CORS.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(cfg.CORS))
	}
	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter, cfg.RateLimit, cfg.Metrics))
	}
	r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, errors.ErrCodeNotFound)
	})
	r.NoMethod(func(c *gin.Context) {
		writeError(c, http.StatusMethodNotAllowed, errors.ErrCodeBadRequest)
	})

	// --- Public health endpoints ---
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}

	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(cfg.MetricsHandler))
	}

	// --- API v1 ---
	api := r.Group("/api/v1")
	if cfg.FormulaHandler != nil {
		cfg.FormulaHandler.RegisterRoutes(api)
	}
	if cfg.NetworkHandler != nil {
		cfg.NetworkHandler.RegisterRoutes(api)
	}
	return r
}

func writeError(c *gin.Context, status int, code errors.ErrorCode) {
	resp := common.NewErrorResponse(code.String(), errors.DefaultMessageForCode(code), "")
	resp.RequestID = middleware.GetRequestID(c)
	c.AbortWithStatusJSON(status, resp)
}
