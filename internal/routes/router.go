package routes

import (
	"log/slog"

	"rigcheck/internal/config"
	"rigcheck/internal/controllers"
	"rigcheck/internal/middleware"
	"rigcheck/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps are the services the HTTP layer is built on
type Deps struct {
	Config   *config.Config
	Analysis *services.AnalysisService
	Builds   *services.BuildService
	Host     *services.HostService
	Auth     *services.AuthService
	Hub      *services.WebSocketHub
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger

	// Limiter is built from Config.Server when nil
	Limiter *middleware.RateLimiter
}

// NewRouter assembles middleware and every route group
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	secLog := middleware.NewSecurityLogger(d.Logger)
	validator := middleware.NewInputValidator()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(otelgin.Middleware(d.Config.Tracing.ServiceName))
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CORSMiddleware(d.Config.Server.AllowedOrigins))
	if d.Limiter == nil {
		d.Limiter = middleware.NewRateLimiter(d.Config.Server.RateLimit, d.Config.Server.RateBurst)
	}
	r.Use(middleware.RateLimitMiddleware(d.Limiter, secLog))

	RegisterHealthRoutes(r, d.Analysis)
	RegisterMetricsRoutes(r, d.Gatherer, middleware.NewIPWhitelist(d.Config.Server.MetricsAllowedIPs), secLog)
	RegisterAnalysisRoutes(r, d.Analysis, d.Host, validator)
	if d.Builds != nil && d.Auth != nil {
		RegisterBuildRoutes(r, controllers.NewBuildsController(d.Builds, d.Analysis, validator, d.Logger),
			middleware.RequireOwner(d.Auth, secLog))
	}
	if d.Hub != nil && d.Auth != nil {
		RegisterAuthRoutes(r, controllers.NewWebSocketController(
			d.Hub, d.Auth, d.Analysis, validator, secLog, d.Config.Server.AllowedOrigins, d.Logger))
	}
	return r
}

func RegisterHealthRoutes(r *gin.Engine, analysis *services.AnalysisService) {
	r.GET("/health", controllers.HandleHealth(analysis))
}
