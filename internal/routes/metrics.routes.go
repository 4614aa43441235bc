package routes

import (
	"rigcheck/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterMetricsRoutes exposes Prometheus metrics, restricted to whitelisted IPs
func RegisterMetricsRoutes(r *gin.Engine, gatherer prometheus.Gatherer, whitelist *middleware.IPWhitelist, secLog *middleware.SecurityLogger) {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics",
		middleware.IPWhitelistMiddleware(whitelist, secLog),
		gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
