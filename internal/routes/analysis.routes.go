package routes

import (
	"rigcheck/internal/controllers"
	"rigcheck/internal/middleware"
	"rigcheck/internal/services"

	"github.com/gin-gonic/gin"
)

func RegisterAnalysisRoutes(r *gin.Engine, analysis *services.AnalysisService, host *services.HostService, validator *middleware.InputValidator) {
	api := r.Group("/api")
	{
		api.POST("/analyze", controllers.HandleAnalyze(analysis, validator))
		api.GET("/components", controllers.HandleListComponents(analysis.Catalog()))
		if host != nil {
			api.GET("/system", controllers.HandleSystem(host, analysis))
		}
	}
}
