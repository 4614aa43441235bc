package routes

import (
	"rigcheck/internal/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterBuildRoutes mounts the owner-scoped build endpoints behind auth
func RegisterBuildRoutes(r *gin.Engine, bc *controllers.BuildsController, auth gin.HandlerFunc) {
	builds := r.Group("/api/builds", auth)
	{
		builds.POST("", bc.Create)
		builds.GET("", bc.List)
		builds.GET("/:id", bc.Get)
		builds.DELETE("/:id", bc.Delete)
	}
}
