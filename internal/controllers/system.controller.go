package controllers

import (
	"net/http"

	"rigcheck/internal/models"
	"rigcheck/internal/services"

	"github.com/gin-gonic/gin"
)

// HandleSystem reports the host's CPU and RAM. With ?gpu= it also analyses
// the host paired with that GPU.
func HandleSystem(host *services.HostService, analysis *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		info, err := host.Detect()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		gpu := c.Query("gpu")
		if gpu == "" {
			c.JSON(http.StatusOK, gin.H{"host": info})
			return
		}

		result, err := analysis.Analyze(c.Request.Context(), models.AnalysisRequest{
			CPU: info.CPUModel,
			GPU: gpu,
			RAM: info.RAMDescriptor,
		})
		if err != nil {
			writeAnalysisError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"host": info, "analysis": result})
	}
}

// HandleHealth reports liveness and the size of the loaded reference table
func HandleHealth(analysis *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":          "ok",
			"catalog_entries": analysis.Catalog().Len(),
		})
	}
}
