package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"rigcheck/internal/middleware"
	"rigcheck/internal/services"

	"github.com/gin-gonic/gin"
)

// BuildsController serves saved builds for the authenticated owner
type BuildsController struct {
	builds    *services.BuildService
	analysis  *services.AnalysisService
	validator *middleware.InputValidator
	logger    *slog.Logger
}

func NewBuildsController(builds *services.BuildService, analysis *services.AnalysisService, validator *middleware.InputValidator, logger *slog.Logger) *BuildsController {
	if logger == nil {
		logger = slog.Default()
	}
	return &BuildsController{
		builds:    builds,
		analysis:  analysis,
		validator: validator,
		logger:    logger.With("component", "builds"),
	}
}

// Create analyses the posted components and saves the result
func (bc *BuildsController) Create(c *gin.Context) {
	req, ok := bindAnalysisRequest(c, bc.validator)
	if !ok {
		return
	}
	result, err := bc.analysis.Analyze(c.Request.Context(), req)
	if err != nil {
		writeAnalysisError(c, err)
		return
	}
	build, err := bc.builds.Create(c.Request.Context(), middleware.UserID(c), req, result)
	if err != nil {
		bc.logger.Error("failed to save build", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save build"})
		return
	}
	c.JSON(http.StatusCreated, build)
}

func (bc *BuildsController) List(c *gin.Context) {
	builds, err := bc.builds.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		bc.logger.Error("failed to list builds", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list builds"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(builds), "builds": builds})
}

func (bc *BuildsController) Get(c *gin.Context) {
	id := c.Param("id")
	if !bc.validator.ValidateBuildID(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": services.ErrBuildNotFound.Error()})
		return
	}
	build, err := bc.builds.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		bc.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, build)
}

func (bc *BuildsController) Delete(c *gin.Context) {
	id := c.Param("id")
	if !bc.validator.ValidateBuildID(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": services.ErrBuildNotFound.Error()})
		return
	}
	if err := bc.builds.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		bc.writeStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (bc *BuildsController) writeStoreError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrBuildNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	bc.logger.Error("build store error", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "storage error"})
}
