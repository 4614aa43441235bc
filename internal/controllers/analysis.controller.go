package controllers

import (
	"errors"
	"net/http"

	"rigcheck/internal/bottleneck"
	"rigcheck/internal/middleware"
	"rigcheck/internal/models"
	"rigcheck/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sahilm/fuzzy"
)

// HandleAnalyze runs a bottleneck analysis for a posted {cpu, gpu, ram}
func HandleAnalyze(analysis *services.AnalysisService, validator *middleware.InputValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bindAnalysisRequest(c, validator)
		if !ok {
			return
		}
		result, err := analysis.Analyze(c.Request.Context(), req)
		if err != nil {
			writeAnalysisError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func bindAnalysisRequest(c *gin.Context, validator *middleware.InputValidator) (models.AnalysisRequest, bool) {
	var req models.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cpu, gpu and ram are required"})
		return req, false
	}
	if err := validator.ValidateRequest(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}
	return req, true
}

// writeAnalysisError maps unknown components to 422 and everything else to 500
func writeAnalysisError(c *gin.Context, err error) {
	var unknown *bottleneck.UnknownComponentsError
	if errors.As(err, &unknown) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "unknown component",
			"unknown": unknown.Components,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
}

// HandleListComponents lists catalog entries, optionally one kind and
// fuzzy-filtered by ?q=
func HandleListComponents(catalog *bottleneck.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		kinds := models.Kinds
		if raw := c.Query("kind"); raw != "" {
			kind, err := models.ParseKind(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			kinds = []models.ComponentKind{kind}
		}

		entries := []models.CatalogEntry{}
		for _, kind := range kinds {
			entries = append(entries, catalog.Entries(kind)...)
		}
		if q := c.Query("q"); q != "" {
			entries = filterEntries(entries, q)
		}
		c.JSON(http.StatusOK, gin.H{
			"count":      len(entries),
			"components": entries,
		})
	}
}

type entryNames []models.CatalogEntry

func (e entryNames) String(i int) string { return e[i].Name }
func (e entryNames) Len() int            { return len(e) }

// filterEntries keeps entries whose name fuzzy-matches q, best match first
func filterEntries(entries []models.CatalogEntry, q string) []models.CatalogEntry {
	matches := fuzzy.FindFrom(q, entryNames(entries))
	out := make([]models.CatalogEntry, 0, len(matches))
	for _, m := range matches {
		out = append(out, entries[m.Index])
	}
	return out
}
