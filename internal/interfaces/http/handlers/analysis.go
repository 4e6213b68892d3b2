package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	analysisapp "github.com/moleculab/sarscope/internal/application/analysis"
	apperrors "github.com/moleculab/sarscope/pkg/errors"
)

// AnalysisHandler serves the statistics endpoints.
type AnalysisHandler struct {
	service *analysisapp.Service
}

// NewAnalysisHandler builds the handler.
func NewAnalysisHandler(service *analysisapp.Service) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

// Overview returns the headline dataset summary.
func (h *AnalysisHandler) Overview(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	overview, err := h.service.Overview(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, overview)
}

// Describe returns per-field descriptive statistics.
func (h *AnalysisHandler) Describe(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	summaries, err := h.service.Describe(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, summaries)
}

// Correlation returns the Pearson correlation matrix.
func (h *AnalysisHandler) Correlation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	matrix, err := h.service.Correlation(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, matrix)
}

// Neighbors returns descriptor-space neighbors of one compound.
func (h *AnalysisHandler) Neighbors(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	chemblID := c.Query("chembl_id")
	if chemblID == "" {
		respondError(c, apperrors.InvalidParam("query parameter \"chembl_id\" is required"))
		return
	}
	k := 0
	if err := bindQueryInt(c, "k", &k); err != nil {
		respondError(c, apperrors.InvalidParam("k must be an integer"))
		return
	}

	neighbors, err := h.service.Neighbors(c.Request.Context(), id, chemblID, k)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, neighbors)
}

// Export writes the summary and correlation reports to object storage.
func (h *AnalysisHandler) Export(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.service.Export(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}
