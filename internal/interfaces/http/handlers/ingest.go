package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	ingestapp "github.com/moleculab/sarscope/internal/application/ingest"
	apperrors "github.com/moleculab/sarscope/pkg/errors"
)

// IngestHandler serves the ChEMBL ingestion endpoints.
type IngestHandler struct {
	service *ingestapp.Service
}

// NewIngestHandler builds the handler.
func NewIngestHandler(service *ingestapp.Service) *IngestHandler {
	return &IngestHandler{service: service}
}

// SearchTargets resolves a free-text query to candidate protein targets.
func (h *IngestHandler) SearchTargets(c *gin.Context) {
	query := c.Query("q")
	limit := 20
	if err := bindQueryInt(c, "limit", &limit); err != nil {
		respondError(c, apperrors.InvalidParam("limit must be an integer"))
		return
	}

	targets, err := h.service.SearchTargets(c.Request.Context(), query, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, targets)
}

type fetchRequest struct {
	DatasetName string   `json:"dataset_name" binding:"required"`
	Targets     []string `json:"targets" binding:"required"`
	Async       bool     `json:"async"`
}

// Fetch builds a dataset from ChEMBL.  With "async": true the request is
// queued for the worker and a job id is returned immediately.
func (h *IngestHandler) Fetch(c *gin.Context) {
	var req fetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.InvalidParam("invalid fetch request: "+err.Error()))
		return
	}

	if req.Async {
		jobID, err := h.service.Enqueue(c.Request.Context(), req.DatasetName, req.Targets)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusAccepted, gin.H{"job_id": jobID})
		return
	}

	d, err := h.service.Fetch(c.Request.Context(), req.DatasetName, req.Targets)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, d.ToDTO())
}
