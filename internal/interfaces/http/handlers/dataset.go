package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	datasetapp "github.com/moleculab/sarscope/internal/application/dataset"
	domaindataset "github.com/moleculab/sarscope/internal/domain/dataset"
	apperrors "github.com/moleculab/sarscope/pkg/errors"
	compoundtypes "github.com/moleculab/sarscope/pkg/types/compound"
)

// DatasetHandler serves the dataset lifecycle endpoints.
type DatasetHandler struct {
	service        *datasetapp.Service
	maxUploadBytes int64
}

// NewDatasetHandler builds the handler.
func NewDatasetHandler(service *datasetapp.Service, maxUploadBytes int64) *DatasetHandler {
	return &DatasetHandler{service: service, maxUploadBytes: maxUploadBytes}
}

// Create ingests a CSV file from a multipart upload.  The dataset name comes
// from the "name" form field, falling back to the uploaded file name.
func (h *DatasetHandler) Create(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondError(c, apperrors.InvalidParam("multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(c, apperrors.InvalidParam("reading upload: "+err.Error()))
		return
	}

	name := c.PostForm("name")
	if name == "" {
		name = header.Filename
	}

	d, err := h.service.IngestCSV(c.Request.Context(), name, data, compoundtypes.SourceUpload)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, d.ToDTO())
}

// List returns dataset metadata pages.
func (h *DatasetHandler) List(c *gin.Context) {
	p, ok := parsePagination(c)
	if !ok {
		return
	}

	datasets, total, err := h.service.List(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	p.Total = total
	respondPage(c, datasets, p)
}

// Get returns one dataset's metadata.
func (h *DatasetHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	d, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, d.ToDTO())
}

// Records returns one page of a dataset's compounds, optionally narrowed by
// filter query parameters.
func (h *DatasetHandler) Records(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, ok := parsePagination(c)
	if !ok {
		return
	}
	filter, ok := parseRecordFilter(c)
	if !ok {
		return
	}

	records, total, err := h.service.Records(c.Request.Context(), id, filter, p)
	if err != nil {
		respondError(c, err)
		return
	}
	p.Total = total
	respondPage(c, records, p)
}

// Query applies a filter from the request body and returns the matching
// compounds with the statistics of the matched subset.
func (h *DatasetHandler) Query(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var filter domaindataset.Filter
	if err := c.ShouldBindJSON(&filter); err != nil {
		respondError(c, apperrors.InvalidParam("invalid filter body: "+err.Error()))
		return
	}

	result, err := h.service.Query(c.Request.Context(), id, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// Delete removes a dataset and everything derived from it.
func (h *DatasetHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
