// Package handlers contains the gin HTTP handlers for the SARScope API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moleculab/sarscope/internal/interfaces/http/middleware"
	apperrors "github.com/moleculab/sarscope/pkg/errors"
	"github.com/moleculab/sarscope/pkg/types/common"
)

// respondOK writes a success envelope.
func respondOK[T any](c *gin.Context, status int, data T) {
	resp := common.NewSuccessResponse(data)
	resp.RequestID = c.GetString(middleware.RequestIDKey)
	c.JSON(status, resp)
}

// respondPage writes a success envelope with pagination metadata.
func respondPage[T any](c *gin.Context, data T, p common.Pagination) {
	resp := common.NewPaginatedResponse(data, p)
	resp.RequestID = c.GetString(middleware.RequestIDKey)
	c.JSON(http.StatusOK, resp)
}

// respondError maps an application error onto its HTTP status and writes the
// error envelope.  Unknown errors become opaque 500s; the cause stays in the
// server log only.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	code := apperrors.GetCode(err)
	status := apperrors.HTTPStatusForCode(code)
	message := err.Error()
	if status == http.StatusInternalServerError {
		code = apperrors.ErrCodeInternal
		message = apperrors.DefaultMessageForCode(code)
	}

	resp := common.NewErrorResponse(string(code), message)
	resp.RequestID = c.GetString(middleware.RequestIDKey)
	c.AbortWithStatusJSON(status, resp)
}

// parseID validates the dataset id path parameter.
func parseID(c *gin.Context) (common.ID, bool) {
	id := common.ID(c.Param("id"))
	if err := id.Validate(); err != nil {
		respondError(c, apperrors.InvalidParam("invalid dataset id"))
		return "", false
	}
	return id, true
}

// parsePagination reads page/page_size query parameters with defaults.
func parsePagination(c *gin.Context) (common.Pagination, bool) {
	p := common.Pagination{Page: 1, PageSize: 50}
	if err := bindQueryInt(c, "page", &p.Page); err != nil {
		respondError(c, apperrors.InvalidParam("page must be an integer"))
		return p, false
	}
	if err := bindQueryInt(c, "page_size", &p.PageSize); err != nil {
		respondError(c, apperrors.InvalidParam("page_size must be an integer"))
		return p, false
	}
	if err := p.Validate(); err != nil {
		respondError(c, apperrors.InvalidParam(err.Error()))
		return p, false
	}
	return p, true
}
