package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moleculab/sarscope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/moleculab/sarscope/pkg/errors"
	"github.com/moleculab/sarscope/pkg/types/common"
)

// Recovery converts panics into a structured 500 response instead of tearing
// down the connection.
func Recovery(logger logging.Logger) gin.HandlerFunc {
	log := logger.Named("recovery")
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					logging.Any("panic", r),
					logging.String("path", c.Request.URL.Path),
					logging.String("request_id", c.GetString(RequestIDKey)))
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					common.NewErrorResponse(string(apperrors.ErrCodeInternal), "internal server error"))
			}
		}()
		c.Next()
	}
}
