package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperr "github.com/oggyb/acquaintance/internal/errors"
	"github.com/oggyb/acquaintance/internal/logger"
)

// abortWithError writes the error body for err and stops the handler chain.
// Causes are logged, never returned to the client.
func abortWithError(c *gin.Context, err error) {
	err = apperr.Map(err)
	status := apperr.HTTPStatus(err)

	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("request failed", "err", err)
	}
	_ = c.Error(err)

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   apperr.KindOf(err).String(),
		Message: apperr.Message(err),
		Details: apperr.Details(err),
	})
}
