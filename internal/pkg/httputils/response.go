// Package httputils provides HTTP utility functions shared by handlers.
package httputils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	ctxlog "github.com/kart-io/campus-rag/pkg/infra/logger"
	"github.com/kart-io/campus-rag/pkg/utils/errors"
	"github.com/kart-io/campus-rag/pkg/utils/response"
)

// WriteResponse writes data with 200 on success. On failure it logs the
// backend cause and writes the error envelope without it.
func WriteResponse(c *gin.Context, err error, data any) {
	if err != nil {
		errno := errors.FromError(err)
		if cause := errno.Cause(); cause != nil {
			kv := []any{
				"code", errno.Code,
				"path", c.FullPath(),
				"error", cause.Error(),
			}
			log := ctxlog.GetLogger(c.Request.Context())
			if errno.HTTPStatus() >= http.StatusInternalServerError {
				log.Errorw("request failed", kv...)
			} else {
				log.Warnw("request rejected", kv...)
			}
		}
		response.Fail(c, errno)
		return
	}

	c.JSON(http.StatusOK, data)
}
