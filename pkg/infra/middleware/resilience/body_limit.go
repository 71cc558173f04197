package resilience

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	mwopts "github.com/kart-io/campus-rag/pkg/options/middleware"
	"github.com/kart-io/campus-rag/pkg/utils/errors"
	"github.com/kart-io/campus-rag/pkg/utils/response"
)

// BodyLimit returns a request body size limit middleware.
func BodyLimit(maxSize int64) gin.HandlerFunc {
	return BodyLimitWithOptions(mwopts.BodyLimitOptions{MaxSize: maxSize})
}

// BodyLimitWithOptions 限制请求体大小。
//
// 工作原理：
//  1. Content-Length 超限时直接拒绝，不读取任何数据
//  2. 使用 http.MaxBytesReader 限制实际读取的字节数，handler 读到超限时得到 *http.MaxBytesError
func BodyLimitWithOptions(opts mwopts.BodyLimitOptions) gin.HandlerFunc {
	if opts.MaxSize <= 0 {
		opts.MaxSize = mwopts.NewBodyLimitOptions().MaxSize
	}

	return func(c *gin.Context) {
		req := c.Request
		if req.ContentLength > opts.MaxSize {
			logger.Warnw("request body too large (Content-Length check)",
				"path", req.URL.Path,
				"content_length", req.ContentLength,
				"max_size", opts.MaxSize,
			)
			response.Fail(c, errors.ErrRequestTooLarge)
			return
		}

		req.Body = http.MaxBytesReader(c.Writer, req.Body, opts.MaxSize)
		c.Next()
	}
}
