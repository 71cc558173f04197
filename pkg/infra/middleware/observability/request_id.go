// Package observability provides request tracing and access log middleware.
package observability

import (
	"github.com/gin-gonic/gin"

	ctxlog "github.com/kart-io/campus-rag/pkg/infra/logger"
	"github.com/kart-io/campus-rag/pkg/infra/middleware/common"
	mwopts "github.com/kart-io/campus-rag/pkg/options/middleware"
)

// ContextKeyRequestID is the gin context key holding the request ID.
const ContextKeyRequestID = "request_id"

// RequestID returns a request ID middleware with default options.
func RequestID() gin.HandlerFunc {
	return RequestIDWithOptions(*mwopts.NewRequestIDOptions())
}

// RequestIDWithOptions 为每个请求分配 request id。
// 已携带的请求头会被沿用；id 同时写入响应头、gin 上下文和 request context，
// 并作为日志字段随 context 传递。
func RequestIDWithOptions(opts mwopts.RequestIDOptions) gin.HandlerFunc {
	header := opts.Header
	if header == "" {
		header = common.HeaderXRequestID
	}

	return func(c *gin.Context) {
		requestID := c.GetHeader(header)
		if requestID == "" {
			requestID = common.GenerateRequestID()
		}

		c.Header(header, requestID)
		c.Set(ContextKeyRequestID, requestID)
		ctx := common.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctxlog.WithRequestID(ctx, requestID))

		c.Next()
	}
}
