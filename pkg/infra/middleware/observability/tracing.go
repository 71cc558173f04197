package observability

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"

	"github.com/kart-io/campus-rag/pkg/infra/tracing"
	mwopts "github.com/kart-io/campus-rag/pkg/options/middleware"
)

// Tracing returns a server span middleware with default options.
func Tracing() gin.HandlerFunc {
	return TracingWithOptions(*mwopts.NewTracingOptions())
}

// TracingWithOptions 为每个请求开启 server span。
// 上游 traceparent 通过全局 propagator 提取；trace_id/span_id 写入日志字段。
// 5xx 响应将 span 标记为错误。
func TracingWithOptions(opts mwopts.TracingOptions) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(opts.SkipPaths))
	for _, p := range opts.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		ctx, span := tracing.StartServer(ctx, c.Request.Method+" "+route,
			tracing.String("http.request.method", c.Request.Method),
			tracing.String("http.route", route),
			tracing.String("url.path", c.Request.URL.Path),
			tracing.String("request_id", c.GetString(ContextKeyRequestID)),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(tracing.Int("http.response.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
