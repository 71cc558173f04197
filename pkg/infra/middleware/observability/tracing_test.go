package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	ctxlog "github.com/kart-io/campus-rag/pkg/infra/logger"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	return rec
}

func TestTracing(t *testing.T) {
	rec := installRecorder(t)
	r := newEngine(RequestID(), Tracing())

	var logFields []any
	r.GET("/api/faqs", func(c *gin.Context) {
		logFields = ctxlog.GetContextFields(c.Request.Context())
		c.Status(http.StatusOK)
	})
	r.GET("/api/fail", func(c *gin.Context) { c.Status(http.StatusBadGateway) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("沿用上游 traceparent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/faqs", nil)
		req.Header.Set("traceparent", "00-0102030405060708090a0b0c0d0e0f10-0102030405060708-01")
		r.ServeHTTP(httptest.NewRecorder(), req)

		spans := rec.Ended()
		require.Len(t, spans, 1)
		span := spans[0]
		assert.Equal(t, "GET /api/faqs", span.Name())
		assert.Equal(t, trace.SpanKindServer, span.SpanKind())
		assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", span.SpanContext().TraceID().String())
		assert.Equal(t, "0102030405060708", span.Parent().SpanID().String())
		assert.Contains(t, logFields, ctxlog.FieldTraceID)
		assert.Contains(t, logFields, "0102030405060708090a0b0c0d0e0f10")
	})

	t.Run("5xx 标记为错误", func(t *testing.T) {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/fail", nil))

		spans := rec.Ended()
		require.Len(t, spans, 2)
		assert.Equal(t, codes.Error, spans[1].Status().Code)
		assert.False(t, spans[1].Parent().IsValid())
	})

	t.Run("跳过健康检查", func(t *testing.T) {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Len(t, rec.Ended(), 2)
	})
}
