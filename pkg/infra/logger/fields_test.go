package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

func TestWithRequestID(t *testing.T) {
	tests := []struct {
		name      string
		requestID string
		want      []any
	}{
		{"有效的请求ID", "req-123", []any{FieldRequestID, "req-123"}},
		{"空请求ID不写入", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := WithRequestID(context.Background(), tt.requestID)
			assert.Equal(t, tt.want, GetContextFields(ctx))
		})
	}
}

func TestFieldsOrderAndOverride(t *testing.T) {
	ctx := WithRequestID(context.Background(), "r1")
	ctx = WithTenant(ctx, "wsu")
	ctx = WithFields(ctx, "provider", "zilliz", FieldTenant, "wichita")

	assert.Equal(t, []any{
		FieldRequestID, "r1",
		FieldTenant, "wichita",
		"provider", "zilliz",
	}, GetContextFields(ctx))
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	parent := WithTenant(context.Background(), "wsu")
	child := WithFields(parent, "k", "v")

	assert.Len(t, GetContextFields(parent), 2)
	assert.Len(t, GetContextFields(child), 4)
}

func TestWithFieldsIgnoresInvalidPairs(t *testing.T) {
	ctx := WithFields(context.Background(), "only-key")
	assert.Nil(t, GetContextFields(ctx))

	ctx = WithFields(context.Background(), 42, "v", "a", 1, "dangling")
	assert.Equal(t, []any{"a", 1}, GetContextFields(ctx))
}

func TestWithSpan(t *testing.T) {
	assert.Nil(t, GetContextFields(WithSpan(context.Background())))

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := WithSpan(trace.ContextWithSpanContext(context.Background(), sc))

	assert.Equal(t, []any{
		FieldTraceID, "0102030405060708090a0b0c0d0e0f10",
		FieldSpanID, "0102030405060708",
	}, GetContextFields(ctx))
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))
	assert.NotNil(t, GetLogger(WithTenant(context.Background(), "wsu")))
}
