// Package logger carries request-scoped log fields (request id, tenant) in a
// context.Context and returns a kart-io logger pre-populated with them.
package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/kart-io/logger"
	"github.com/kart-io/logger/core"
)

type contextKey int

const loggerFieldsKey contextKey = iota

// Field keys written by this package.
const (
	FieldRequestID = "request_id"
	FieldTenant    = "tenant"
	FieldTraceID   = "trace_id"
	FieldSpanID    = "span_id"
)

// loggerFields 保持插入顺序，重复键覆盖原值。
type loggerFields struct {
	keys   []string
	values map[string]any
}

func newLoggerFields() *loggerFields {
	return &loggerFields{values: make(map[string]any)}
}

func (lf *loggerFields) clone() *loggerFields {
	n := &loggerFields{
		keys:   append([]string(nil), lf.keys...),
		values: make(map[string]any, len(lf.values)),
	}
	for k, v := range lf.values {
		n.values[k] = v
	}
	return n
}

func (lf *loggerFields) set(key string, value any) {
	if _, ok := lf.values[key]; !ok {
		lf.keys = append(lf.keys, key)
	}
	lf.values[key] = value
}

func (lf *loggerFields) toSlice() []any {
	if len(lf.keys) == 0 {
		return nil
	}
	out := make([]any, 0, len(lf.keys)*2)
	for _, k := range lf.keys {
		out = append(out, k, lf.values[k])
	}
	return out
}

func getLoggerFields(ctx context.Context) *loggerFields {
	if lf, ok := ctx.Value(loggerFieldsKey).(*loggerFields); ok {
		return lf
	}
	return newLoggerFields()
}

func withField(ctx context.Context, key string, value any) context.Context {
	lf := getLoggerFields(ctx).clone()
	lf.set(key, value)
	return context.WithValue(ctx, loggerFieldsKey, lf)
}

// WithRequestID adds request_id to the context logger fields.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return withField(ctx, FieldRequestID, requestID)
}

// WithTenant adds the tenant name to the context logger fields.
func WithTenant(ctx context.Context, tenant string) context.Context {
	if tenant == "" {
		return ctx
	}
	return withField(ctx, FieldTenant, tenant)
}

// WithFields adds key-value pairs. A trailing key without value and
// non-string keys are ignored.
func WithFields(ctx context.Context, keysAndValues ...any) context.Context {
	if len(keysAndValues) < 2 {
		return ctx
	}

	lf := getLoggerFields(ctx).clone()
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			lf.set(key, keysAndValues[i+1])
		}
	}
	return context.WithValue(ctx, loggerFieldsKey, lf)
}

// WithSpan copies trace_id/span_id of a valid span in ctx into the fields.
func WithSpan(ctx context.Context) context.Context {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ctx
	}
	lf := getLoggerFields(ctx).clone()
	lf.set(FieldTraceID, sc.TraceID().String())
	lf.set(FieldSpanID, sc.SpanID().String())
	return context.WithValue(ctx, loggerFieldsKey, lf)
}

// GetContextFields returns the fields in ctx as a key-value slice, or nil.
func GetContextFields(ctx context.Context) []any {
	return getLoggerFields(ctx).toSlice()
}

// GetLogger returns the global logger carrying the fields stored in ctx.
func GetLogger(ctx context.Context) core.Logger {
	base := logger.Global()
	if fields := GetContextFields(ctx); len(fields) > 0 {
		return base.With(fields...)
	}
	return base
}
