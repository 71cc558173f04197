package tracing

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	ctxlog "github.com/kart-io/campus-rag/pkg/infra/logger"
	options "github.com/kart-io/campus-rag/pkg/options/tracing"
)

func restoreGlobals(t *testing.T) {
	t.Helper()
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
}

func TestNewProviderInstallsGlobals(t *testing.T) {
	restoreGlobals(t)

	p, err := NewProvider(context.Background(), options.NewOptions(), "campus-rag", "v0.0.0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown() })

	ctx, span := Start(context.Background(), "biz.Retriever.Answer")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	require.NotEmpty(t, traceID, "导出关闭时 span 仍然有效")
	assert.Contains(t, ctxlog.GetContextFields(ctx), traceID)

	header := http.Header{}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(header))
	assert.Contains(t, header.Get("traceparent"), traceID)
}

func TestNewProviderStdoutExporter(t *testing.T) {
	restoreGlobals(t)
	var buf bytes.Buffer
	prev := stdoutWriter
	stdoutWriter = &buf
	t.Cleanup(func() { stdoutWriter = prev })

	opts := options.NewOptions()
	opts.Enabled = true
	opts.ExporterType = options.ExporterStdout
	opts.SamplerType = options.SamplerAlwaysOn

	p, err := NewProvider(context.Background(), opts, "campus-rag", "v0.0.0")
	require.NoError(t, err)

	_, span := Start(context.Background(), "biz.Translator.Translate")
	span.End()
	require.NoError(t, p.ForceFlush(context.Background()))
	require.NoError(t, p.Shutdown())

	assert.Contains(t, buf.String(), "biz.Translator.Translate")
}

func TestNewProviderUnsupportedExporter(t *testing.T) {
	restoreGlobals(t)
	opts := options.NewOptions()
	opts.Enabled = true
	opts.ExporterType = "zipkin"

	_, err := NewProvider(context.Background(), opts, "campus-rag", "v0.0.0")
	assert.ErrorContains(t, err, "unsupported exporter type")
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		name    string
		sampler options.SamplerType
		want    string
	}{
		{"始终采样", options.SamplerAlwaysOn, "AlwaysOnSampler"},
		{"从不采样", options.SamplerAlwaysOff, "AlwaysOffSampler"},
		{"按比例采样", options.SamplerRatio, "TraceIDRatioBased"},
		{"跟随父 span", options.SamplerParentBased, "ParentBased"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := options.NewOptions()
			opts.SamplerType = tt.sampler
			assert.Contains(t, newSampler(opts).Description(), tt.want)
		})
	}
}

func TestEnd(t *testing.T) {
	restoreGlobals(t)
	rec := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))

	_, ok := Start(context.Background(), "ok", String("tenant", "wsu"))
	End(ok, nil)
	_, failed := Start(context.Background(), "failed", Int("top_k", 3))
	End(failed, errors.New("upstream timeout"))

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "upstream timeout", spans[1].Status().Description)
	require.Len(t, spans[1].Events(), 1)
	assert.Equal(t, "exception", spans[1].Events()[0].Name)
}

func TestTraceIDFromContextWithoutSpan(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
}
