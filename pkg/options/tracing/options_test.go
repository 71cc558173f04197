package tracing

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(o *Options)
		wantErr bool
	}{
		{"默认值合法（不导出）", func(o *Options) {}, false},
		{"未启用时忽略导出器", func(o *Options) { o.ExporterType = "zipkin"; o.Endpoint = "" }, false},
		{"启用 otlp_grpc", func(o *Options) { o.Enabled = true }, false},
		{"启用 stdout 无需 endpoint", func(o *Options) { o.Enabled = true; o.ExporterType = ExporterStdout; o.Endpoint = "" }, false},
		{"启用 otlp_http 缺少 endpoint", func(o *Options) { o.Enabled = true; o.ExporterType = ExporterOTLPHTTP; o.Endpoint = "" }, true},
		{"启用时导出器非法", func(o *Options) { o.Enabled = true; o.ExporterType = "zipkin" }, true},
		{"采样器非法", func(o *Options) { o.SamplerType = "sometimes" }, true},
		{"采样比例越界", func(o *Options) { o.SamplerRatio = 1.5 }, true},
		{"关闭超时非正", func(o *Options) { o.ShutdownTimeout = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOptions()
			tt.modify(o)
			if tt.wantErr {
				assert.NotEmpty(t, o.Validate())
			} else {
				assert.Empty(t, o.Validate())
			}
		})
	}
}

func TestAddFlags(t *testing.T) {
	o := NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"--tracing.enabled",
		"--tracing.exporter-type=otlp_http",
		"--tracing.endpoint=collector:4318",
		"--tracing.headers=authorization=Bearer x",
	}))
	assert.True(t, o.Enabled)
	assert.Equal(t, ExporterOTLPHTTP, o.ExporterType)
	assert.Equal(t, "collector:4318", o.Endpoint)
	assert.Equal(t, "Bearer x", o.Headers["authorization"])
}

func TestComplete(t *testing.T) {
	o := &Options{}
	require.NoError(t, o.Complete())
	assert.NotNil(t, o.Headers)
}
