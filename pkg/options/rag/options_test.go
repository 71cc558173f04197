package rag

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	o := NewOptions()
	assert.Empty(t, o.Validate())
	assert.Empty(t, o.OfficeLicenseKey, "默认不使用 unioffice")
}

func TestAddFlags(t *testing.T) {
	o := NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"--rag.top-k=5",
		"--rag.office-license-key=metered-key",
	}))
	assert.Equal(t, 5, o.TopK)
	assert.Equal(t, "metered-key", o.OfficeLicenseKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"分块大小为 0", func(o *Options) { o.ChunkSize = 0 }},
		{"重叠不小于分块大小", func(o *Options) { o.ChunkOverlap = o.ChunkSize }},
		{"温度越界", func(o *Options) { o.Temperature = 3 }},
		{"工作池为 0", func(o *Options) { o.IngestWorkers = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOptions()
			tt.mutate(o)
			assert.NotEmpty(t, o.Validate())
		})
	}
}

func TestComplete(t *testing.T) {
	o := NewOptions()
	o.SystemPrompt = ""
	require.NoError(t, o.Complete())
	assert.Equal(t, DefaultSystemPrompt, o.SystemPrompt)
}
