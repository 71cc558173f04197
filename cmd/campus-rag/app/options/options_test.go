package options

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validOptions 返回填齐必填项的配置。
func validOptions(t *testing.T) *ServerOptions {
	t.Helper()
	o := NewServerOptions()
	o.LLM.OpenAI.APIKey = "sk-test"
	o.LLM.Azure.Endpoint = "https://wichita.openai.azure.com"
	o.LLM.Azure.APIKey = "azure-key"
	o.Azure.Search.Endpoint = "https://wichita.search.windows.net"
	o.Azure.Search.APIKey = "search-key"
	o.Azure.Search.Index = "campus"
	o.Azure.Speech.Endpoint = "https://eastus.stt.speech.microsoft.com"
	o.Azure.Speech.APIKey = "speech-key"
	o.MilvusOptions.Address = "https://in03.zillizcloud.com"
	o.ZillizOptions.URL = "https://in03.zillizcloud.com"
	o.MilvusOptions.Token = "zilliz-token"
	o.MongoDBOptions.URI = "mongodb://localhost:27017"
	require.NoError(t, o.Complete())
	return o
}

func TestServerOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *ServerOptions)
		wantErr string
	}{
		{"默认配置加凭据", func(*ServerOptions) {}, ""},
		{"缺少 OpenAI key", func(o *ServerOptions) { o.LLM.OpenAI.APIKey = "" }, "llm.openai.api-key is required"},
		{"缺少搜索索引", func(o *ServerOptions) { o.Azure.Search.Index = "" }, "azure.search.index is required"},
		{"重叠不小于块大小", func(o *ServerOptions) { o.RAGOptions.ChunkOverlap = o.RAGOptions.ChunkSize }, "rag.chunk-overlap"},
		{"限流使用 redis 但未启用", func(o *ServerOptions) { o.MiddlewareOptions.RateLimit.UseRedis = true }, "requires redis.enabled"},
		{"缓存使用 redis 但未启用", func(o *ServerOptions) { o.CacheOptions.UseRedis = true }, "cache.use-redis requires redis.enabled"},
		{"采样比例越界", func(o *ServerOptions) { o.TracingOptions.SamplerRatio = 2 }, "tracing.sampler-ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOptions(t)
			tt.mutate(o)
			err := o.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestServerOptions_CompleteSharesZillizToken(t *testing.T) {
	o := validOptions(t)
	assert.Equal(t, "zilliz-token", o.ZillizOptions.Token)

	o = NewServerOptions()
	o.ZillizOptions.Token = "rest-token"
	require.NoError(t, o.Complete())
	assert.Equal(t, "rest-token", o.MilvusOptions.Token)
}

func TestServerOptions_Flags(t *testing.T) {
	o := NewServerOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fss := o.Flags()
	fss.AddTo(fs)

	for _, name := range []string{
		"http.addr",
		"log.level",
		"llm.openai.api-key",
		"llm.azure.chat-deployment",
		"azure.search.index",
		"azure.speech.endpoint",
		"milvus.address",
		"zilliz.faq-collection",
		"mongodb.uri",
		"redis.enabled",
		"cache.ttl",
		"rag.top-k",
		"middleware.rate-limit.limit",
		"middleware.tracing.skip-paths",
		"rag.office-license-key",
		"tracing.enabled",
		"tracing.exporter-type",
	} {
		assert.NotNil(t, fs.Lookup(name), name)
	}

	require.NoError(t, fs.Parse([]string{"--rag.top-k=4", "--http.addr=:9000"}))
	assert.Equal(t, 4, o.RAGOptions.TopK)
	assert.Equal(t, ":9000", o.HTTPOptions.Addr)
}

func TestServerOptions_Config(t *testing.T) {
	o := validOptions(t)
	cfg, err := o.Config()
	require.NoError(t, err)
	assert.Same(t, o.LLM.OpenAI, cfg.OpenAIOptions)
	assert.Same(t, o.Azure.Search, cfg.SearchOptions)
	assert.Same(t, o.RAGOptions, cfg.RAGOptions)
	assert.Same(t, o.TracingOptions, cfg.TracingOptions)
}
