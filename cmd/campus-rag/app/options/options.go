// Package options contains flags and options for initializing the campus-rag server.
package options

import (
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/campus-rag/internal/campusrag"
	cliflag "github.com/kart-io/campus-rag/pkg/app/cliflag"
	azureopts "github.com/kart-io/campus-rag/pkg/options/azure"
	cacheopts "github.com/kart-io/campus-rag/pkg/options/cache"
	llmopts "github.com/kart-io/campus-rag/pkg/options/llm"
	logopts "github.com/kart-io/campus-rag/pkg/options/logger"
	middlewareopts "github.com/kart-io/campus-rag/pkg/options/middleware"
	milvusopts "github.com/kart-io/campus-rag/pkg/options/milvus"
	mongodbopts "github.com/kart-io/campus-rag/pkg/options/mongodb"
	ragopts "github.com/kart-io/campus-rag/pkg/options/rag"
	redisopts "github.com/kart-io/campus-rag/pkg/options/redis"
	httpopts "github.com/kart-io/campus-rag/pkg/options/server/http"
	tracingopts "github.com/kart-io/campus-rag/pkg/options/tracing"
	zillizopts "github.com/kart-io/campus-rag/pkg/options/zilliz"
)

// LLMOptions groups the two completion backends.
type LLMOptions struct {
	// OpenAI serves the wsu tenant.
	OpenAI *llmopts.OpenAIOptions `json:"openai" mapstructure:"openai"`
	// Azure serves the wichita tenant.
	Azure *llmopts.AzureOpenAIOptions `json:"azure" mapstructure:"azure"`
}

// AzureOptions groups the Azure services of the wichita tenant.
type AzureOptions struct {
	Search *azureopts.SearchOptions `json:"search" mapstructure:"search"`
	Speech *azureopts.SpeechOptions `json:"speech" mapstructure:"speech"`
}

// ServerOptions contains the configuration options for the server.
// The mapstructure layout mirrors the flag names so config files, env vars
// (CAMPUS_RAG_LLM_OPENAI_API_KEY) and flags (--llm.openai.api-key) agree.
type ServerOptions struct {
	HTTPOptions       *httpopts.Options       `json:"http" mapstructure:"http"`
	LogOptions        *logopts.Options        `json:"log" mapstructure:"log"`
	MiddlewareOptions *middlewareopts.Options `json:"middleware" mapstructure:"middleware"`
	LLM               *LLMOptions             `json:"llm" mapstructure:"llm"`
	Azure             *AzureOptions           `json:"azure" mapstructure:"azure"`
	MilvusOptions     *milvusopts.Options     `json:"milvus" mapstructure:"milvus"`
	ZillizOptions     *zillizopts.Options     `json:"zilliz" mapstructure:"zilliz"`
	MongoDBOptions    *mongodbopts.Options    `json:"mongodb" mapstructure:"mongodb"`
	RedisOptions      *redisopts.Options      `json:"redis" mapstructure:"redis"`
	CacheOptions      *cacheopts.Options      `json:"cache" mapstructure:"cache"`
	RAGOptions        *ragopts.Options        `json:"rag" mapstructure:"rag"`
	TracingOptions    *tracingopts.Options    `json:"tracing" mapstructure:"tracing"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		HTTPOptions:       httpopts.NewOptions(),
		LogOptions:        logopts.NewOptions(),
		MiddlewareOptions: middlewareopts.NewOptions(),
		LLM: &LLMOptions{
			OpenAI: llmopts.NewOpenAIOptions(),
			Azure:  llmopts.NewAzureOpenAIOptions(),
		},
		Azure: &AzureOptions{
			Search: azureopts.NewSearchOptions(),
			Speech: azureopts.NewSpeechOptions(),
		},
		MilvusOptions:  milvusopts.NewOptions(),
		ZillizOptions:  zillizopts.NewOptions(),
		MongoDBOptions: mongodbopts.NewOptions(),
		RedisOptions:   redisopts.NewOptions(),
		CacheOptions:   cacheopts.NewOptions(),
		RAGOptions:     ragopts.NewOptions(),
		TracingOptions: tracingopts.NewOptions(),
	}
}

// Flags returns flags for a specific server by section name.
func (o *ServerOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.HTTPOptions.AddFlags(fss.FlagSet("http"))
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.MiddlewareOptions.AddFlags(fss.FlagSet("middleware"))
	o.LLM.OpenAI.AddFlags(fss.FlagSet("llm"))
	o.LLM.Azure.AddFlags(fss.FlagSet("llm"))
	o.Azure.Search.AddFlags(fss.FlagSet("azure"))
	o.Azure.Speech.AddFlags(fss.FlagSet("azure"))
	o.MilvusOptions.AddFlags(fss.FlagSet("milvus"))
	o.ZillizOptions.AddFlags(fss.FlagSet("zilliz"))
	o.MongoDBOptions.AddFlags(fss.FlagSet("mongodb"))
	o.RedisOptions.AddFlags(fss.FlagSet("redis"))
	o.CacheOptions.AddFlags(fss.FlagSet("cache"))
	o.RAGOptions.AddFlags(fss.FlagSet("rag"))
	o.TracingOptions.AddFlags(fss.FlagSet("tracing"))
	return fss
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	completers := []struct {
		name     string
		complete func() error
	}{
		{"llm.openai", o.LLM.OpenAI.Complete},
		{"llm.azure", o.LLM.Azure.Complete},
		{"azure.search", o.Azure.Search.Complete},
		{"azure.speech", o.Azure.Speech.Complete},
		{"zilliz", o.ZillizOptions.Complete},
		{"mongodb", o.MongoDBOptions.Complete},
		{"redis", o.RedisOptions.Complete},
		{"rag", o.RAGOptions.Complete},
		{"tracing", o.TracingOptions.Complete},
	}
	for _, c := range completers {
		if err := c.complete(); err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
	}

	// Zilliz 的 REST 与 gRPC 接入共用同一个集群凭据
	switch {
	case o.ZillizOptions.Token == "":
		o.ZillizOptions.Token = o.MilvusOptions.Token
	case o.MilvusOptions.Token == "":
		o.MilvusOptions.Token = o.ZillizOptions.Token
	}
	return nil
}

// Validate checks whether the options in ServerOptions are valid.
func (o *ServerOptions) Validate() error {
	var errs []error

	errs = append(errs, o.HTTPOptions.Validate()...)
	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.MiddlewareOptions.Validate()...)
	errs = append(errs, o.LLM.OpenAI.Validate()...)
	errs = append(errs, o.LLM.Azure.Validate()...)
	errs = append(errs, o.Azure.Search.Validate()...)
	errs = append(errs, o.Azure.Speech.Validate()...)
	errs = append(errs, o.MilvusOptions.Validate()...)
	errs = append(errs, o.ZillizOptions.Validate()...)
	errs = append(errs, o.MongoDBOptions.Validate()...)
	errs = append(errs, o.RedisOptions.Validate()...)
	errs = append(errs, o.CacheOptions.Validate()...)
	errs = append(errs, o.RAGOptions.Validate()...)
	errs = append(errs, o.TracingOptions.Validate()...)

	if o.MiddlewareOptions.RateLimit.UseRedis && !o.RedisOptions.Enabled {
		errs = append(errs, fmt.Errorf("middleware.rate-limit.use-redis requires redis.enabled"))
	}
	if o.CacheOptions.UseRedis && !o.RedisOptions.Enabled {
		errs = append(errs, fmt.Errorf("cache.use-redis requires redis.enabled"))
	}

	return utilerrors.NewAggregate(errs)
}

// Config builds a campusrag.Config based on ServerOptions.
func (o *ServerOptions) Config() (*campusrag.Config, error) {
	return &campusrag.Config{
		HTTPOptions:        o.HTTPOptions,
		LogOptions:         o.LogOptions,
		MiddlewareOptions:  o.MiddlewareOptions,
		OpenAIOptions:      o.LLM.OpenAI,
		AzureOpenAIOptions: o.LLM.Azure,
		SearchOptions:      o.Azure.Search,
		SpeechOptions:      o.Azure.Speech,
		MilvusOptions:      o.MilvusOptions,
		ZillizOptions:      o.ZillizOptions,
		MongoDBOptions:     o.MongoDBOptions,
		RedisOptions:       o.RedisOptions,
		CacheOptions:       o.CacheOptions,
		RAGOptions:         o.RAGOptions,
		TracingOptions:     o.TracingOptions,
	}, nil
}
