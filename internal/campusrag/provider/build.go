package provider

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"
	"k8s.io/utils/clock"

	"github.com/kart-io/campus-rag/internal/campusrag/biz"
	"github.com/kart-io/campus-rag/internal/campusrag/store"
	"github.com/kart-io/campus-rag/pkg/component/azuresearch"
	"github.com/kart-io/campus-rag/pkg/component/milvus"
	"github.com/kart-io/campus-rag/pkg/component/mongodb"
	"github.com/kart-io/campus-rag/pkg/llm"
	"github.com/kart-io/campus-rag/pkg/llm/openai"
	azureopts "github.com/kart-io/campus-rag/pkg/options/azure"
	cacheopts "github.com/kart-io/campus-rag/pkg/options/cache"
	llmopts "github.com/kart-io/campus-rag/pkg/options/llm"
	milvusopts "github.com/kart-io/campus-rag/pkg/options/milvus"
	mongodbopts "github.com/kart-io/campus-rag/pkg/options/mongodb"
	ragopts "github.com/kart-io/campus-rag/pkg/options/rag"
	zillizopts "github.com/kart-io/campus-rag/pkg/options/zilliz"
	azurespeech "github.com/kart-io/campus-rag/pkg/speech/azure"
)

// Shared 是两个租户共用的进程级资源。
type Shared struct {
	RAG   *ragopts.Options
	Cache *cacheopts.Options
	// Redis 为 nil 时 embedding 缓存只使用内存层。
	Redis goredis.UniversalClient

	IngestPool    biz.Pool
	TranslatePool biz.Pool
	AnalyticsPool biz.Pool
}

// components 组装与后端无关的业务组件。
func (s *Shared) components(
	knowledge store.KnowledgeStore,
	analytics store.AnalyticsWriter,
	faqs store.FAQStore,
	embedder llm.Embedder,
	chat llm.ChatModel,
	transcriber llm.Transcriber,
) Components {
	return Components{
		Retriever: biz.NewRetriever(knowledge, embedder, chat, analytics, s.AnalyticsPool, &biz.RetrieverConfig{
			TopK:         s.RAG.TopK,
			SystemPrompt: s.RAG.SystemPrompt,
			Temperature:  s.RAG.Temperature,
		}),
		Ingester: biz.NewIngester(knowledge, embedder, s.IngestPool, &biz.IngesterConfig{
			ChunkSize:    s.RAG.ChunkSize,
			ChunkOverlap: s.RAG.ChunkOverlap,
			FetchTimeout: s.RAG.FetchTimeout,
		}),
		FAQs:        biz.NewFAQCache(faqs, s.RAG.FAQTTL, clock.RealClock{}),
		Translator:  biz.NewTranslator(chat, s.TranslatePool),
		Transcriber: biz.NewAudioTranscriber(transcriber, s.RAG.MaxAudioSize),
		Knowledge:   knowledge,
	}
}

// AzureConfig 是 wichita 租户的后端配置。
type AzureConfig struct {
	OpenAI *llmopts.AzureOpenAIOptions
	Search *azureopts.SearchOptions
	Speech *azureopts.SpeechOptions
	Mongo  *mongodbopts.Options
}

// NewAzure 初始化 wichita 租户的全部后端，全部成功后才返回。
func NewAzure(ctx context.Context, name string, cfg *AzureConfig, shared *Shared) (*AzureProvider, error) {
	// 1. Azure OpenAI
	model, err := openai.NewAzure(cfg.OpenAI)
	if err != nil {
		return nil, fmt.Errorf("azure openai: %w", err)
	}
	embedder := llm.NewCachedEmbedder(model, shared.Redis, shared.Cache)

	// 2. Azure AI Search，探测索引可达
	index, err := azuresearch.New(cfg.Search)
	if err != nil {
		return nil, err
	}
	if _, err := index.ListIDs(ctx, 1); err != nil {
		return nil, fmt.Errorf("probe azure search index %s: %w", cfg.Search.Index, err)
	}

	// 3. Azure Speech
	speech, err := azurespeech.New(cfg.Speech)
	if err != nil {
		return nil, err
	}

	// 4. MongoDB（FAQ 与查询记录）
	mongo, err := mongodb.New(ctx, cfg.Mongo)
	if err != nil {
		return nil, err
	}

	c := shared.components(
		store.NewAzureKnowledgeStore(index),
		store.NewMongoAnalyticsStore(mongo.Collection(cfg.Mongo.AnalyticsCollection)),
		store.NewMongoFAQStore(mongo.Collection(cfg.Mongo.FAQCollection), cfg.Mongo.FAQLimit),
		embedder, model, speech,
	)
	c.Closers = append(c.Closers, mongo.Close)

	logger.Infow("Provider initialized",
		"tenant", name,
		"llm", model.Name(),
		"index", cfg.Search.Index,
		"mongo.database", cfg.Mongo.Database,
	)
	return NewAzureProvider(name, c), nil
}

// ZillizConfig 是 wsu 租户的后端配置。
type ZillizConfig struct {
	OpenAI *llmopts.OpenAIOptions
	Milvus *milvusopts.Options
	Zilliz *zillizopts.Options
}

// NewZilliz 初始化 wsu 租户的全部后端，全部成功后才返回。
func NewZilliz(ctx context.Context, name string, cfg *ZillizConfig, shared *Shared) (*ZillizProvider, error) {
	// 1. OpenAI（补全、向量与 Whisper 转写）
	model, err := openai.New(cfg.OpenAI)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	embedder := llm.NewCachedEmbedder(model, shared.Redis, shared.Cache)

	// 2. Zilliz 向量库
	client, err := milvus.New(ctx, cfg.Milvus)
	if err != nil {
		return nil, err
	}
	closeMilvus := func() error { return client.Close(context.Background()) }

	knowledge, err := store.NewMilvusKnowledgeStore(ctx, client, cfg.Milvus.KnowledgeCollection, cfg.Milvus.Dimension)
	if err != nil {
		_ = closeMilvus()
		return nil, err
	}
	analytics, err := store.NewMilvusAnalyticsStore(ctx, client, cfg.Milvus.AnalyticsCollection, cfg.Milvus.Dimension)
	if err != nil {
		_ = closeMilvus()
		return nil, err
	}

	c := shared.components(knowledge, analytics, store.NewZillizFAQStore(cfg.Zilliz), embedder, model, model)
	c.Closers = append(c.Closers, closeMilvus)

	logger.Infow("Provider initialized",
		"tenant", name,
		"llm", model.Name(),
		"collection", cfg.Milvus.KnowledgeCollection,
	)
	return NewZillizProvider(name, c, biz.NewAnalytics(embedder, analytics)), nil
}
