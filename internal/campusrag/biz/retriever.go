package biz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kart-io/campus-rag/internal/campusrag/store"
	"github.com/kart-io/campus-rag/internal/pkg/rag/textutil"
	ctxlog "github.com/kart-io/campus-rag/pkg/infra/logger"
	"github.com/kart-io/campus-rag/pkg/infra/tracing"
	"github.com/kart-io/campus-rag/pkg/llm"
	"github.com/kart-io/campus-rag/pkg/utils/errors"
)

// analyticsWriteTimeout 限制单次查询记录写入的时长。
const analyticsWriteTimeout = 30 * time.Second

// RetrieverConfig 检索问答配置。
type RetrieverConfig struct {
	// TopK 每个问题检索的片段数。
	TopK int
	// SystemPrompt 检索链的系统提示词。
	SystemPrompt string
	// Temperature 补全温度。
	Temperature float64
}

// Retriever 组合向量检索与补全模型回答问题，并异步记录查询。
type Retriever struct {
	store     store.KnowledgeStore
	embedder  llm.Embedder
	chat      llm.ChatModel
	analytics store.AnalyticsWriter
	pool      Pool
	config    *RetrieverConfig
	now       func() time.Time
}

// NewRetriever 创建检索器。analytics 为 nil 时不记录查询。
func NewRetriever(
	knowledge store.KnowledgeStore,
	embedder llm.Embedder,
	chat llm.ChatModel,
	analytics store.AnalyticsWriter,
	pool Pool,
	config *RetrieverConfig,
) *Retriever {
	return &Retriever{
		store:     knowledge,
		embedder:  embedder,
		chat:      chat,
		analytics: analytics,
		pool:      pool,
		config:    config,
		now:       time.Now,
	}
}

// Answer 检索上下文并生成回答。
// 顺序：向量检索 -> 补全 -> 异步写入查询记录（复用检索时的查询向量）。
func (r *Retriever) Answer(ctx context.Context, query string) (_ string, err error) {
	ctx, span := tracing.Start(ctx, "biz.Retriever.Answer", tracing.Int("rag.top_k", r.config.TopK))
	defer func() { tracing.End(span, err) }()

	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.ErrInvalidQuery
	}

	vector, err := r.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return "", errors.ErrRetrievalFailed.WithCause(fmt.Errorf("embed query: %w", err))
	}

	passages, err := r.store.Search(ctx, vector, r.config.TopK)
	if err != nil {
		return "", errors.ErrRetrievalFailed.WithCause(err)
	}
	ctxlog.GetLogger(ctx).Debugw("context retrieved", "query", textutil.TruncateString(query, 80), "passages", len(passages))

	answer, err := r.chat.Chat(ctx, []llm.Message{
		llm.System(r.config.SystemPrompt),
		llm.User(BuildQuestionPrompt(query, passages)),
	}, llm.WithTemperature(r.config.Temperature))
	if err != nil {
		return "", errors.ErrGenerationFailed.WithCause(err)
	}

	r.record(ctx, query, vector)
	return answer, nil
}

// BuildQuestionPrompt 渲染用户轮：问题加上以空行分隔的上下文片段。
func BuildQuestionPrompt(query string, passages []store.Passage) string {
	texts := make([]string, 0, len(passages))
	for _, p := range passages {
		texts = append(texts, p.Text)
	}
	return fmt.Sprintf("Question: %s\nContext: %s", query, strings.Join(texts, "\n\n"))
}

// record 在 analytics 池中写入查询记录。写入脱离请求的取消，失败只记录日志。
func (r *Retriever) record(ctx context.Context, query string, vector []float32) {
	if r.analytics == nil {
		return
	}

	rec := store.QueryRecord{Text: query, Vector: vector, Timestamp: r.now()}
	bg := context.WithoutCancel(ctx)
	err := r.pool.Submit(func() {
		wctx, cancel := context.WithTimeout(bg, analyticsWriteTimeout)
		defer cancel()
		if err := r.analytics.Insert(wctx, rec); err != nil {
			ctxlog.GetLogger(bg).Errorw("failed to store user query", "query", textutil.TruncateString(query, 80), "error", err.Error())
		}
	})
	if err != nil {
		ctxlog.GetLogger(ctx).Warnw("user query dropped", "error", err.Error())
	}
}
