package biz

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/kart-io/campus-rag/internal/campusrag/store"
	"github.com/kart-io/campus-rag/internal/pkg/rag/docutil"
	"github.com/kart-io/campus-rag/internal/pkg/rag/textutil"
	ctxlog "github.com/kart-io/campus-rag/pkg/infra/logger"
	"github.com/kart-io/campus-rag/pkg/infra/tracing"
	"github.com/kart-io/campus-rag/pkg/llm"
	"github.com/kart-io/campus-rag/pkg/utils/errors"
	"github.com/kart-io/campus-rag/pkg/utils/httpclient"
)

// embedBatchSize 单次 embedding 请求的最大文本数。
const embedBatchSize = 64

// IngesterConfig 入库配置。
type IngesterConfig struct {
	ChunkSize    int
	ChunkOverlap int
	// FetchTimeout 限制抓取 URL 的时长。
	FetchTimeout time.Duration
}

// IngestResult 是入库结果。
type IngestResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Chunks  int    `json:"chunks"`
}

// Ingester 提取文本、切块、向量化并写入知识库。
type Ingester struct {
	store    store.KnowledgeStore
	embedder llm.Embedder
	splitter *textutil.RecursiveSplitter
	pool     Pool
	http     *httpclient.Client
	now      func() time.Time
}

// NewIngester 创建入库器。
func NewIngester(knowledge store.KnowledgeStore, embedder llm.Embedder, pool Pool, config *IngesterConfig) *Ingester {
	return &Ingester{
		store:    knowledge,
		embedder: embedder,
		splitter: textutil.NewRecursiveSplitter(config.ChunkSize, config.ChunkOverlap),
		pool:     pool,
		http:     httpclient.NewClient(config.FetchTimeout, 0),
		now:      time.Now,
	}
}

// IngestDocument 按扩展名提取上传文件的文本并入库。
func (i *Ingester) IngestDocument(ctx context.Context, data []byte, filename string) (*IngestResult, error) {
	text, err := docutil.ExtractText(filename, data)
	if err != nil {
		if stderrors.Is(err, docutil.ErrEmptyText) {
			return nil, errors.ErrEmptyExtractedText.WithCause(err)
		}
		return nil, errors.ErrUnreadableFile.WithCause(err)
	}

	meta := store.DocumentMeta{Source: filename, Origin: store.OriginFile, Timestamp: i.now()}
	n, err := i.ingest(ctx, text, meta)
	if err != nil {
		return nil, err
	}

	ctxlog.GetLogger(ctx).Infow("document ingested", "filename", filename, "chunks", n)
	return &IngestResult{
		Status:  "success",
		Message: fmt.Sprintf("File '%s' ingested successfully.", filename),
		Chunks:  n,
	}, nil
}

// IngestURL 抓取网页的可见文本并入库。
func (i *Ingester) IngestURL(ctx context.Context, url string) (*IngestResult, error) {
	text, err := docutil.FetchURL(ctx, i.http, url)
	if err != nil {
		if stderrors.Is(err, docutil.ErrEmptyText) {
			return nil, errors.ErrEmptyExtractedText.WithCause(err)
		}
		return nil, errors.ErrFetchURLFailed.WithCause(err)
	}

	meta := store.DocumentMeta{Source: url, Origin: store.OriginURL, Timestamp: i.now()}
	n, err := i.ingest(ctx, text, meta)
	if err != nil {
		return nil, err
	}

	ctxlog.GetLogger(ctx).Infow("url ingested", "url", url, "chunks", n)
	return &IngestResult{
		Status:  "success",
		Message: fmt.Sprintf("URL '%s' ingested successfully.", url),
		Chunks:  n,
	}, nil
}

// ingest 切块、向量化，并在 ingest 池中以单次调用写入全部块。
func (i *Ingester) ingest(ctx context.Context, text string, meta store.DocumentMeta) (_ int, err error) {
	ctx, span := tracing.Start(ctx, "biz.Ingester.ingest",
		tracing.String("ingest.source", meta.Source),
		tracing.String("ingest.origin", string(meta.Origin)),
	)
	defer func() { tracing.End(span, err) }()

	texts := i.splitter.Split(text)
	if len(texts) == 0 {
		return 0, errors.ErrEmptyExtractedText
	}
	span.SetAttributes(tracing.Int("ingest.chunks", len(texts)))

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		batch, err := i.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return 0, errors.ErrIngestFailed.WithCause(fmt.Errorf("embed chunks: %w", err))
		}
		vectors = append(vectors, batch...)
	}

	chunks := make([]store.Chunk, len(texts))
	for k, t := range texts {
		chunks[k] = store.Chunk{Text: t, Vector: vectors[k], Meta: meta}
	}

	err = i.pool.SubmitWait(ctx, func() error {
		return i.store.Upsert(ctx, chunks)
	})
	if err != nil {
		return 0, errors.ErrIngestFailed.WithCause(err)
	}
	return len(chunks), nil
}
