// Package provider 定义租户后端的统一能力集合及其请求级绑定。
//
// 每个租户对应一个 Provider 实现，进程启动时全部构造完成，
// 之后只读共享；路由在进入业务逻辑前把请求绑定到其中一个。
package provider

import (
	"context"

	"github.com/kart-io/campus-rag/internal/campusrag/biz"
	"github.com/kart-io/campus-rag/internal/campusrag/store"
)

// Provider 是一个租户后端暴露给路由的全部操作。
type Provider interface {
	// Name 返回租户名。
	Name() string
	// AnswerQuery 检索上下文并生成回答。
	AnswerQuery(ctx context.Context, query string) (string, error)
	// GetFAQs 返回（可能来自缓存的）FAQ 列表。
	GetFAQs(ctx context.Context) ([]string, error)
	// TranslateFAQs 将 FAQ 翻译为目标语言。
	TranslateFAQs(ctx context.Context, lang string) ([]string, error)
	// TranscribeAudio 转写音频。
	TranscribeAudio(ctx context.Context, audio []byte, filename string) (string, error)
	// SearchData 按小时统计与 query 相似的历史查询。
	SearchData(ctx context.Context, query string, limit int, radius float64) (*biz.AnalyticsResult, error)
	// IngestDocument 入库上传的文件。
	IngestDocument(ctx context.Context, data []byte, filename string) (*biz.IngestResult, error)
	// IngestURL 入库网页。
	IngestURL(ctx context.Context, url string) (*biz.IngestResult, error)
	// DeleteDocuments 删除文档；id 为 "*" 时清空知识库。
	DeleteDocuments(ctx context.Context, id string) (store.DeletionReport, error)
	// MaxAudioSize 返回允许转写的最大音频字节数。
	MaxAudioSize() int64
	// Close 释放后端连接。
	Close() error
}

// Components 是组装一个 Provider 所需的业务组件。
type Components struct {
	Retriever   *biz.Retriever
	Ingester    *biz.Ingester
	FAQs        *biz.FAQCache
	Translator  *biz.Translator
	Transcriber *biz.AudioTranscriber
	Knowledge   store.KnowledgeStore
	// Closers 在 Close 时按注册的逆序调用。
	Closers []func() error
}
