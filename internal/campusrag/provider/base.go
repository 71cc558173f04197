package provider

import (
	"context"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/campus-rag/internal/campusrag/biz"
	"github.com/kart-io/campus-rag/internal/campusrag/store"
	"github.com/kart-io/campus-rag/pkg/utils/errors"
)

// base 实现两个租户共有的操作。
type base struct {
	name string
	Components
}

func (b *base) Name() string {
	return b.name
}

func (b *base) AnswerQuery(ctx context.Context, query string) (string, error) {
	return b.Retriever.Answer(ctx, query)
}

func (b *base) GetFAQs(ctx context.Context) ([]string, error) {
	return b.FAQs.Get(ctx)
}

func (b *base) TranslateFAQs(ctx context.Context, lang string) ([]string, error) {
	faqs, err := b.FAQs.Get(ctx)
	if err != nil {
		return nil, err
	}
	return b.Translator.Translate(ctx, faqs, lang)
}

func (b *base) TranscribeAudio(ctx context.Context, audio []byte, filename string) (string, error) {
	return b.Transcriber.Transcribe(ctx, audio, filename)
}

func (b *base) IngestDocument(ctx context.Context, data []byte, filename string) (*biz.IngestResult, error) {
	return b.Ingester.IngestDocument(ctx, data, filename)
}

func (b *base) IngestURL(ctx context.Context, url string) (*biz.IngestResult, error) {
	return b.Ingester.IngestURL(ctx, url)
}

func (b *base) DeleteDocuments(ctx context.Context, id string) (store.DeletionReport, error) {
	if id == "" {
		return nil, errors.ErrMissingParam.WithMessage("id is required")
	}
	report, err := b.Knowledge.Delete(ctx, id)
	if err != nil {
		return nil, errors.ErrDocumentDeleteFailed.WithCause(err)
	}
	return report, nil
}

func (b *base) MaxAudioSize() int64 {
	return b.Transcriber.MaxSize()
}

func (b *base) Close() error {
	var errs []error
	for i := len(b.Closers) - 1; i >= 0; i-- {
		if err := b.Closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return utilerrors.NewAggregate(errs)
}

// AzureProvider 是 wichita 租户：Azure OpenAI、Azure AI Search、MongoDB 与 Azure Speech。
// 不支持查询分析。
type AzureProvider struct {
	base
}

// NewAzureProvider 用已初始化的组件组装 Azure 租户。
func NewAzureProvider(name string, c Components) *AzureProvider {
	return &AzureProvider{base: base{name: name, Components: c}}
}

// SearchData 在 Azure 租户上未实现。
func (p *AzureProvider) SearchData(context.Context, string, int, float64) (*biz.AnalyticsResult, error) {
	return nil, errors.ErrNotImplemented.WithMessage("search_data is not supported by the azure provider")
}

// ZillizProvider 是 wsu 租户：OpenAI 与 Zilliz Cloud。
type ZillizProvider struct {
	base
	analytics *biz.Analytics
}

// NewZillizProvider 用已初始化的组件组装 Zilliz 租户。
func NewZillizProvider(name string, c Components, analytics *biz.Analytics) *ZillizProvider {
	return &ZillizProvider{base: base{name: name, Components: c}, analytics: analytics}
}

// SearchData 在 user_queries 集合中做范围检索并按小时聚合。
func (p *ZillizProvider) SearchData(ctx context.Context, query string, limit int, radius float64) (*biz.AnalyticsResult, error) {
	return p.analytics.Search(ctx, query, limit, radius)
}

var (
	_ Provider = (*AzureProvider)(nil)
	_ Provider = (*ZillizProvider)(nil)
)
