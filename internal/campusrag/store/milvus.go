package store

import (
	"context"
	"fmt"
	"time"

	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/kart-io/campus-rag/pkg/component/milvus"
)

const (
	fieldSource    = "source"
	fieldTimestamp = "timestamp"

	textMaxLen = 65535
)

// MilvusClient 是存储层用到的 Milvus 客户端能力，*milvus.Client 实现了它。
type MilvusClient interface {
	EnsureCollection(ctx context.Context, schema *milvus.CollectionSchema) error
	Insert(ctx context.Context, collection string, rows []milvus.Row) ([]int64, error)
	Search(ctx context.Context, req milvus.SearchRequest) ([]milvus.SearchResult, error)
	DeleteByExpr(ctx context.Context, collection, expr string) (int64, error)
}

var _ MilvusClient = (*milvus.Client)(nil)

// MilvusKnowledgeStore 实现基于 Zilliz 的知识库存储。
type MilvusKnowledgeStore struct {
	client     MilvusClient
	collection string
}

// NewMilvusKnowledgeStore 创建知识库存储，集合不存在时自动建立。
func NewMilvusKnowledgeStore(ctx context.Context, client MilvusClient, collection string, dim int) (*MilvusKnowledgeStore, error) {
	err := client.EnsureCollection(ctx, &milvus.CollectionSchema{
		Name:        collection,
		Description: "campus knowledge chunks",
		Dimension:   dim,
		TextMaxLen:  textMaxLen,
		MetaFields: []milvus.MetaField{
			{Name: fieldSource, DataType: entity.FieldTypeVarChar, MaxLen: MaxSourceLen},
			{Name: fieldTimestamp, DataType: entity.FieldTypeInt64},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ensure collection %s: %w", collection, err)
	}
	return &MilvusKnowledgeStore{client: client, collection: collection}, nil
}

// Upsert 批量插入文本块。
func (s *MilvusKnowledgeStore) Upsert(ctx context.Context, chunks []Chunk) error {
	rows := make([]milvus.Row, 0, len(chunks))
	for _, c := range chunks {
		rows = append(rows, milvus.Row{
			Text:   c.Text,
			Vector: c.Vector,
			Metadata: map[string]any{
				fieldSource:    c.Meta.Source,
				fieldTimestamp: c.Meta.Timestamp.Unix(),
			},
		})
	}
	if _, err := s.client.Insert(ctx, s.collection, rows); err != nil {
		return fmt.Errorf("failed to insert into milvus: %w", err)
	}
	return nil
}

// Search 执行向量相似度搜索。
func (s *MilvusKnowledgeStore) Search(ctx context.Context, vector []float32, k int) ([]Passage, error) {
	hits, err := s.client.Search(ctx, milvus.SearchRequest{
		Collection:   s.collection,
		Vector:       vector,
		TopK:         k,
		OutputFields: []string{milvus.FieldText, fieldSource},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search milvus: %w", err)
	}

	passages := make([]Passage, 0, len(hits))
	for _, h := range hits {
		text, _ := h.Metadata[milvus.FieldText].(string)
		source, _ := h.Metadata[fieldSource].(string)
		passages = append(passages, Passage{Text: text, Source: source, Score: float64(h.Score)})
	}
	return passages, nil
}

// Delete 删除 source 等于 id 的全部文本块；id 为 "*" 时清空集合。
func (s *MilvusKnowledgeStore) Delete(ctx context.Context, id string) (DeletionReport, error) {
	expr := fmt.Sprintf("%s == %s", fieldSource, milvus.QuoteString(id))
	if id == DeleteAll {
		expr = milvus.FieldPK + " >= 0"
	}
	n, err := s.client.DeleteByExpr(ctx, s.collection, expr)
	if err != nil {
		return nil, fmt.Errorf("failed to delete from milvus: %w", err)
	}
	return DeletionReport{"deleted": n}, nil
}

// MilvusAnalyticsStore 在 Zilliz 集合中保存用户查询记录。
type MilvusAnalyticsStore struct {
	client     MilvusClient
	collection string
}

// NewMilvusAnalyticsStore 创建查询记录存储，集合不存在时自动建立。
func NewMilvusAnalyticsStore(ctx context.Context, client MilvusClient, collection string, dim int) (*MilvusAnalyticsStore, error) {
	err := client.EnsureCollection(ctx, &milvus.CollectionSchema{
		Name:        collection,
		Description: "user queries",
		Dimension:   dim,
		TextMaxLen:  textMaxLen,
		MetaFields: []milvus.MetaField{
			{Name: fieldTimestamp, DataType: entity.FieldTypeInt64},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ensure collection %s: %w", collection, err)
	}
	return &MilvusAnalyticsStore{client: client, collection: collection}, nil
}

// Insert 写入一条查询记录。
func (s *MilvusAnalyticsStore) Insert(ctx context.Context, record QueryRecord) error {
	_, err := s.client.Insert(ctx, s.collection, []milvus.Row{{
		Text:     record.Text,
		Vector:   record.Vector,
		Metadata: map[string]any{fieldTimestamp: record.Timestamp.Unix()},
	}})
	if err != nil {
		return fmt.Errorf("failed to insert query record: %w", err)
	}
	return nil
}

// SearchTimestamps 范围检索相似度高于 radius 的查询记录，最多 limit 条。
func (s *MilvusAnalyticsStore) SearchTimestamps(ctx context.Context, vector []float32, radius float64, limit int) ([]time.Time, error) {
	hits, err := s.client.Search(ctx, milvus.SearchRequest{
		Collection:   s.collection,
		Vector:       vector,
		TopK:         limit,
		OutputFields: []string{fieldTimestamp},
		Radius:       radius,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search query records: %w", err)
	}

	out := make([]time.Time, 0, len(hits))
	for _, h := range hits {
		ts, ok := h.Metadata[fieldTimestamp].(int64)
		if !ok {
			continue
		}
		out = append(out, time.Unix(ts, 0).UTC())
	}
	return out, nil
}

var (
	_ KnowledgeStore    = (*MilvusKnowledgeStore)(nil)
	_ AnalyticsWriter   = (*MilvusAnalyticsStore)(nil)
	_ AnalyticsSearcher = (*MilvusAnalyticsStore)(nil)
)
