package store

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/kart-io/campus-rag/pkg/component/azuresearch"
	"github.com/kart-io/campus-rag/pkg/utils/id"
	"github.com/kart-io/campus-rag/pkg/utils/json"
)

const (
	// Azure AI Search 单次 search 最多返回 1000 条。
	azureListTop     = 1000
	azureDeleteBatch = 100
)

// SearchIndex 是存储层用到的 Azure AI Search 索引能力，*azuresearch.Client 实现了它。
type SearchIndex interface {
	Upload(ctx context.Context, docs []azuresearch.Document) ([]azuresearch.IndexResult, error)
	Delete(ctx context.Context, keys []string) ([]azuresearch.IndexResult, error)
	VectorSearch(ctx context.Context, vector []float32, k int) ([]azuresearch.SearchHit, error)
	ListIDs(ctx context.Context, top int) ([]string, error)
}

var _ SearchIndex = (*azuresearch.Client)(nil)

// AzureKnowledgeStore 实现基于 Azure AI Search 的知识库存储。
type AzureKnowledgeStore struct {
	index SearchIndex
}

// NewAzureKnowledgeStore 创建 Azure AI Search 知识库存储。
func NewAzureKnowledgeStore(index SearchIndex) *AzureKnowledgeStore {
	return &AzureKnowledgeStore{index: index}
}

// Upsert 上传全部文本块，每块使用随机 hex 作为 key。
func (s *AzureKnowledgeStore) Upsert(ctx context.Context, chunks []Chunk) error {
	docs := make([]azuresearch.Document, 0, len(chunks))
	for _, c := range chunks {
		meta, err := json.Marshal(c.Meta.Fields())
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		docs = append(docs, azuresearch.Document{
			ID:            id.NewHex(),
			Content:       c.Text,
			ContentVector: c.Vector,
			Metadata:      string(meta),
		})
	}

	results, err := s.index.Upload(ctx, docs)
	if err != nil {
		return err
	}
	if failed := failedResults(results); len(failed) > 0 {
		return fmt.Errorf("azure search rejected %d of %d documents: %s", len(failed), len(docs), describe(failed[0]))
	}
	return nil
}

// Search 执行向量检索。
func (s *AzureKnowledgeStore) Search(ctx context.Context, vector []float32, k int) ([]Passage, error) {
	hits, err := s.index.VectorSearch(ctx, vector, k)
	if err != nil {
		return nil, err
	}

	passages := make([]Passage, 0, len(hits))
	for _, h := range hits {
		passages = append(passages, Passage{
			Text:   h.Content,
			Source: sourceFromMetadata(h.Metadata),
			Score:  h.Score,
		})
	}
	return passages, nil
}

// deletedEntry 与 Azure SDK 的删除结果序列化格式一致。
type deletedEntry struct {
	Key          string  `json:"key"`
	Succeeded    bool    `json:"succeeded"`
	ErrorMessage *string `json:"errorMessage"`
	StatusCode   int     `json:"statusCode"`
}

// Delete 按 key 删除文档；id 为 "*" 时列出全部 key 后按 100 个一批删除。
func (s *AzureKnowledgeStore) Delete(ctx context.Context, docID string) (DeletionReport, error) {
	if docID != DeleteAll {
		results, err := s.index.Delete(ctx, []string{docID})
		if err != nil {
			return nil, err
		}
		return DeletionReport{"deleted": toDeletedEntries(results)}, nil
	}

	ids, err := s.index.ListIDs(ctx, azureListTop)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return DeletionReport{"message": "No documents found."}, nil
	}

	batches := make([][]deletedEntry, 0, (len(ids)+azureDeleteBatch-1)/azureDeleteBatch)
	for start := 0; start < len(ids); start += azureDeleteBatch {
		end := min(start+azureDeleteBatch, len(ids))
		results, err := s.index.Delete(ctx, ids[start:end])
		if err != nil {
			return nil, fmt.Errorf("delete batch %d: %w", len(batches), err)
		}
		batches = append(batches, toDeletedEntries(results))
	}
	return DeletionReport{"deleted_batches": batches, "total_deleted": len(ids)}, nil
}

func toDeletedEntries(results []azuresearch.IndexResult) []deletedEntry {
	out := make([]deletedEntry, 0, len(results))
	for _, r := range results {
		out = append(out, deletedEntry(r))
	}
	return out
}

func failedResults(results []azuresearch.IndexResult) []azuresearch.IndexResult {
	var failed []azuresearch.IndexResult
	for _, r := range results {
		if !r.Succeeded {
			failed = append(failed, r)
		}
	}
	return failed
}

func describe(r azuresearch.IndexResult) string {
	msg := "unknown error"
	if r.ErrorMessage != nil {
		msg = *r.ErrorMessage
	}
	return fmt.Sprintf("key=%s status=%d %s", r.Key, r.StatusCode, msg)
}

// sourceFromMetadata 从 metadata JSON 中取出 filename 或 url。
func sourceFromMetadata(raw string) string {
	if raw == "" {
		return ""
	}
	var meta struct {
		Filename string `json:"filename"`
		URL      string `json:"url"`
	}
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		logger.Debugw("unparsable document metadata", "metadata", raw, "error", err.Error())
		return ""
	}
	if meta.Filename != "" {
		return meta.Filename
	}
	return meta.URL
}

var _ KnowledgeStore = (*AzureKnowledgeStore)(nil)
