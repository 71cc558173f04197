package store

import (
	"context"
	"time"
)

// MaxSourceLen 是文档来源（文件名或 URL）的最大字节数，与 Milvus source 字段长度一致。
const MaxSourceLen = 2048

// Origin 标识文档来源类型。
type Origin string

const (
	OriginFile Origin = "file"
	OriginURL  Origin = "url"
)

// DocumentMeta 描述一次入库的文档，同一文档的所有块共享。
type DocumentMeta struct {
	// Source 为文件名或 URL，删除文档时按它匹配。
	Source    string
	Origin    Origin
	Timestamp time.Time
}

// Fields 返回写入向量库的元数据字段。
// 文件: {filename, file_path, timestamp}；URL: {url, timestamp}。
func (m DocumentMeta) Fields() map[string]any {
	ts := m.Timestamp.Unix()
	if m.Origin == OriginURL {
		return map[string]any{"url": m.Source, "timestamp": ts}
	}
	return map[string]any{"filename": m.Source, "file_path": m.Source, "timestamp": ts}
}

// Chunk 是待写入知识库的文本块。
type Chunk struct {
	Text   string
	Vector []float32
	Meta   DocumentMeta
}

// Passage 是检索命中的上下文片段。
type Passage struct {
	Text   string
	Source string
	Score  float64
}

// DeletionReport 是文档删除结果，结构随后端不同。
type DeletionReport map[string]any

// DeleteAll 作为删除 ID 时表示清空知识库。
const DeleteAll = "*"

// KnowledgeStore 定义知识库向量存储接口。
type KnowledgeStore interface {
	// Upsert 以单次调用写入全部文本块。
	Upsert(ctx context.Context, chunks []Chunk) error
	// Search 返回与向量最相近的 k 个片段。
	Search(ctx context.Context, vector []float32, k int) ([]Passage, error)
	// Delete 删除文档；id 为 DeleteAll 时清空。
	Delete(ctx context.Context, id string) (DeletionReport, error)
}

// QueryRecord 是一条用户查询记录。
type QueryRecord struct {
	Text      string
	Vector    []float32
	Timestamp time.Time
}

// AnalyticsWriter 持久化用户查询记录。
type AnalyticsWriter interface {
	Insert(ctx context.Context, record QueryRecord) error
}

// AnalyticsSearcher 在查询记录中做范围检索，返回命中记录的时间戳。
type AnalyticsSearcher interface {
	SearchTimestamps(ctx context.Context, vector []float32, radius float64, limit int) ([]time.Time, error)
}

// FAQStore 读取 FAQ 列表。
type FAQStore interface {
	FetchFAQs(ctx context.Context) ([]string, error)
}
