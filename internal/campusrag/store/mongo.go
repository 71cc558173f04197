package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kart-io/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kart-io/campus-rag/pkg/utils/json"
)

// faqField 是 FAQ 文档中保存问题文本的字段。
const faqField = "faqs"

// MongoFAQStore 从 MongoDB 集合读取 FAQ。
type MongoFAQStore struct {
	coll  *mongo.Collection
	limit int64
}

// NewMongoFAQStore 创建 FAQ 存储，limit 为单次读取的最大文档数。
func NewMongoFAQStore(coll *mongo.Collection, limit int64) *MongoFAQStore {
	return &MongoFAQStore{coll: coll, limit: limit}
}

// FetchFAQs 读取全部 FAQ 文档并取出 faqs 字段，空值被跳过。
func (s *MongoFAQStore) FetchFAQs(ctx context.Context) ([]string, error) {
	cursor, err := s.coll.Find(ctx, bson.D{}, options.Find().SetLimit(s.limit))
	if err != nil {
		return nil, fmt.Errorf("find faq documents: %w", err)
	}

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode faq documents: %w", err)
	}

	faqs := make([]string, 0, len(docs))
	for _, doc := range docs {
		if faq := faqText(doc); faq != "" {
			faqs = append(faqs, faq)
		}
	}
	return faqs, nil
}

// faqText 返回文档的 faqs 字段。字段不是字符串时转为 JSON 文本；
// 缺失时整篇文档转为 JSON 文本并记录告警。
func faqText(doc bson.M) string {
	v, ok := doc[faqField]
	if !ok {
		logger.Warnw("faq document has no faqs field", "id", doc["_id"])
		v = doc
	}

	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	default:
		b, err := bson.MarshalExtJSON(bson.M{"v": val}, false, false)
		if err != nil {
			return strings.TrimSpace(fmt.Sprint(val))
		}
		var wrapped struct {
			V json.RawMessage `json:"v"`
		}
		if err := json.Unmarshal(b, &wrapped); err != nil {
			return strings.TrimSpace(fmt.Sprint(val))
		}
		return string(wrapped.V)
	}
}

// MongoAnalyticsStore 在 MongoDB 中保存用户查询记录。
type MongoAnalyticsStore struct {
	coll *mongo.Collection
}

// NewMongoAnalyticsStore 创建查询记录存储。
func NewMongoAnalyticsStore(coll *mongo.Collection) *MongoAnalyticsStore {
	return &MongoAnalyticsStore{coll: coll}
}

// queryDocument 是查询记录在 MongoDB 中的格式。
type queryDocument struct {
	Text      string    `bson:"text"`
	Vector    []float32 `bson:"vector"`
	Timestamp int64     `bson:"timestamp"`
}

// Insert 写入一条查询记录。
func (s *MongoAnalyticsStore) Insert(ctx context.Context, record QueryRecord) error {
	_, err := s.coll.InsertOne(ctx, newQueryDocument(record))
	if err != nil {
		return fmt.Errorf("insert query record: %w", err)
	}
	return nil
}

func newQueryDocument(record QueryRecord) queryDocument {
	ts := record.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return queryDocument{Text: record.Text, Vector: record.Vector, Timestamp: ts.Unix()}
}

var (
	_ FAQStore        = (*MongoFAQStore)(nil)
	_ AnalyticsWriter = (*MongoAnalyticsStore)(nil)
)
