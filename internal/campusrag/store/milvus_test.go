package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/campus-rag/pkg/component/milvus"
)

type fakeMilvus struct {
	schemas  []*milvus.CollectionSchema
	inserted map[string][]milvus.Row
	lastReq  milvus.SearchRequest
	hits     []milvus.SearchResult
	exprs    []string
	err      error
}

func newFakeMilvus() *fakeMilvus {
	return &fakeMilvus{inserted: map[string][]milvus.Row{}}
}

func (f *fakeMilvus) EnsureCollection(_ context.Context, schema *milvus.CollectionSchema) error {
	f.schemas = append(f.schemas, schema)
	return f.err
}

func (f *fakeMilvus) Insert(_ context.Context, collection string, rows []milvus.Row) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inserted[collection] = append(f.inserted[collection], rows...)
	return make([]int64, len(rows)), nil
}

func (f *fakeMilvus) Search(_ context.Context, req milvus.SearchRequest) ([]milvus.SearchResult, error) {
	f.lastReq = req
	return f.hits, f.err
}

func (f *fakeMilvus) DeleteByExpr(_ context.Context, _ string, expr string) (int64, error) {
	f.exprs = append(f.exprs, expr)
	return 3, f.err
}

func TestMilvusKnowledgeStore(t *testing.T) {
	ctx := context.Background()
	fm := newFakeMilvus()

	s, err := NewMilvusKnowledgeStore(ctx, fm, "innovation_campus", 4)
	require.NoError(t, err)
	require.Len(t, fm.schemas, 1)
	assert.Equal(t, 4, fm.schemas[0].Dimension)
	assert.Len(t, fm.schemas[0].MetaFields, 2)

	ts := time.Unix(1700000000, 0)
	err = s.Upsert(ctx, []Chunk{
		{Text: "a", Vector: []float32{1, 0, 0, 0}, Meta: DocumentMeta{Source: "hours.txt", Origin: OriginFile, Timestamp: ts}},
		{Text: "b", Vector: []float32{0, 1, 0, 0}, Meta: DocumentMeta{Source: "hours.txt", Origin: OriginFile, Timestamp: ts}},
	})
	require.NoError(t, err)
	rows := fm.inserted["innovation_campus"]
	require.Len(t, rows, 2)
	assert.Equal(t, "hours.txt", rows[0].Metadata["source"])
	assert.Equal(t, int64(1700000000), rows[1].Metadata["timestamp"])

	fm.hits = []milvus.SearchResult{{Score: 0.9, Metadata: map[string]any{"text": "open 9-5", "source": "hours.txt"}}}
	passages, err := s.Search(ctx, []float32{1, 0, 0, 0}, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, fm.lastReq.TopK)
	assert.Zero(t, fm.lastReq.Radius)
	require.Len(t, passages, 1)
	assert.Equal(t, Passage{Text: "open 9-5", Source: "hours.txt", Score: float64(float32(0.9))}, passages[0])
}

func TestMilvusKnowledgeStore_Delete(t *testing.T) {
	ctx := context.Background()
	fm := newFakeMilvus()
	s, err := NewMilvusKnowledgeStore(ctx, fm, "kb", 4)
	require.NoError(t, err)

	report, err := s.Delete(ctx, `a "b".txt`)
	require.NoError(t, err)
	assert.Equal(t, DeletionReport{"deleted": int64(3)}, report)

	_, err = s.Delete(ctx, DeleteAll)
	require.NoError(t, err)
	assert.Equal(t, []string{`source == "a \"b\".txt"`, "pk >= 0"}, fm.exprs)
}

func TestMilvusKnowledgeStore_EnsureFails(t *testing.T) {
	fm := newFakeMilvus()
	fm.err = errors.New("unavailable")
	_, err := NewMilvusKnowledgeStore(context.Background(), fm, "kb", 4)
	assert.ErrorContains(t, err, "unavailable")
}

func TestMilvusAnalyticsStore(t *testing.T) {
	ctx := context.Background()
	fm := newFakeMilvus()
	s, err := NewMilvusAnalyticsStore(ctx, fm, "user_queries", 2)
	require.NoError(t, err)

	require.NoError(t, s.Insert(ctx, QueryRecord{Text: "hours?", Vector: []float32{1, 0}, Timestamp: time.Unix(60, 0)}))
	rows := fm.inserted["user_queries"]
	require.Len(t, rows, 1)
	assert.Equal(t, "hours?", rows[0].Text)
	assert.Equal(t, int64(60), rows[0].Metadata["timestamp"])

	fm.hits = []milvus.SearchResult{
		{Metadata: map[string]any{"timestamp": int64(3600)}},
		{Metadata: map[string]any{}},
	}
	got, err := s.SearchTimestamps(ctx, []float32{1, 0}, 0.8, 100)
	require.NoError(t, err)
	assert.Equal(t, 0.8, fm.lastReq.Radius)
	assert.Equal(t, 100, fm.lastReq.TopK)
	assert.Equal(t, []time.Time{time.Unix(3600, 0).UTC()}, got)
}
