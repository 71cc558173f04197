package biz

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/campus-rag/internal/campusrag/store"
	"github.com/kart-io/campus-rag/pkg/infra/pool"
	"github.com/kart-io/campus-rag/pkg/llm"
	"github.com/kart-io/campus-rag/pkg/utils/errors"
)

func newTestRetriever(kb *fakeKnowledge, chat *fakeChat, analytics store.AnalyticsWriter, p Pool) (*Retriever, *fakeEmbedder) {
	emb := &fakeEmbedder{}
	r := NewRetriever(kb, emb, chat, analytics, p, &RetrieverConfig{
		TopK:         10,
		SystemPrompt: "Answer from context.",
		Temperature:  0,
	})
	r.now = func() time.Time { return time.Unix(1700000000, 0) }
	return r, emb
}

func TestRetriever_Answer(t *testing.T) {
	kb := &fakeKnowledge{passages: []store.Passage{{Text: "The library opens at 8am."}}}
	chat := &fakeChat{reply: func(string) (string, error) { return "We open at 8am.", nil }}
	analytics := newFakeAnalytics()
	r, emb := newTestRetriever(kb, chat, analytics, inlinePool{})

	answer, err := r.Answer(context.Background(), "What are your hours?")
	require.NoError(t, err)
	assert.Equal(t, "We open at 8am.", answer)

	require.Equal(t, 1, chat.calls())
	msgs := chat.messages[0]
	assert.Equal(t, llm.System("Answer from context."), msgs[0])
	assert.Equal(t, "Question: What are your hours?\nContext: The library opens at 8am.", msgs[1].Content)
	require.NotNil(t, chat.opts[0].Temperature)
	assert.Zero(t, *chat.opts[0].Temperature)

	// 恰好一次写入，且复用检索时的查询向量
	require.Len(t, analytics.records, 1)
	rec := <-analytics.records
	assert.Equal(t, "What are your hours?", rec.Text)
	assert.Equal(t, []float32{20, 1}, rec.Vector)
	assert.Equal(t, int32(1), emb.calls.Load())
}

func TestRetriever_AnalyticsIgnoresCancellation(t *testing.T) {
	kb := &fakeKnowledge{}
	chat := &fakeChat{reply: upper}
	analytics := newFakeAnalytics()
	r, _ := newTestRetriever(kb, chat, analytics, inlinePool{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Answer(ctx, "parking")
	require.NoError(t, err)
	assert.NoError(t, <-analytics.ctxErrs)
}

func TestRetriever_AnalyticsFailureIsSwallowed(t *testing.T) {
	p, err := pool.NewPool("analytics-test", pool.AnalyticsPool, pool.AnalyticsPoolConfig())
	require.NoError(t, err)
	defer p.Release()

	analytics := newFakeAnalytics()
	analytics.err = stderrors.New("mongo down")
	r, _ := newTestRetriever(&fakeKnowledge{}, &fakeChat{reply: upper}, analytics, p)

	answer, err := r.Answer(context.Background(), "where is the gym")
	require.NoError(t, err)
	assert.Equal(t, "QUESTION: WHERE IS THE GYM\nCONTEXT: ", answer)

	select {
	case rec := <-analytics.records:
		assert.Equal(t, "where is the gym", rec.Text)
	case <-time.After(5 * time.Second):
		t.Fatal("analytics write was not attempted")
	}
}

func TestRetriever_Errors(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		searchErr error
		chatErr   error
		want      *errors.Errno
		wantChats int
	}{
		{name: "空问题", query: "  ", want: errors.ErrInvalidQuery},
		{name: "检索失败", query: "q", searchErr: stderrors.New("timeout"), want: errors.ErrRetrievalFailed},
		{name: "生成失败", query: "q", chatErr: stderrors.New("429"), want: errors.ErrGenerationFailed, wantChats: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &fakeChat{reply: func(string) (string, error) { return "", tt.chatErr }}
			analytics := newFakeAnalytics()
			r, _ := newTestRetriever(&fakeKnowledge{searchErr: tt.searchErr}, chat, analytics, inlinePool{})

			_, err := r.Answer(context.Background(), tt.query)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.wantChats, chat.calls())
			assert.Empty(t, analytics.records)
		})
	}
}

func TestBuildQuestionPrompt(t *testing.T) {
	got := BuildQuestionPrompt("q", []store.Passage{{Text: "a"}, {Text: "b"}})
	assert.Equal(t, "Question: q\nContext: a\n\nb", got)
}
