package provider

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/kart-io/campus-rag/internal/campusrag/biz"
	"github.com/kart-io/campus-rag/internal/campusrag/store"
	"github.com/kart-io/campus-rag/pkg/llm"
	"github.com/kart-io/campus-rag/pkg/utils/errors"
)

type syncPool struct{}

func (syncPool) Submit(task func()) error { task(); return nil }

func (syncPool) SubmitWait(_ context.Context, task func() error) error { return task() }

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (s stubEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	v, _ := s.Embed(ctx, []string{text})
	return v[0], nil
}

func (stubEmbedder) Model() string { return "stub" }

type stubChat struct{ calls atomic.Int32 }

func (s *stubChat) Chat(_ context.Context, msgs []llm.Message, _ ...llm.ChatOption) (string, error) {
	s.calls.Add(1)
	return "T(" + msgs[len(msgs)-1].Content + ")", nil
}

type stubKnowledge struct {
	deleteErr error
	deleted   []string
}

func (*stubKnowledge) Upsert(context.Context, []store.Chunk) error { return nil }

func (*stubKnowledge) Search(context.Context, []float32, int) ([]store.Passage, error) {
	return []store.Passage{{Text: "ctx"}}, nil
}

func (s *stubKnowledge) Delete(_ context.Context, id string) (store.DeletionReport, error) {
	s.deleted = append(s.deleted, id)
	if s.deleteErr != nil {
		return nil, s.deleteErr
	}
	return store.DeletionReport{"deleted": int64(1)}, nil
}

type stubFAQs struct{ faqs []string }

func (s stubFAQs) FetchFAQs(context.Context) ([]string, error) { return s.faqs, nil }

type stubSearcher struct{}

func (stubSearcher) SearchTimestamps(context.Context, []float32, float64, int) ([]time.Time, error) {
	return []time.Time{time.Unix(7200, 0)}, nil
}

type stubTranscriber struct{}

func (stubTranscriber) Transcribe(context.Context, []byte, string) (string, error) {
	return "hello", nil
}

func newComponents(kb store.KnowledgeStore, chat llm.ChatModel) Components {
	emb := stubEmbedder{}
	return Components{
		Retriever:   biz.NewRetriever(kb, emb, chat, nil, syncPool{}, &biz.RetrieverConfig{TopK: 10, SystemPrompt: "sys"}),
		Ingester:    biz.NewIngester(kb, emb, syncPool{}, &biz.IngesterConfig{ChunkSize: 100, ChunkOverlap: 10, FetchTimeout: time.Second}),
		FAQs:        biz.NewFAQCache(stubFAQs{faqs: []string{"Where is parking?"}}, time.Minute, clocktesting.NewFakePassiveClock(time.Now())),
		Translator:  biz.NewTranslator(chat, syncPool{}),
		Transcriber: biz.NewAudioTranscriber(stubTranscriber{}, 16),
		Knowledge:   kb,
	}
}

func TestProviders_SharedOperations(t *testing.T) {
	ctx := context.Background()
	for _, p := range []Provider{
		NewAzureProvider("wichita", newComponents(&stubKnowledge{}, &stubChat{})),
		NewZillizProvider("wsu", newComponents(&stubKnowledge{}, &stubChat{}), biz.NewAnalytics(stubEmbedder{}, stubSearcher{})),
	} {
		t.Run(p.Name(), func(t *testing.T) {
			answer, err := p.AnswerQuery(ctx, "hours?")
			require.NoError(t, err)
			assert.Equal(t, "T(Question: hours?\nContext: ctx)", answer)

			faqs, err := p.GetFAQs(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"Where is parking?"}, faqs)

			translated, err := p.TranslateFAQs(ctx, "es")
			require.NoError(t, err)
			assert.Equal(t, []string{"T(Where is parking?)"}, translated)

			text, err := p.TranscribeAudio(ctx, []byte("wav"), "a.wav")
			require.NoError(t, err)
			assert.Equal(t, "hello", text)
			assert.Equal(t, int64(16), p.MaxAudioSize())

			_, err = p.TranscribeAudio(ctx, make([]byte, 17), "a.wav")
			assert.ErrorIs(t, err, errors.ErrAudioTooLarge)

			res, err := p.IngestDocument(ctx, []byte("campus map"), "map.txt")
			require.NoError(t, err)
			assert.Equal(t, 1, res.Chunks)
		})
	}
}

func TestProviders_SearchData(t *testing.T) {
	azure := NewAzureProvider("wichita", newComponents(&stubKnowledge{}, &stubChat{}))
	_, err := azure.SearchData(context.Background(), "q", 100, 0.8)
	assert.ErrorIs(t, err, errors.ErrNotImplemented)
	assert.Equal(t, http.StatusNotImplemented, errors.FromError(err).HTTPStatus())

	zilliz := NewZillizProvider("wsu", newComponents(&stubKnowledge{}, &stubChat{}), biz.NewAnalytics(stubEmbedder{}, stubSearcher{}))
	res, err := zilliz.SearchData(context.Background(), "q", 100, 0.8)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Frequency)
	assert.Equal(t, "1970-01-01T02:00:00Z", res.Result[0].Datetime)
}

func TestProvider_TranslateEnglishSkipsModel(t *testing.T) {
	chat := &stubChat{}
	p := NewAzureProvider("wichita", newComponents(&stubKnowledge{}, chat))
	got, err := p.TranslateFAQs(context.Background(), "EN")
	require.NoError(t, err)
	assert.Equal(t, []string{"Where is parking?"}, got)
	assert.Zero(t, chat.calls.Load())
}

func TestProvider_DeleteDocuments(t *testing.T) {
	kb := &stubKnowledge{}
	p := NewZillizProvider("wsu", newComponents(kb, &stubChat{}), nil)

	_, err := p.DeleteDocuments(context.Background(), "")
	assert.ErrorIs(t, err, errors.ErrMissingParam)

	report, err := p.DeleteDocuments(context.Background(), "map.txt")
	require.NoError(t, err)
	assert.Equal(t, store.DeletionReport{"deleted": int64(1)}, report)

	kb.deleteErr = stderrors.New("timeout")
	_, err = p.DeleteDocuments(context.Background(), "*")
	assert.ErrorIs(t, err, errors.ErrDocumentDeleteFailed)
	assert.Equal(t, []string{"map.txt", "*"}, kb.deleted)
}

func TestProvider_CloseOrder(t *testing.T) {
	var order []string
	c := newComponents(&stubKnowledge{}, &stubChat{})
	c.Closers = []func() error{
		func() error { order = append(order, "first"); return stderrors.New("first failed") },
		func() error { order = append(order, "second"); return nil },
	}
	err := NewAzureProvider("wichita", c).Close()
	assert.ErrorContains(t, err, "first failed")
	assert.Equal(t, []string{"second", "first"}, order)
}

func TestBuildAll(t *testing.T) {
	var closed atomic.Int32
	okBuilder := func(name string) Builder {
		return func(context.Context) (Provider, error) {
			c := newComponents(&stubKnowledge{}, &stubChat{})
			c.Closers = []func() error{func() error { closed.Add(1); return nil }}
			return NewAzureProvider(name, c), nil
		}
	}

	t.Run("全部成功", func(t *testing.T) {
		r, err := BuildAll(context.Background(), okBuilder("wichita"), okBuilder("wsu"))
		require.NoError(t, err)
		assert.Equal(t, []string{"wichita", "wsu"}, r.Names())
		p, ok := r.Get("wsu")
		require.True(t, ok)
		assert.Equal(t, "wsu", p.Name())
		assert.Panics(t, func() { r.MustGet("unknown") })

		closed.Store(0)
		require.NoError(t, r.Close())
		assert.Equal(t, int32(2), closed.Load())
	})

	t.Run("任一失败则关闭已构造的", func(t *testing.T) {
		closed.Store(0)
		failing := func(context.Context) (Provider, error) { return nil, stderrors.New("mongo unreachable") }
		r, err := BuildAll(context.Background(), okBuilder("wichita"), failing)
		assert.Nil(t, r)
		assert.ErrorContains(t, err, "mongo unreachable")
		assert.Equal(t, int32(1), closed.Load())
	})

	t.Run("租户重名", func(t *testing.T) {
		_, err := BuildAll(context.Background(), okBuilder("wsu"), okBuilder("wsu"))
		assert.ErrorContains(t, err, "duplicate")
	})
}

func TestBind(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := NewAzureProvider("wichita", newComponents(&stubKnowledge{}, &stubChat{}))

	engine := gin.New()
	engine.GET("/bound", Bind(p), func(c *gin.Context) {
		got, err := FromGin(c)
		require.NoError(t, err)
		fromCtx, ok := FromContext(c.Request.Context())
		require.True(t, ok)
		assert.Same(t, p, got)
		assert.Same(t, p, fromCtx)
		c.String(http.StatusOK, got.Name())
	})
	engine.GET("/unbound", func(c *gin.Context) {
		_, err := FromGin(c)
		assert.ErrorIs(t, err, errors.ErrInternal)
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bound", nil))
	assert.Equal(t, "wichita", w.Body.String())

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/unbound", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
