package router

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/campus-rag/internal/campusrag/biz"
	"github.com/kart-io/campus-rag/internal/campusrag/handler"
	"github.com/kart-io/campus-rag/internal/campusrag/provider"
	"github.com/kart-io/campus-rag/internal/campusrag/store"
	ctxlog "github.com/kart-io/campus-rag/pkg/infra/logger"
	mwopts "github.com/kart-io/campus-rag/pkg/options/middleware"
)

type namedProvider struct{ name string }

func (p *namedProvider) Name() string { return p.name }

func (p *namedProvider) AnswerQuery(context.Context, string) (string, error) {
	return "answered by " + p.name, nil
}

func (p *namedProvider) GetFAQs(context.Context) ([]string, error) { return []string{p.name}, nil }

func (p *namedProvider) TranslateFAQs(context.Context, string) ([]string, error) {
	return []string{p.name}, nil
}

func (p *namedProvider) TranscribeAudio(context.Context, []byte, string) (string, error) {
	return p.name, nil
}

func (p *namedProvider) SearchData(context.Context, string, int, float64) (*biz.AnalyticsResult, error) {
	return &biz.AnalyticsResult{Result: []biz.HourCount{}}, nil
}

func (p *namedProvider) IngestDocument(context.Context, []byte, string) (*biz.IngestResult, error) {
	return &biz.IngestResult{Status: "success"}, nil
}

func (p *namedProvider) IngestURL(context.Context, string) (*biz.IngestResult, error) {
	return &biz.IngestResult{Status: "success"}, nil
}

func (p *namedProvider) DeleteDocuments(context.Context, string) (store.DeletionReport, error) {
	return store.DeletionReport{"tenant": p.name}, nil
}

func (p *namedProvider) MaxAudioSize() int64 { return 1024 }

func (p *namedProvider) Close() error { return nil }

func builder(name string) provider.Builder {
	return func(context.Context) (provider.Provider, error) {
		return &namedProvider{name: name}, nil
	}
}

func newRouter(t *testing.T, opts Options) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	registry, err := provider.BuildAll(context.Background(), builder("wichita"), builder("wsu"))
	require.NoError(t, err)

	engine := gin.New()
	stop, err := Register(engine, registry, handler.New(), opts)
	require.NoError(t, err)
	t.Cleanup(stop)
	return engine
}

func transcribeRequest(t *testing.T, prefix string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "q.wav")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("RIFF"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, prefix+"/transcribe", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.RemoteAddr = "203.0.113.7:50000"
	return req
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRegister_TenantBinding(t *testing.T) {
	engine := newRouter(t, Options{})

	tests := []struct {
		prefix string
		want   string
	}{
		{"/api", "wichita"},
		{"/wsu/api", "wsu"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.prefix+"/qa", strings.NewReader(`{"userMessage":"hi"}`))
			req.Header.Set("Content-Type", "application/json")
			w := serve(engine, req)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"response":"answered by `+tt.want+`"}`, w.Body.String())

			for _, method := range []string{http.MethodGet, http.MethodPost} {
				w = serve(engine, httptest.NewRequest(method, tt.prefix+"/document_delete?id=x", nil))
				assert.Equal(t, http.StatusOK, w.Code)
				assert.JSONEq(t, `{"tenant":"`+tt.want+`"}`, w.Body.String())
			}
		})
	}

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok","tenants":["wichita","wsu"]}`, w.Body.String())
}

func TestRegister_TranscribeRateLimit(t *testing.T) {
	engine := newRouter(t, Options{RateLimit: &mwopts.RateLimitOptions{Limit: 5, Window: time.Minute}})

	for i := range 5 {
		w := serve(engine, transcribeRequest(t, "/api"))
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, serve(engine, transcribeRequest(t, "/api")).Code)

	// 租户之间独立计数，其他接口不限流
	assert.Equal(t, http.StatusOK, serve(engine, transcribeRequest(t, "/wsu/api")).Code)
	assert.Equal(t, http.StatusOK, serve(engine, httptest.NewRequest(http.MethodGet, "/api/faqs", nil)).Code)
}

func TestRegister_RedisRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	engine := newRouter(t, Options{
		RateLimit: &mwopts.RateLimitOptions{Limit: 2, Window: time.Minute, UseRedis: true},
		Redis:     client,
	})

	assert.Equal(t, http.StatusOK, serve(engine, transcribeRequest(t, "/wsu/api")).Code)
	assert.Equal(t, http.StatusOK, serve(engine, transcribeRequest(t, "/wsu/api")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(engine, transcribeRequest(t, "/wsu/api")).Code)
	assert.Equal(t, http.StatusOK, serve(engine, transcribeRequest(t, "/api")).Code)

	keys := mr.Keys()
	assert.Contains(t, keys, "campus-rag:ratelimit:wsu:203.0.113.7")
	assert.Contains(t, keys, "campus-rag:ratelimit:wichita:203.0.113.7")
}

func TestRegister_MissingTenant(t *testing.T) {
	registry, err := provider.BuildAll(context.Background(), builder("wichita"))
	require.NoError(t, err)

	_, err = Register(gin.New(), registry, handler.New(), Options{})
	assert.ErrorContains(t, err, `tenant "wsu" has no provider`)
}

func TestLogFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	var fields []any
	engine.GET("/x", logFields("wsu", "zilliz"), func(c *gin.Context) {
		fields = ctxlog.GetContextFields(c.Request.Context())
	})

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, []any{ctxlog.FieldTenant, "wsu", "provider", "zilliz"}, fields)
}
