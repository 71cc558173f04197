package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	options "github.com/kart-io/campus-rag/pkg/options/server/http"
	"github.com/kart-io/campus-rag/pkg/utils/json"
)

func newTestServer() *Server {
	opts := options.NewOptions()
	opts.Addr = "127.0.0.1:0"
	opts.Mode = gin.TestMode
	return NewServer(opts, nil)
}

func TestNoRouteUsesErrorEnvelope(t *testing.T) {
	s := newTestServer()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	s.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "code")
	assert.Contains(t, body, "message")
	assert.NotEmpty(t, body["request_id"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestMiddlewareChainApplied(t *testing.T) {
	s := newTestServer()
	s.Engine().GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://example.com")
	s.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStartStop(t *testing.T) {
	s := newTestServer()
	s.Engine().GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	resp, err := http.Get("http://" + s.Addr() + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "pong", string(b))

	require.NoError(t, s.Stop(context.Background()))
}

func TestStartBindError(t *testing.T) {
	s := newTestServer()
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	opts := options.NewOptions()
	opts.Addr = s.Addr()
	opts.Mode = gin.TestMode
	other := NewServer(opts, nil)
	assert.Error(t, other.Start(context.Background()))
}
