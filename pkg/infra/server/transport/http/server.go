// Package http provides the gin-based HTTP transport.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/campus-rag/pkg/infra/middleware/observability"
	"github.com/kart-io/campus-rag/pkg/infra/middleware/resilience"
	"github.com/kart-io/campus-rag/pkg/infra/middleware/security"
	mwopts "github.com/kart-io/campus-rag/pkg/options/middleware"
	options "github.com/kart-io/campus-rag/pkg/options/server/http"
	apierrors "github.com/kart-io/campus-rag/pkg/utils/errors"
	"github.com/kart-io/campus-rag/pkg/utils/response"
)

// Server is the HTTP server implementation.
type Server struct {
	opts   *options.Options
	engine *gin.Engine

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewServer creates a gin engine with the global middleware chain installed.
// Routes must be registered on Engine() before Start.
func NewServer(serverOpts *options.Options, middlewareOpts *mwopts.Options) *Server {
	if serverOpts == nil {
		serverOpts = options.NewOptions()
	}
	if middlewareOpts == nil {
		middlewareOpts = mwopts.NewOptions()
	}

	if serverOpts.Mode != "" {
		gin.SetMode(serverOpts.Mode)
	}

	// 不使用 gin.Default 的默认中间件
	engine := gin.New()

	s := &Server{
		opts:   serverOpts,
		engine: engine,
	}
	s.applyMiddleware(middlewareOpts)

	engine.NoRoute(func(c *gin.Context) {
		response.Fail(c, apierrors.ErrRouteNotFound)
	})

	return s
}

// applyMiddleware 注册全局中间件。中间件必须在路由注册前应用，
// 否则 gin 的子路由组不会继承。
func (s *Server) applyMiddleware(opts *mwopts.Options) {
	// RequestID 最先执行，Recovery 与 Logger 都依赖它
	s.engine.Use(observability.RequestIDWithOptions(*opts.RequestID))
	// Tracing 在 Recovery 外层，panic 也会落在 server span 上
	s.engine.Use(observability.TracingWithOptions(*opts.Tracing))
	s.engine.Use(resilience.RecoveryWithOptions(*opts.Recovery, nil))
	s.engine.Use(observability.LoggerWithOptions(*opts.Logger))
	s.engine.Use(security.CORSWithOptions(*opts.CORS))
	s.engine.Use(security.FrameAncestors(*opts.Security))
	s.engine.Use(resilience.BodyLimitWithOptions(*opts.BodyLimit))
}

// Name returns the server name.
func (s *Server) Name() string {
	return "http[gin]"
}

// Engine returns the underlying gin.Engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Addr returns the bound address once started, or the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.opts.Addr
}

// Start binds the listener synchronously and serves in the background.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	s.mu.Lock()
	s.server = srv
	s.listener = ln
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("http server exited", "addr", ln.Addr().String(), "error", err.Error())
		}
	}()
	logger.Infow("http server listening", "addr", ln.Addr().String())
	return nil
}

// Stop stops the HTTP server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
