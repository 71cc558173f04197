// Package router 注册 campus-rag 的路由表。
package router

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/campus-rag/internal/campusrag/handler"
	"github.com/kart-io/campus-rag/internal/campusrag/provider"
	ctxlog "github.com/kart-io/campus-rag/pkg/infra/logger"
	"github.com/kart-io/campus-rag/pkg/infra/middleware/resilience"
	mwopts "github.com/kart-io/campus-rag/pkg/options/middleware"
)

// Tenant 把租户名映射到 URL 前缀。
type Tenant struct {
	Name   string
	Prefix string
}

// 两个租户共用同一套接口，只有前缀不同。
var (
	TenantWichita = Tenant{Name: "wichita", Prefix: "/api"}
	TenantWSU     = Tenant{Name: "wsu", Prefix: "/wsu/api"}
)

// Tenants 按注册顺序列出全部租户。
var Tenants = []Tenant{TenantWichita, TenantWSU}

// Options 是路由层的运行时配置。
type Options struct {
	// RateLimit 作用于 /transcribe。
	RateLimit *mwopts.RateLimitOptions
	// Redis 非 nil 且 RateLimit.UseRedis 时使用 Redis 限流器。
	Redis goredis.UniversalClient
}

// Register 注册 /health 与每个租户的接口。返回的 stop 释放内存限流器的后台清理协程。
func Register(engine *gin.Engine, registry *provider.Registry, h *handler.Handler, opts Options) (stop func(), err error) {
	logger.Info("Registering campus-rag routes...")

	if opts.RateLimit == nil {
		opts.RateLimit = mwopts.NewRateLimitOptions()
	}

	engine.GET("/health", handler.Health(registry.Names()))

	var stops []func()
	stop = func() {
		for _, s := range stops {
			s()
		}
	}

	for _, t := range Tenants {
		p, ok := registry.Get(t.Name)
		if !ok {
			stop()
			return nil, fmt.Errorf("tenant %q has no provider", t.Name)
		}

		limiter, stopLimiter := newLimiter(t, opts)
		if stopLimiter != nil {
			stops = append(stops, stopLimiter)
		}

		api := engine.Group(t.Prefix, logFields(t.Name, p.Name()), provider.Bind(p))
		{
			api.POST("/qa", h.QA)
			api.GET("/faqs", h.FAQs)
			api.GET("/faqs/translate", h.TranslateFAQs)
			api.POST("/transcribe", resilience.RateLimitWithOptions(*opts.RateLimit, limiter), h.Transcribe)
			api.POST("/ingest", h.Ingest)
			api.POST("/ingest_url", h.IngestURL)
			api.GET("/data_search", h.DataSearch)
			api.Match([]string{http.MethodGet, http.MethodPost}, "/document_delete", h.DeleteDocuments)
		}
		logger.Infow("tenant routes registered", "tenant", t.Name, "prefix", t.Prefix, "provider", p.Name())
	}

	return stop, nil
}

// logFields 把租户和 provider 名写入请求的日志字段。
func logFields(tenant, providerName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxlog.WithTenant(c.Request.Context(), tenant)
		c.Request = c.Request.WithContext(ctxlog.WithFields(ctx, "provider", providerName))
		c.Next()
	}
}

// newLimiter 为租户的 /transcribe 创建独立计数的限流器。
func newLimiter(t Tenant, opts Options) (resilience.RateLimiter, func()) {
	rl := opts.RateLimit
	if rl.UseRedis && opts.Redis != nil {
		return &tenantLimiter{
			RateLimiter: resilience.NewRedisRateLimiter(opts.Redis, rl.Limit, rl.Window),
			tenant:      t.Name,
		}, nil
	}
	if rl.UseRedis {
		logger.Warnw("redis rate limiter requested but redis is not configured, falling back to memory", "tenant", t.Name)
	}
	m := resilience.NewMemoryRateLimiter(rl.Limit, rl.Window)
	return m, m.Stop
}

// tenantLimiter 在共享的 Redis 键空间里按租户隔离计数。
type tenantLimiter struct {
	resilience.RateLimiter
	tenant string
}

func (l *tenantLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.RateLimiter.Allow(ctx, l.tenant+":"+key)
}

func (l *tenantLimiter) Reset(ctx context.Context, key string) error {
	return l.RateLimiter.Reset(ctx, l.tenant+":"+key)
}
