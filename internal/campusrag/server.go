// Package campusrag 组装 campus-rag 服务：两个租户的 Provider、HTTP 路由与服务器生命周期。
package campusrag

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/logger"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/campus-rag/internal/campusrag/handler"
	"github.com/kart-io/campus-rag/internal/campusrag/provider"
	"github.com/kart-io/campus-rag/internal/campusrag/router"
	"github.com/kart-io/campus-rag/internal/pkg/rag/docutil"
	"github.com/kart-io/campus-rag/pkg/component/redis"
	"github.com/kart-io/campus-rag/pkg/infra/app"
	"github.com/kart-io/campus-rag/pkg/infra/pool"
	"github.com/kart-io/campus-rag/pkg/infra/server"
	httpserver "github.com/kart-io/campus-rag/pkg/infra/server/transport/http"
	"github.com/kart-io/campus-rag/pkg/infra/tracing"
	azureopts "github.com/kart-io/campus-rag/pkg/options/azure"
	cacheopts "github.com/kart-io/campus-rag/pkg/options/cache"
	llmopts "github.com/kart-io/campus-rag/pkg/options/llm"
	logopts "github.com/kart-io/campus-rag/pkg/options/logger"
	middlewareopts "github.com/kart-io/campus-rag/pkg/options/middleware"
	milvusopts "github.com/kart-io/campus-rag/pkg/options/milvus"
	mongodbopts "github.com/kart-io/campus-rag/pkg/options/mongodb"
	ragopts "github.com/kart-io/campus-rag/pkg/options/rag"
	redisopts "github.com/kart-io/campus-rag/pkg/options/redis"
	httpopts "github.com/kart-io/campus-rag/pkg/options/server/http"
	tracingopts "github.com/kart-io/campus-rag/pkg/options/tracing"
	zillizopts "github.com/kart-io/campus-rag/pkg/options/zilliz"
)

// Name is the name of the application.
const Name = "campus-rag"

// Config contains application-related configurations.
type Config struct {
	HTTPOptions        *httpopts.Options
	LogOptions         *logopts.Options
	MiddlewareOptions  *middlewareopts.Options
	OpenAIOptions      *llmopts.OpenAIOptions
	AzureOpenAIOptions *llmopts.AzureOpenAIOptions
	SearchOptions      *azureopts.SearchOptions
	SpeechOptions      *azureopts.SpeechOptions
	MilvusOptions      *milvusopts.Options
	ZillizOptions      *zillizopts.Options
	MongoDBOptions     *mongodbopts.Options
	RedisOptions       *redisopts.Options
	CacheOptions       *cacheopts.Options
	RAGOptions         *ragopts.Options
	TracingOptions     *tracingopts.Options
}

// Server represents the campus-rag server.
type Server struct {
	srv     *server.Manager
	closers []func() error
}

// NewServer initializes and returns a new Server instance.
// 任一步骤失败时释放已创建的资源。
func (cfg *Config) NewServer(ctx context.Context) (_ *Server, err error) {
	printBanner(cfg)

	// 1. 初始化日志
	if err := cfg.LogOptions.Init(Name, app.GetVersion()); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting campus-rag service...")

	// 资源按创建的逆序登记，失败时从后往前释放
	var stack []func() error
	defer func() {
		if err != nil {
			for i := len(stack) - 1; i >= 0; i-- {
				_ = stack[i]()
			}
		}
	}()

	// 2. 初始化链路追踪。span 与 W3C 传播始终开启，导出由 tracing.enabled 控制
	if cfg.TracingOptions == nil {
		cfg.TracingOptions = tracingopts.NewOptions()
	}
	tp, err := tracing.NewProvider(ctx, cfg.TracingOptions, Name, app.GetVersion())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	stack = append(stack, tp.Shutdown)
	logger.Infow("Tracing initialized", "export", cfg.TracingOptions.Enabled, "exporter", cfg.TracingOptions.ExporterType)

	// 3. DOCX 解析：配置了 unioffice 计量密钥时使用 unioffice，否则走内置 XML 解析
	if err := docutil.SetOfficeLicense(cfg.RAGOptions.OfficeLicenseKey); err != nil {
		return nil, fmt.Errorf("failed to set office license: %w", err)
	}
	logger.Infow("DOCX extraction configured", "unioffice", docutil.OfficeLicensed())

	// 4. 初始化 Redis（可选，embedding 缓存与限流共享）
	redisClient := cfg.newRedis(ctx)
	if redisClient != nil {
		stack = append(stack, redisClient.Close)
	}

	// 5. 初始化工作池
	pools, err := cfg.newPools()
	if err != nil {
		return nil, err
	}
	releasePools := pools.release(cfg.HTTPOptions.ShutdownTimeout)
	stack = append(stack, releasePools)

	// 6. 并发初始化两个租户，全部就绪后才发布
	shared := &provider.Shared{
		RAG:           cfg.RAGOptions,
		Cache:         cfg.CacheOptions,
		IngestPool:    pools.ingest,
		TranslatePool: pools.translate,
		AnalyticsPool: pools.analytics,
	}
	if redisClient != nil {
		shared.Redis = redisClient.Client()
	}
	registry, err := provider.BuildAll(ctx, cfg.azureBuilder(shared), cfg.zillizBuilder(shared))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}
	// 排空池中的查询记录写入后再断开后端连接
	stack = append(stack, func() error {
		return utilerrors.NewAggregate([]error{releasePools(), registry.Close()})
	})
	logger.Infow("Providers initialized", "tenants", registry.Names())

	// 7. 初始化 HTTP 服务器与全局中间件
	httpSrv := httpserver.NewServer(cfg.HTTPOptions, cfg.MiddlewareOptions)

	// 8. 注册路由
	routerOpts := router.Options{RateLimit: cfg.MiddlewareOptions.RateLimit}
	if redisClient != nil {
		routerOpts.Redis = redisClient.Client()
	}
	stopRoutes, err := router.Register(httpSrv.Engine(), registry, handler.New(), routerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to register routes: %w", err)
	}
	stack = append(stack, func() error { stopRoutes(); return nil })

	// 9. 初始化服务器管理器
	serverManager := server.NewManager(cfg.HTTPOptions.ShutdownTimeout, httpSrv)

	logger.Info("campus-rag service is ready")
	closers := make([]func() error, 0, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		closers = append(closers, stack[i])
	}
	return &Server{srv: serverManager, closers: closers}, nil
}

// Run starts the server and blocks until ctx is canceled or a signal arrives.
func (s *Server) Run(ctx context.Context) error {
	runErr := s.srv.Run(ctx)

	var errs []error
	if runErr != nil {
		errs = append(errs, runErr)
	}
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return utilerrors.NewAggregate(errs)
}

// newRedis 连接 Redis。未启用或连接失败时返回 nil，服务降级为进程内缓存与限流。
func (cfg *Config) newRedis(ctx context.Context) *redis.Client {
	if cfg.RedisOptions == nil || !cfg.RedisOptions.Enabled {
		logger.Info("Redis is disabled")
		return nil
	}
	client, err := redis.New(ctx, cfg.RedisOptions)
	if err != nil {
		logger.Warnw("failed to connect to redis, falling back to in-memory cache and rate limiter", "error", err.Error())
		return nil
	}
	logger.Infow("Redis initialized", "addr", cfg.RedisOptions.Addr)
	return client
}

type workerPools struct {
	ingest, translate, analytics *pool.Pool
}

func (cfg *Config) newPools() (*workerPools, error) {
	ingestCfg := pool.IngestPoolConfig()
	if n := cfg.RAGOptions.IngestWorkers; n > 0 {
		ingestCfg.Capacity = n
	}
	analyticsCfg := pool.AnalyticsPoolConfig()
	if n := cfg.RAGOptions.AnalyticsWorkers; n > 0 {
		analyticsCfg.Capacity = n
	}

	p := &workerPools{}
	var err error
	if p.ingest, err = pool.NewPool("ingest", pool.IngestPool, ingestCfg); err != nil {
		return nil, err
	}
	if p.translate, err = pool.NewPool("translate", pool.TranslatePool, pool.TranslatePoolConfig(cfg.RAGOptions.TranslateConcurrency)); err != nil {
		p.ingest.Release()
		return nil, err
	}
	if p.analytics, err = pool.NewPool("analytics", pool.AnalyticsPool, analyticsCfg); err != nil {
		p.ingest.Release()
		p.translate.Release()
		return nil, err
	}
	return p, nil
}

// release 等待池内任务完成。重复调用是空操作。
func (p *workerPools) release(timeout time.Duration) func() error {
	return func() error {
		var errs []error
		for _, wp := range []*pool.Pool{p.analytics, p.translate, p.ingest} {
			if err := wp.ReleaseTimeout(timeout); err != nil {
				errs = append(errs, fmt.Errorf("release pool %s: %w", wp.Name(), err))
			}
		}
		return utilerrors.NewAggregate(errs)
	}
}

func (cfg *Config) azureBuilder(shared *provider.Shared) provider.Builder {
	azureCfg := &provider.AzureConfig{
		OpenAI: cfg.AzureOpenAIOptions,
		Search: cfg.SearchOptions,
		Speech: cfg.SpeechOptions,
		Mongo:  cfg.MongoDBOptions,
	}
	return func(ctx context.Context) (provider.Provider, error) {
		p, err := provider.NewAzure(ctx, router.TenantWichita.Name, azureCfg, shared)
		if err != nil {
			return nil, fmt.Errorf("tenant %s: %w", router.TenantWichita.Name, err)
		}
		return p, nil
	}
}

func (cfg *Config) zillizBuilder(shared *provider.Shared) provider.Builder {
	zillizCfg := &provider.ZillizConfig{
		OpenAI: cfg.OpenAIOptions,
		Milvus: cfg.MilvusOptions,
		Zilliz: cfg.ZillizOptions,
	}
	return func(ctx context.Context) (provider.Provider, error) {
		p, err := provider.NewZilliz(ctx, router.TenantWSU.Name, zillizCfg, shared)
		if err != nil {
			return nil, fmt.Errorf("tenant %s: %w", router.TenantWSU.Name, err)
		}
		return p, nil
	}
}

func printBanner(cfg *Config) {
	fmt.Printf("Starting %s...\n", Name)
	fmt.Printf("  HTTP: %s\n", cfg.HTTPOptions.Addr)
	for _, t := range router.Tenants {
		fmt.Printf("  Tenant: %s (%s)\n", t.Name, t.Prefix)
	}
	fmt.Printf("  Chat: %s (wsu) / %s (wichita)\n", cfg.OpenAIOptions.ChatModel, cfg.AzureOpenAIOptions.ChatDeployment)
}
