// Package app 组装 docvault 服务：加载配置、初始化存储与观测组件、挂载路由并运行 HTTP 服务与定时任务.
package app

import (
	contextPkg "context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/docvault/pkg/api"
	"github.com/yeisme/docvault/pkg/cache"
	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/handle"
	"github.com/yeisme/docvault/pkg/internal/jobs"
	"github.com/yeisme/docvault/pkg/internal/router"
	"github.com/yeisme/docvault/pkg/internal/service"
	"github.com/yeisme/docvault/pkg/internal/storage"
	"github.com/yeisme/docvault/pkg/log"
	"github.com/yeisme/docvault/pkg/metrics"
	"github.com/yeisme/docvault/pkg/middleware"
	"github.com/yeisme/docvault/pkg/scheduler"
	"github.com/yeisme/docvault/pkg/tracing"
)

// App HTTP 服务、定时任务与存储资源的组合.
type App struct {
	Engine    *gin.Engine
	Manager   *storage.Manager
	Service   *service.DocumentService
	Scheduler *scheduler.Scheduler
	config    *configs.AppConfig
}

// Bootstrap 加载配置并初始化追踪、监控与存储，命令行子命令共用.
func Bootstrap(ctx contextPkg.Context, configPath string) (*configs.AppConfig, *storage.Manager, error) {
	if err := configs.InitConfig(configPath); err != nil {
		return nil, nil, fmt.Errorf("init config: %w", err)
	}

	config := configs.GetConfig()

	log.Configure(config.Log, config.Server.Debug)
	configs.OnReload(func(c *configs.AppConfig) {
		log.SetLevel(c.Log.Level)
		log.Component("config").Info().Str("level", c.Log.Level).Msg("configuration reloaded")
	})

	if err := tracing.InitTracer(config.Tracing); err != nil {
		return nil, nil, fmt.Errorf("init tracing: %w", err)
	}

	if err := metrics.InitMetrics(config.Metrics); err != nil {
		return nil, nil, fmt.Errorf("init metrics: %w", err)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	return config, manager, nil
}

// NewApp 组装 HTTP 引擎、文档服务与定时任务.
func NewApp(ctx contextPkg.Context, configPath string) (*App, error) {
	config, manager, err := Bootstrap(ctx, configPath)
	if err != nil {
		return nil, err
	}

	if !config.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	svc := service.NewFromManager(manager, config)

	sched, err := scheduler.NewScheduler()
	if err != nil {
		_ = manager.Close()
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	names, err := jobs.RegisterCronJobs(sched, svc, config.Jobs)
	if err != nil {
		_ = sched.Stop()
		_ = manager.Close()

		return nil, err
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(config.Server),
		gzip.Gzip(gzip.DefaultCompression),
		otelgin.Middleware(config.Tracing.ServiceName),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.StorageMiddleware(manager),
		middleware.SchedulerMiddleware(sched),
		middleware.AuthMiddleware(config.Auth),
		middleware.RoleMiddleware(config.Auth),
		middleware.RateLimitMiddleware(config.RateLimit),
		middleware.CircuitBreakerMiddleware(config.CircuitBreaker),
	)

	var statsCache *cache.Cache
	if kvc := manager.GetKVClient(); kvc != nil {
		statsCache = cache.New(kvc.KVStore, "http")
	}

	api.RegisterGroup(engine, handle.NewDocumentHandler(svc), statsCache, true)
	router.RegisterSwaggerRoute(engine, config.Server)

	if config.Metrics.Enabled {
		if err := metrics.StartMetricsServer(config.Metrics, engine); err != nil {
			l.Warn().Err(err).Msg("metrics endpoint not registered")
		}
	}

	l.Info().Strs("jobs", names).Int("providers", len(svc.Providers())).Msg("application initialized")

	return &App{
		Engine:    engine,
		Manager:   manager,
		Service:   svc,
		Scheduler: sched,
		config:    config,
	}, nil
}

// Run 启动 HTTP 服务与调度器，ctx 取消后优雅退出并释放资源.
func (a *App) Run(ctx contextPkg.Context) error {
	l := log.Logger()
	addr := fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.GetTimeoutDuration(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Info().Str("addr", addr).Msg("http server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	a.Scheduler.Start()

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := contextPkg.WithTimeout(contextPkg.WithoutCancel(gctx), a.config.Server.GetShutdownTimeout())
		defer cancel()

		l.Info().Msg("shutting down")

		return errors.Join(
			srv.Shutdown(shutdownCtx),
			a.Scheduler.Stop(),
			tracing.ShutdownTracer(shutdownCtx),
		)
	})

	err := g.Wait()

	return errors.Join(err, a.Manager.Close())
}
