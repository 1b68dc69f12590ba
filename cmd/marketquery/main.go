package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	authhttp "github.com/wyfcoding/marketquery/internal/auth/interfaces/http"
	authmysql "github.com/wyfcoding/marketquery/internal/auth/infrastructure/persistence/mysql"
	mdapp "github.com/wyfcoding/marketquery/internal/marketdata/application"
	mddomain "github.com/wyfcoding/marketquery/internal/marketdata/domain"
	"github.com/wyfcoding/marketquery/internal/marketdata/infrastructure/messaging"
	mdmysql "github.com/wyfcoding/marketquery/internal/marketdata/infrastructure/persistence/mysql"
	mdhttp "github.com/wyfcoding/marketquery/internal/marketdata/interfaces/http"
	refapp "github.com/wyfcoding/marketquery/internal/referencedata/application"
	refdomain "github.com/wyfcoding/marketquery/internal/referencedata/domain"
	refmysql "github.com/wyfcoding/marketquery/internal/referencedata/infrastructure/persistence/mysql"
	refredis "github.com/wyfcoding/marketquery/internal/referencedata/infrastructure/persistence/redis"
	"github.com/wyfcoding/marketquery/pkg/cache"
	"github.com/wyfcoding/marketquery/pkg/config"
	pkgdb "github.com/wyfcoding/marketquery/pkg/db"
	"github.com/wyfcoding/marketquery/pkg/logger"
	"github.com/wyfcoding/marketquery/pkg/metrics"
	"github.com/wyfcoding/marketquery/pkg/middleware"
	"github.com/wyfcoding/marketquery/pkg/mq"
	"github.com/wyfcoding/marketquery/pkg/ratelimit"
	"github.com/wyfcoding/pkg/limiter"
	pkgmiddleware "github.com/wyfcoding/pkg/middleware"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

var configPath = flag.String("config", "configs/marketquery/config.toml", "config file path")

const shutdownTimeout = 10 * time.Second

func main() {
	flag.Parse()

	// 1. Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. Logger
	log, err := logger.Init(cfg.Logger, cfg.ServiceName, "marketquery")
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}
	ctx := context.Background()

	// 3. Metrics
	m := metrics.New(cfg.ServiceName)
	stopMetrics := func() {}
	if cfg.Metrics.Enabled {
		stopMetrics = m.ExposeHttp(strconv.Itoa(cfg.Metrics.Port))
	}

	// 4. Database
	database, err := pkgdb.Init(cfg.Database)
	if err != nil {
		slog.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if cfg.IsDev() || cfg.Database.AutoMigrate {
		if err := migrate(database.DB); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	// 5. Redis：参考数据缓存与分布式限流，未启用时限流退化为进程内令牌桶
	var (
		symbolCache    refdomain.Cache
		eventTypeCache refdomain.Cache
		rateLimiter    limiter.Limiter
	)
	if cfg.Redis.Enabled {
		redisCache, err := cache.New(cfg.Redis, log)
		if err != nil {
			slog.Error("failed to connect redis", "error", err)
			os.Exit(1)
		}
		defer redisCache.Close()

		ttl := time.Duration(cfg.Redis.DirectoryTTL) * time.Second
		symbolCache = refredis.NewDirectoryCache(redisCache, refdomain.KindSymbol, ttl)
		eventTypeCache = refredis.NewDirectoryCache(redisCache, refdomain.KindEventType, ttl)
		if cfg.RateLimit.Enabled {
			rateLimiter = ratelimit.NewRedisLimiter(redisCache.Client(), cfg.ServiceName+":ratelimit:", cfg.RateLimit.QPS, cfg.RateLimit.Burst)
		}
	} else if cfg.RateLimit.Enabled {
		rateLimiter = limiter.NewLocalLimiter(rate.Limit(cfg.RateLimit.QPS), cfg.RateLimit.Burst)
	}

	// 6. 事件发布者
	var publisher mddomain.EventPublisher = messaging.LogPublisher{}
	if cfg.Kafka.Enabled {
		producer := mq.NewProducer(cfg.Kafka)
		defer producer.Close()
		publisher = messaging.NewKafkaPublisher(producer, cfg.Kafka.TopicPrefix)
	}

	// 7. Repository & Application
	symbols := refapp.NewDirectory(refdomain.KindSymbol, refmysql.NewSymbolRepository(database.DB), symbolCache, m)
	eventTypes := refapp.NewDirectory(refdomain.KindEventType, refmysql.NewEventTypeRepository(database.DB), eventTypeCache, m)
	users := authmysql.NewUserRepository(database.DB)

	if err := seed(ctx, cfg, symbols, eventTypes, users); err != nil {
		slog.Error("failed to seed bootstrap data", "error", err)
		os.Exit(1)
	}

	tickers := mdapp.NewTickerService(mdmysql.NewTickerStore(database.DB), symbols, eventTypes, publisher, m)
	trades := mdapp.NewTradeService(mdmysql.NewTradeStore(database.DB), symbols, eventTypes, publisher, m)

	// 8. Interfaces
	gin.SetMode(gin.ReleaseMode)
	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	}
	r := newRouter(routerDeps{
		cfg:     cfg,
		metrics: m,
		gate:    authhttp.NewGate(users, cfg.Auth.PathPrefix, cfg.Auth.Header, m),
		limiter: rateLimiter,
		ping:    database.Ping,
		routes: []routeRegistrar{
			mdhttp.NewTickerHandler(tickers),
			mdhttp.NewTradeHandler(trades),
		},
	})

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	grpcSrv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		middleware.GRPCRecoveryInterceptor(),
		middleware.GRPCLoggingInterceptor(),
		pkgmiddleware.GrpcMetricsInterceptor(m.Metrics),
	))
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcSrv)

	// 9. Start
	g, gctx := errgroup.WithContext(ctx)

	if cfg.GRPC.Port > 0 {
		g.Go(func() error {
			addr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
			lis, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			slog.Info("gRPC server starting", "addr", addr)
			return grpcSrv.Serve(lis)
		})
	}

	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", httpSrv.Addr, "version", cfg.Version)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("shutting down servers...")
		case <-gctx.Done():
			slog.Info("context cancelled, shutting down...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		healthSrv.Shutdown()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown failed", "error", err)
		}
		stopMetrics()
		grpcSrv.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
	}
}

// routeRegistrar 挂载在受保护前缀下的路由
type routeRegistrar interface {
	RegisterRoutes(router *gin.RouterGroup)
}

type routerDeps struct {
	cfg     *config.Config
	metrics *metrics.Metrics
	gate    *authhttp.Gate
	// limiter 为 nil 时不限流
	limiter limiter.Limiter
	ping    func(ctx context.Context) error
	routes  []routeRegistrar
}

// newRouter 网关注册在 engine 级别，前缀下未匹配的路径同样需要 API Key
func newRouter(d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestContext(),
		pkgmiddleware.Logger(logger.Get()),
		pkgmiddleware.HttpMetricsMiddleware(d.metrics.Metrics),
		pkgmiddleware.Recovery(logger.Get()),
		d.gate.Handler(),
	)

	r.GET("/health", func(c *gin.Context) {
		status, code := "UP", http.StatusOK
		if d.ping != nil {
			if err := d.ping(c.Request.Context()); err != nil {
				logger.Error(c.Request.Context(), "health check failed", "error", err)
				status, code = "DOWN", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{
			"status":  status,
			"service": d.cfg.ServiceName,
			"version": d.cfg.Version,
		})
	})

	protected := r.Group(d.cfg.Auth.PathPrefix)
	if d.limiter != nil {
		protected.Use(middleware.RateLimit(d.limiter, authhttp.RateLimitKey, d.metrics))
	}
	for _, rr := range d.routes {
		rr.RegisterRoutes(protected)
	}
	return r
}
