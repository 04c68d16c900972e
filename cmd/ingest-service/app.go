package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"plategate/internal/config"
	"plategate/internal/constants"
	"plategate/internal/listener"
	"plategate/internal/logger"
	"plategate/internal/router"
	"plategate/internal/sink"
	"plategate/internal/storage"
	"plategate/pkg/bootstrap"
	"plategate/pkg/health"
	"plategate/pkg/metrics"
	"plategate/pkg/middleware"
	"plategate/pkg/tracing"
)

type App struct {
	*bootstrap.Base
	dbConnector *bootstrap.DatabaseConnector

	store    storage.Backend
	sink     sink.Sink
	redis    *redis.Client
	db       *sql.DB
	listener *listener.Server
	admin    *http.Server
	health   *health.CheckerRegistry
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
		health:      health.NewCheckerRegistry(),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	tp, err := tracing.Init(a.Config.Tracing, constants.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.OnShutdown("tracer provider", tp.Shutdown)

	metrics.RegisterIngestMetrics()
	metrics.RegisterSinkMetrics()
	metrics.RegisterCircuitBreakerMetrics()

	if err := a.initStorage(ctx); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := a.initSink(ctx); err != nil {
		return fmt.Errorf("failed to initialize sink: %w", err)
	}

	if err := a.initListener(ctx); err != nil {
		return fmt.Errorf("failed to initialize listener: %w", err)
	}

	if a.Config.Server.Enabled {
		a.initAdmin()
	}

	return nil
}

func (a *App) initStorage(ctx context.Context) error {
	store, err := storage.New(ctx, a.Config.Storage)
	if err != nil {
		return err
	}
	if err := store.Check(ctx); err != nil {
		return err
	}
	a.store = store
	a.health.Register(store)

	a.Logger.InfowCtx(ctx, "Storage ready", "backend", store.Name())
	return nil
}

func (a *App) initSink(ctx context.Context) error {
	var deps sink.Dependencies

	if a.Config.Deduplication.Enabled {
		rdb, err := a.dbConnector.InitRedis(ctx)
		if err != nil {
			return err
		}
		a.redis = rdb
		deps.Redis = rdb
		a.OnShutdown("redis", func(context.Context) error { return rdb.Close() })
		a.health.RegisterOptional(health.NewRedisChecker(rdb))
	}

	switch a.Config.Sink.Type {
	case constants.SinkTypeMongoDB:
		if err := a.dbConnector.PrepareMongoDB(ctx); err != nil {
			a.Logger.WarnwCtx(ctx, "MongoDB index setup failed, continuing", "error", err)
		}
		a.health.RegisterOptional(health.NewMongoDBChecker(a.Config.Database.MongoDB.URI))
	case constants.SinkTypePostgres:
		db, err := a.dbConnector.InitPostgreSQL(ctx)
		if err != nil {
			return err
		}
		a.db = db
		deps.Postgres = db
		a.OnShutdown("postgres", func(context.Context) error { return db.Close() })
		a.health.RegisterOptional(health.NewPostgreSQLChecker(db))
	case constants.SinkTypeKafka:
		a.health.RegisterOptional(health.NewKafkaChecker(a.Config.Broker.Kafka.Brokers))
	}

	s, err := sink.New(a.Config, deps, a.Logger)
	if err != nil {
		return err
	}
	a.sink = s
	a.OnShutdown("sink", func(context.Context) error { return s.Close() })

	a.Logger.InfowCtx(ctx, "Event sink ready", "sink", s.Name())
	return nil
}

func (a *App) initListener(ctx context.Context) error {
	addr, err := listener.ResolveAddress(ctx, a.Config.Listener, a.Logger)
	if err != nil {
		return err
	}

	r := router.New(a.store, a.sink, a.Logger)
	handler := listener.NewHandler(r, a.Config.Listener, a.Logger)

	shutdownTimeout := a.Config.Listener.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = constants.ShutdownTimeout
	}

	srv := listener.NewServer(addr, handler, shutdownTimeout, a.Logger)
	if err := srv.Listen(); err != nil {
		return err
	}
	a.listener = srv
	return nil
}

func (a *App) initAdmin() {
	a.admin = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      newAdminRouter(a.Config, a.health, a.Logger),
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}
}

// newAdminRouter serves health, metrics and version. It never sees camera
// traffic.
func newAdminRouter(cfg *config.Config, registry *health.CheckerRegistry, log logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	if cfg.Tracing.Enabled {
		r.Use(tracing.GinMiddleware(constants.ServiceName))
	}

	r.Use(middleware.RecoveryMiddleware(log))
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware(log))

	r.GET("/health", func(c *gin.Context) {
		h := registry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": constants.ServiceName,
			"version": version,
		})
	})

	return r
}

// Run blocks until ctx is cancelled or one of the servers fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.listener.Serve(gctx)
	})

	if a.admin != nil {
		g.Go(func() error {
			a.Logger.InfowCtx(gctx, "Admin server listening", "port", a.Config.Server.Port)
			if err := a.admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("admin server error: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()
			return a.admin.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 2*constants.ShutdownTimeout+time.Second)
	defer cancel()

	return a.Base.Shutdown(shutdownCtx, nil)
}
