package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	salesapp "github.com/retail/sales/internal/application/sales"
	"github.com/retail/sales/internal/infrastructure/cache"
	"github.com/retail/sales/internal/infrastructure/config"
	"github.com/retail/sales/internal/infrastructure/event"
	"github.com/retail/sales/internal/infrastructure/logger"
	"github.com/retail/sales/internal/infrastructure/migration"
	"github.com/retail/sales/internal/infrastructure/persistence"
	"github.com/retail/sales/internal/infrastructure/storage"
	"github.com/retail/sales/internal/infrastructure/telemetry"
	"github.com/retail/sales/internal/interfaces/http/handler"
	"github.com/retail/sales/internal/interfaces/http/middleware"
	"github.com/retail/sales/internal/interfaces/http/router"
	"go.uber.org/zap"
)

//	@title			Sales API
//	@version		1.0
//	@description	Records retail sales with quantity-based discounts

//	@BasePath	/api/v1

const (
	version         = "1.0.0"
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()

	// The OTLP log bridge is teed into the zap core, so it has to exist first
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfigFromApp(cfg.Telemetry), nil)
	if err != nil {
		panic("Failed to initialize log export: " + err.Error())
	}

	logCfg := logger.FromAppConfig(cfg)
	log, err := logger.New(logCfg, logProvider.Core(logger.ParseLevel(logCfg.Level)))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting sales service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.TracingConfigFromApp(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfigFromApp(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfigFromApp(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if cfg.Telemetry.SpanProfilesEnabled && profiler.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
	)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfigFromApp(cfg), log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// An in-memory sqlite database starts empty, so it is always migrated
	if cfg.Database.AutoMigrate || cfg.Database.Driver == config.DriverSQLite {
		if err := runMigrations(db, cfg.Database.Driver, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing redis client", zap.Error(err))
		}
	}()

	saleRepo := persistence.NewGormSaleRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	branchRepo := persistence.NewGormBranchRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)

	saleService := salesapp.NewSaleService(saleRepo, customerRepo, branchRepo, productRepo, log)

	eventBus, err := newEventBus(ctx, cfg, redisClient, meterProvider, log)
	if err != nil {
		log.Fatal("Failed to initialize event bus", zap.Error(err))
	}
	saleService.SetEventPublisher(eventBus)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithConfig(corsConfig(cfg.HTTP)))
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.HTTP.IdempotencyEnabled {
		idempotencyStore, err := cache.NewIdempotencyStoreFactory(redisClient, cache.WithLogger(log)).CreateStore(ctx)
		if err != nil {
			log.Fatal("Failed to initialize idempotency store", zap.Error(err))
		}
		defer func() {
			if err := idempotencyStore.Close(); err != nil {
				log.Error("Error closing idempotency store", zap.Error(err))
			}
		}()
		engine.Use(middleware.Idempotency(middleware.IdempotencyConfig{
			Store:   idempotencyStore,
			TTL:     cfg.HTTP.IdempotencyTTL,
			Enabled: true,
		}))
	}
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       meterProvider.IsEnabled(),
	}))
	profilingCfg := middleware.DefaultProfilingConfig()
	profilingCfg.Enabled = profiler.IsEnabled()
	engine.Use(middleware.ProfilingWithConfig(profilingCfg))
	engine.Use(middleware.Timeout(requestTimeout))

	health := handler.NewHealthHandler(version,
		handler.HealthCheck{Name: "database", Probe: func(ctx context.Context) error {
			return db.DB.WithContext(ctx).Exec("SELECT 1").Error
		}},
		handler.HealthCheck{Name: "redis", Probe: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}},
	)
	engine.GET("/health", health.Check)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(router.SaleRoutes(handler.NewSaleHandler(saleService)))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down logger provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func runMigrations(db *persistence.Database, driver string, log *zap.Logger) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, driver, log)
	if err != nil {
		return err
	}
	// Closing the migrator would close the shared connection pool
	return m.Up()
}

// newEventBus subscribes the log handlers and the metrics handler, plus the
// Redis stream forwarder and the object store archiver when they are enabled
func newEventBus(
	ctx context.Context,
	cfg *config.Config,
	redisClient *redis.Client,
	meterProvider *telemetry.MeterProvider,
	log *zap.Logger,
) (*event.InMemoryEventBus, error) {
	bus := event.NewInMemoryEventBus(log)

	bus.Subscribe(salesapp.NewSaleCreatedHandler(log))
	bus.Subscribe(salesapp.NewSaleModifiedHandler(log))
	bus.Subscribe(salesapp.NewSaleCancelledHandler(log))
	bus.Subscribe(salesapp.NewItemCancelledHandler(log))

	if meterProvider.IsEnabled() {
		metricsHandler, err := telemetry.NewSaleMetricsHandler(meterProvider.Meter("sales"))
		if err != nil {
			return nil, err
		}
		bus.Subscribe(metricsHandler)
	}

	serializer := event.NewSaleEventSerializer()

	if cfg.Events.StreamEnabled {
		bus.Subscribe(event.NewRedisEventForwarder(redisClient, cfg.Events.StreamKey, cfg.Events.StreamMaxLen, serializer, log))
		log.Info("Forwarding sale events to redis stream", zap.String("stream", cfg.Events.StreamKey))
	}

	if cfg.Events.ArchiveEnabled {
		store, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		bus.Subscribe(event.NewObjectStoreArchiver(store, cfg.Events.ArchivePrefix, serializer, log))
		log.Info("Archiving sale events", zap.String("bucket", store.Bucket()))
	}

	return bus, nil
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	return cors
}
