package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arabella/vidforge/config"
	"github.com/arabella/vidforge/internal/catalog"
	"github.com/arabella/vidforge/internal/infrastructure/artifact"
	"github.com/arabella/vidforge/internal/infrastructure/auth"
	"github.com/arabella/vidforge/internal/infrastructure/cache"
	"github.com/arabella/vidforge/internal/infrastructure/database"
	"github.com/arabella/vidforge/internal/infrastructure/jobstore"
	"github.com/arabella/vidforge/internal/infrastructure/provider"
	"github.com/arabella/vidforge/internal/infrastructure/queue"
	vidforgehttp "github.com/arabella/vidforge/internal/interface/http"
	"github.com/arabella/vidforge/internal/interface/http/handler"
	"github.com/arabella/vidforge/internal/interface/http/middleware"
	"github.com/arabella/vidforge/internal/worker"
	"github.com/arabella/vidforge/internal/workflow"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version and BuildTime are set at build time via -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)
	defer logger.Sync()

	logger.Info("starting vidforge",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("environment", string(cfg.App.Environment)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewPostgresDB(ctx, database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxConnections:  cfg.Database.MaxConnections,
		MinConnections:  cfg.Database.MinConnections,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	}, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisCache, err := cache.NewRedisCache(ctx, cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, logger)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisCache.Close()

	jobStore := jobstore.NewStore(db.Pool(), logger)

	queueManager := queue.NewManager(queue.Config{MaxDepth: cfg.Queue.MaxDepth}, redisCache.Client(), logger)
	if err := queueManager.LoadSnapshot(ctx); err != nil {
		logger.Warn("failed to load queue snapshot, starting empty", zap.Error(err))
	}

	providerRegistry := provider.NewRegistry(logger)
	if cfg.Provider.UseMockProvider {
		providerRegistry.Register(provider.NewMockAdapter(logger, true, cfg.Provider.MockFailureRate))
	}
	if cfg.Provider.VeoAPIKey != "" {
		providerRegistry.Register(provider.NewVeoAdapter(
			cfg.Provider.VeoAPIKey,
			cfg.Provider.VeoBaseURL,
			cfg.Provider.AdapterTimeout,
			cfg.Provider.RetryMaxAttempts,
			cfg.Provider.RetryInitialWait,
			logger,
		))
	}

	modelRegistry := catalog.NewRegistry(catalog.DefaultModels(), "veo-3.0")

	artifactStore := artifact.NewStore(artifact.Config{
		Region:      cfg.Storage.S3Region,
		Bucket:      cfg.Storage.S3Bucket,
		CDNBaseURL:  cfg.Storage.CDNBaseURL,
		AccessKey:   cfg.Storage.AWSAccessKey,
		SecretKey:   cfg.Storage.AWSSecretKey,
		PresignTTL:  cfg.Storage.PresignTTL,
		MaxFileSize: cfg.Storage.MaxFileSizeBytes,
	}, logger)

	wf := workflow.New(jobStore, queueManager, providerRegistry, modelRegistry, artifactStore, logger, true, true)

	workerRuntime := worker.New(worker.Config{
		ID:                fmt.Sprintf("inproc-%s", uuid.New()),
		Name:              "vidforge-inprocess-worker",
		MaxConcurrency:    cfg.Worker.MaxConcurrentJobs,
		HeartbeatInterval: cfg.Worker.HeartbeatInterval,
		PollInterval:      cfg.Worker.PollInterval,
	}, queueManager, wf, logger)
	workerRuntime.Start(ctx)

	tokenValidator := auth.NewValidator(auth.Config{Secret: cfg.Auth.JWTSecret, Issuer: cfg.Auth.Issuer})
	rateLimiter := cache.NewRateLimiter(redisCache.Client())

	handlers := vidforgehttp.Handlers{
		Health:     handler.NewHealthHandler(cfg.App.Environment, cfg.App.Version),
		Generation: handler.NewGenerationHandler(wf),
		Queue:      handler.NewQueueHandler(jobStore, queueManager),
		Storage:    handler.NewStorageHandler(artifactStore),
		Worker:     handler.NewWorkerHandler(queueManager),
		Cron: handler.NewCronHandler(
			jobStore, artifactStore, queueManager,
			time.Duration(cfg.Storage.CleanupRetentionDays)*24*time.Hour,
			cfg.Queue.WorkerHeartbeatTimeout,
			logger,
		),
	}

	mw := vidforgehttp.Middleware{
		Auth:      middleware.NewAuthMiddleware(tokenValidator),
		RateLimit: middleware.NewRateLimitMiddleware(rateLimiter),
		Logging:   middleware.NewLoggingMiddleware(logger),
	}

	router := vidforgehttp.NewRouter(cfg, handlers, mw)

	retention := time.Duration(cfg.Storage.CleanupRetentionDays) * 24 * time.Hour
	cleanupScheduler := cron.New()
	if _, err := cleanupScheduler.AddFunc("@daily", func() {
		logger.Info("running scheduled cleanup")
		if n, err := jobStore.Cleanup(ctx, retention); err != nil {
			logger.Error("scheduled job cleanup failed", zap.Error(err))
		} else {
			logger.Info("scheduled job cleanup complete", zap.Int("jobs_cleaned", n))
		}
		if n, err := artifactStore.Cleanup(ctx, retention); err != nil {
			logger.Error("scheduled artifact cleanup failed", zap.Error(err))
		} else {
			logger.Info("scheduled artifact cleanup complete", zap.Int("videos_cleaned", n))
		}
		if n, err := queueManager.CleanupInactiveWorkers(ctx, cfg.Queue.WorkerHeartbeatTimeout); err != nil {
			logger.Error("scheduled worker cleanup failed", zap.Error(err))
		} else {
			logger.Info("scheduled worker cleanup complete", zap.Int("workers_cleaned", n))
		}
	}); err != nil {
		logger.Fatal("failed to schedule cleanup job", zap.Error(err))
	}
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	workerRuntime.Stop(shutdownCtx)

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped gracefully")
}

func initLogger(cfg *config.Config) *zap.Logger {
	var zapConfig zap.Config

	if cfg.IsDevelopment() {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.TimeKey = "timestamp"
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	logger, err := zapConfig.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	return logger
}
