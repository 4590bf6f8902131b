package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/voxel-density-service/internal/config"
	"github.com/voxel-density-service/internal/pkg/logger"
	"github.com/voxel-density-service/internal/repository/cache"
	"github.com/voxel-density-service/internal/repository/postgres"
	redisRepo "github.com/voxel-density-service/internal/repository/redis"
	"github.com/voxel-density-service/internal/usecase"
	"github.com/voxel-density-service/internal/worker"
	"github.com/voxel-density-service/internal/worker/voxelize"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Check if worker is enabled
	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Voxel Job Worker")
	log.Info("Configuration loaded",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("max_retries", cfg.Worker.MaxRetries),
		zap.Duration("job_result_ttl", cfg.Cache.JobResultTTL))

	// 3. Connect to PostgreSQL
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close PostgreSQL connection", zap.Error(err))
		}
	}()

	// 4. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// 5. Initialize repositories
	recordRepo := postgres.NewRecordRepository(db)
	cacheRepo := cache.NewCacheRepository(redisClient)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), log)

	// 6. Initialize use cases
	voxelUC, err := usecase.NewVoxelUseCase(recordRepo, cacheRepo, usecase.VoxelUseCaseConfig{
		Defaults:       cfg.EngineOptions(),
		Index:          cfg.SpatialIndex(),
		LocalCacheSize: cfg.Cache.LocalCacheSize,
		ResultTTL:      cfg.Cache.ResultCacheTTL,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize voxel use case", zap.Error(err))
	}
	jobUC := usecase.NewJobUseCase(streamRepo, cacheRepo, cfg.Cache.JobResultTTL, log)

	// 7. Initialize workers
	jobWorker := voxelize.NewJobWorker(
		streamRepo,
		voxelUC,
		jobUC,
		cfg.Worker.ConsumerGroup,
		cfg.Worker.MaxRetries,
		log,
	)

	// 8. Create worker manager and register workers
	workerManager := worker.NewWorkerManager(log, cfg.Worker.ShutdownTimeout)
	workerManager.Register(jobWorker)

	// 9. Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start workers
	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	// Cancel context to stop workers
	cancel()

	// Stop worker manager
	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Worker shutdown complete")
}
