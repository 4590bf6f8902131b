package main

// @title Voxel Density Service API
// @version 1.0.0
// @description Сервис построения 3D сеток плотности по геопространственным записям (точки и треки) из PostGIS.
// @description
// @description Основные возможности:
// @description - Вокселизация переданных записей и наборов данных с кешированием результата
// @description - Автоматический подбор размера ячейки (basic, occupancy)
// @description - Агрегация по категориям и адаптивные параметры отрисовки
// @description - Асинхронные задачи через Redis Streams
// @description - Статистика по наборам данных

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/voxel-density-service/docs"
	"github.com/voxel-density-service/internal/config"
	httpDelivery "github.com/voxel-density-service/internal/delivery/http"
	"github.com/voxel-density-service/internal/delivery/http/handler"
	"github.com/voxel-density-service/internal/pkg/logger"
	"github.com/voxel-density-service/internal/repository/cache"
	"github.com/voxel-density-service/internal/repository/postgres"
	redisRepo "github.com/voxel-density-service/internal/repository/redis"
	"github.com/voxel-density-service/internal/usecase"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Voxel Density Service")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.Float64("voxel_size", cfg.Voxel.TargetSize),
		zap.Bool("tile_index", cfg.Voxel.TileIndex),
	)

	// 3. Connect to PostgreSQL
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	log.Info("PostgreSQL connected")

	// 4. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	log.Info("Redis connected")

	// 5. Health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.Health(ctx); err != nil {
		log.Fatal("PostgreSQL health check failed", zap.Error(err))
	}

	if err := redisClient.Health(ctx); err != nil {
		log.Fatal("Redis health check failed", zap.Error(err))
	}

	log.Info("All connections healthy")

	// 6. Initialize Repositories
	recordRepo := postgres.NewRecordRepository(db)
	cacheRepo := cache.NewCacheRepository(redisClient)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), log)

	log.Info("Repositories initialized")

	// 7. Initialize Use Cases
	voxelUC, err := usecase.NewVoxelUseCase(recordRepo, cacheRepo, usecase.VoxelUseCaseConfig{
		Defaults:       cfg.EngineOptions(),
		Index:          cfg.SpatialIndex(),
		LocalCacheSize: cfg.Cache.LocalCacheSize,
		ResultTTL:      cfg.Cache.ResultCacheTTL,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize voxel use case", zap.Error(err))
	}

	statsUC := usecase.NewStatsUseCase(recordRepo, cacheRepo, voxelUC, cfg.Cache.StatsCacheTTL, log)
	jobUC := usecase.NewJobUseCase(streamRepo, cacheRepo, cfg.Cache.JobResultTTL, log)

	log.Info("Use cases initialized")

	// 8. Initialize HTTP Handlers
	voxelHandler := handler.NewVoxelHandler(voxelUC, log)
	statsHandler := handler.NewStatsHandler(statsUC, log)
	jobHandler := handler.NewJobHandler(jobUC, log)

	log.Info("HTTP handlers initialized")

	// 9. Initialize HTTP Server
	server := httpDelivery.NewServer(
		cfg,
		log,
		map[string]httpDelivery.HealthChecker{
			"postgres": db,
			"redis":    redisClient,
		},
		voxelHandler,
		statsHandler,
		jobHandler,
	)

	log.Info("HTTP server initialized")

	// 10. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 11. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	if err := db.Close(); err != nil {
		log.Error("Failed to close PostgreSQL", zap.Error(err))
	}

	if err := redisClient.Close(); err != nil {
		log.Error("Failed to close Redis", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}
