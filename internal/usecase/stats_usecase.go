package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/voxel-density-service/internal/domain"
	"github.com/voxel-density-service/internal/domain/repository"
	"github.com/voxel-density-service/internal/pkg/errors"
	"github.com/voxel-density-service/internal/usecase/dto"
)

// DatasetVoxelizer - вокселизация набора данных (реализуется VoxelUseCase)
type DatasetVoxelizer interface {
	VoxelizeDataset(ctx context.Context, req *dto.DatasetVoxelizeRequest) (*dto.VoxelizeResponse, error)
}

// StatsUseCase обрабатывает бизнес-логику для статистики наборов данных
type StatsUseCase struct {
	recordRepo repository.RecordRepository
	cacheRepo  repository.CacheRepository
	voxelizer  DatasetVoxelizer
	ttl        time.Duration
	logger     *zap.Logger
}

// NewStatsUseCase создает новый экземпляр StatsUseCase
func NewStatsUseCase(
	recordRepo repository.RecordRepository,
	cacheRepo repository.CacheRepository,
	voxelizer DatasetVoxelizer,
	ttl time.Duration,
	logger *zap.Logger,
) *StatsUseCase {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &StatsUseCase{
		recordRepo: recordRepo,
		cacheRepo:  cacheRepo,
		voxelizer:  voxelizer,
		ttl:        ttl,
		logger:     logger,
	}
}

// GetDatasetStatistics возвращает статистику, используя кеш когда возможно
func (uc *StatsUseCase) GetDatasetStatistics(ctx context.Context, dataset string) (*domain.DatasetStatistics, error) {
	if dataset == "" {
		return nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{"field": "dataset"})
	}

	// 1. Проверяем кеш
	cached, err := uc.cacheRepo.GetDatasetStats(ctx, dataset)
	if err == nil && cached != nil {
		uc.logger.Debug("Dataset statistics fetched from cache", zap.String("dataset", dataset))
		return cached, nil
	}

	if err != nil {
		uc.logger.Warn("Failed to get dataset stats from cache", zap.Error(err))
	}

	// 2. Считаем по данным
	return uc.compute(ctx, dataset, false)
}

// RefreshDatasetStatistics принудительно пересчитывает статистику
func (uc *StatsUseCase) RefreshDatasetStatistics(ctx context.Context, dataset string) (*domain.DatasetStatistics, error) {
	if dataset == "" {
		return nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{"field": "dataset"})
	}

	uc.logger.Info("Refreshing dataset statistics", zap.String("dataset", dataset))
	return uc.compute(ctx, dataset, true)
}

// ListDatasets возвращает наборы данных из хранилища
func (uc *StatsUseCase) ListDatasets(ctx context.Context) (*dto.DatasetsResponse, error) {
	datasets, err := uc.recordRepo.ListDatasets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	if datasets == nil {
		datasets = []*domain.Dataset{}
	}
	return &dto.DatasetsResponse{Datasets: datasets, Total: len(datasets)}, nil
}

func (uc *StatsUseCase) compute(ctx context.Context, dataset string, refresh bool) (*domain.DatasetStatistics, error) {
	resp, err := uc.voxelizer.VoxelizeDataset(ctx, &dto.DatasetVoxelizeRequest{
		Dataset: dataset,
		Refresh: refresh,
	})
	if err != nil {
		return nil, err
	}

	stats := &domain.DatasetStatistics{
		Dataset:      dataset,
		Bounds:       resp.Bounds,
		Grid:         resp.Grid,
		Voxels:       resp.Statistics,
		SkippedCount: resp.Report.Skipped,
		ComputedAt:   resp.ComputedAt,
	}

	// 3. Кешируем
	if err := uc.cacheRepo.SetDatasetStats(ctx, stats, uc.ttl); err != nil {
		uc.logger.Warn("Failed to cache dataset stats", zap.Error(err))
		// Не возвращаем ошибку, т.к. данные уже получены
	} else {
		uc.logger.Debug("Dataset statistics cached successfully", zap.String("dataset", dataset))
	}

	return stats, nil
}
