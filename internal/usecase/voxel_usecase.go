package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/voxel-density-service/internal/domain"
	"github.com/voxel-density-service/internal/domain/repository"
	"github.com/voxel-density-service/internal/pkg/errors"
	"github.com/voxel-density-service/internal/pkg/validator"
	"github.com/voxel-density-service/internal/usecase/dto"
	"github.com/voxel-density-service/internal/voxel"
)

const (
	defaultAltitudeStep   = 10.0
	defaultLocalCacheSize = 128
)

// VoxelUseCaseConfig - параметры VoxelUseCase
type VoxelUseCaseConfig struct {
	// Defaults - параметры движка, поверх которых накладываются опции запроса
	Defaults voxel.Options
	// Index - тайловый индекс по умолчанию (nil - равномерная сетка)
	Index          voxel.SpatialIndex
	LocalCacheSize int
	ResultTTL      time.Duration
}

// VoxelUseCase обрабатывает бизнес-логику вокселизации
type VoxelUseCase struct {
	recordRepo repository.RecordRepository
	cacheRepo  repository.CacheRepository
	engine     *voxel.Engine
	local      *lru.Cache[string, *dto.VoxelizeResponse]
	cfg        VoxelUseCaseConfig
	logger     *zap.Logger
}

// NewVoxelUseCase создает новый экземпляр VoxelUseCase
func NewVoxelUseCase(
	recordRepo repository.RecordRepository,
	cacheRepo repository.CacheRepository,
	cfg VoxelUseCaseConfig,
	logger *zap.Logger,
) (*VoxelUseCase, error) {
	if cfg.LocalCacheSize <= 0 {
		cfg.LocalCacheSize = defaultLocalCacheSize
	}
	local, err := lru.New[string, *dto.VoxelizeResponse](cfg.LocalCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create local cache: %w", err)
	}

	return &VoxelUseCase{
		recordRepo: recordRepo,
		cacheRepo:  cacheRepo,
		engine:     voxel.NewEngine(logger),
		local:      local,
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// Voxelize вокселизирует записи, переданные в запросе
func (uc *VoxelUseCase) Voxelize(ctx context.Context, req *dto.VoxelizeRequest) (*dto.VoxelizeResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	records := make([]domain.Record, 0, len(req.Records)+len(req.Tracks))
	for _, r := range req.Records {
		if r != nil {
			records = append(records, r)
		}
	}
	for _, t := range req.Tracks {
		if t != nil {
			records = append(records, domain.NewTrackRecord(t.ID, t.Samples, t.Properties))
		}
	}

	res, err := uc.engine.Run(ctx, records, buildOptions(uc.cfg.Defaults, uc.cfg.Index, req.Options))
	if err != nil {
		return nil, err
	}
	return dto.NewVoxelizeResponse("", res), nil
}

// VoxelizeDataset вокселизирует набор данных из хранилища.
// Результат кешируется в памяти процесса и в Redis.
func (uc *VoxelUseCase) VoxelizeDataset(ctx context.Context, req *dto.DatasetVoxelizeRequest) (*dto.VoxelizeResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	cacheKey, err := uc.createCacheKey(req)
	if err != nil {
		return nil, errors.ErrInternalServer.Wrap(err)
	}

	if !req.Refresh {
		if resp := uc.getCached(ctx, cacheKey); resp != nil {
			return resp, nil
		}
	}

	records, err := uc.loadRecords(ctx, req.Dataset, req.Categories, req.BBox, req.Limit)
	if err != nil {
		return nil, err
	}

	res, err := uc.engine.Run(ctx, records, buildOptions(uc.cfg.Defaults, uc.cfg.Index, req.Options))
	if err != nil {
		return nil, err
	}
	resp := dto.NewVoxelizeResponse(req.Dataset, res)

	uc.setCached(ctx, cacheKey, resp)
	return resp, nil
}

// EstimateVoxelSize оценивает размер ячейки по границам и числу записей
func (uc *VoxelUseCase) EstimateVoxelSize(ctx context.Context, req *dto.EstimateRequest) (*dto.EstimateResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var records []domain.Record
	if len(req.Records) > 0 {
		records = make([]domain.Record, 0, len(req.Records))
		for _, r := range req.Records {
			if r != nil {
				records = append(records, r)
			}
		}
	} else {
		var err error
		if records, err = uc.loadRecords(ctx, req.Dataset, req.Categories, req.BBox, 0); err != nil {
			return nil, err
		}
	}

	cfg := uc.cfg.Defaults.Estimator
	if req.Mode != "" {
		cfg.Mode = voxel.EstimatorMode(req.Mode)
	}
	setFloat(&cfg.MinSize, req.MinSize)
	setFloat(&cfg.MaxSize, req.MaxSize)
	setFloat(&cfg.TargetFill, req.TargetFill)
	if req.RenderBudget != nil {
		cfg.RenderBudget = *req.RenderBudget
	}

	estimator, err := voxel.NewEstimator(cfg, uc.logger)
	if err != nil {
		return nil, err
	}

	bounds, report, err := voxel.CalculateBounds(records, uc.cfg.Defaults.ReferenceTime)
	if err != nil {
		return nil, err
	}
	est := estimator.Estimate(bounds, report.Resolved)
	grid, err := voxel.CalculateGrid(bounds, est.Size)
	if err != nil {
		return nil, err
	}

	return &dto.EstimateResponse{
		Bounds:     bounds,
		Records:    report.Resolved,
		Skipped:    report.Skipped,
		Estimation: est,
		Grid:       grid,
	}, nil
}

func (uc *VoxelUseCase) loadRecords(
	ctx context.Context,
	dataset string,
	categories []string,
	bbox *domain.BoundingBox,
	limit int,
) ([]domain.Record, error) {
	rows, err := uc.recordRepo.ListByDataset(ctx, repository.RecordFilter{
		Dataset:    dataset,
		Categories: categories,
		BBox:       bbox,
		Limit:      limit,
	})
	if err != nil {
		uc.logger.Error("Failed to load dataset records",
			zap.String("dataset", dataset),
			zap.Error(err))
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.ErrDatasetNotFound.WithDetails(map[string]interface{}{"dataset": dataset})
	}

	records := make([]domain.Record, len(rows))
	for i, r := range rows {
		records[i] = r
	}
	return records, nil
}

func (uc *VoxelUseCase) getCached(ctx context.Context, key string) *dto.VoxelizeResponse {
	if resp, ok := uc.local.Get(key); ok {
		uc.logger.Debug("Voxel result local cache hit", zap.String("key", key))
		return markCached(resp)
	}

	data, err := uc.cacheRepo.Get(ctx, key)
	if err != nil {
		uc.logger.Warn("Failed to get voxel result from cache", zap.String("key", key), zap.Error(err))
		return nil
	}
	if data == nil {
		return nil
	}

	var resp dto.VoxelizeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		uc.logger.Warn("Failed to unmarshal cached voxel result", zap.String("key", key), zap.Error(err))
		return nil
	}
	uc.local.Add(key, &resp)

	uc.logger.Debug("Voxel result cache hit", zap.String("key", key))
	return markCached(&resp)
}

func (uc *VoxelUseCase) setCached(ctx context.Context, key string, resp *dto.VoxelizeResponse) {
	uc.local.Add(key, resp)

	data, err := json.Marshal(resp)
	if err != nil {
		uc.logger.Warn("Failed to marshal voxel result", zap.Error(err))
		return
	}
	if err := uc.cacheRepo.Set(ctx, key, data, uc.cfg.ResultTTL); err != nil {
		uc.logger.Warn("Failed to cache voxel result",
			zap.String("key", key),
			zap.Error(err))
		// Не возвращаем ошибку, т.к. результат уже получен
	}
}

// markCached возвращает копию с флагом Cached, не трогая значение в кеше
func markCached(resp *dto.VoxelizeResponse) *dto.VoxelizeResponse {
	cp := *resp
	cp.Cached = true
	return &cp
}

// createCacheKey создает ключ кеша по нормализованному запросу
func (uc *VoxelUseCase) createCacheKey(req *dto.DatasetVoxelizeRequest) (string, error) {
	// Сортируем категории для стабильного хеша
	categories := make([]string, len(req.Categories))
	copy(categories, req.Categories)
	sort.Strings(categories)

	params, err := json.Marshal(struct {
		Categories []string            `json:"c"`
		BBox       *domain.BoundingBox `json:"b"`
		Limit      int                 `json:"l"`
		Options    dto.VoxelOptions    `json:"o"`
	}{categories, req.BBox, req.Limit, req.Options})
	if err != nil {
		return "", fmt.Errorf("marshal cache key params: %w", err)
	}

	return fmt.Sprintf("voxel:dataset:%s:%x", req.Dataset, md5.Sum(params)), nil
}

func validateRequest(req interface{}) error {
	if err := validator.Validate(req); err != nil {
		return errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"fields": validator.Fields(err),
		}).Wrap(err)
	}
	return nil
}
