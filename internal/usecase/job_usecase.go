package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voxel-density-service/internal/domain"
	"github.com/voxel-density-service/internal/domain/repository"
	"github.com/voxel-density-service/internal/pkg/errors"
	"github.com/voxel-density-service/internal/usecase/dto"
)

const jobKeyPrefix = "voxel:job:"

// JobKey возвращает ключ кеша, под которым хранится состояние задачи
func JobKey(id uuid.UUID) string {
	return jobKeyPrefix + id.String()
}

// JobUseCase ставит задачи вокселизации в Redis Stream и хранит их результаты
type JobUseCase struct {
	streamRepo repository.StreamRepository
	cacheRepo  repository.CacheRepository
	ttl        time.Duration
	logger     *zap.Logger
}

// NewJobUseCase создает новый экземпляр JobUseCase
func NewJobUseCase(
	streamRepo repository.StreamRepository,
	cacheRepo repository.CacheRepository,
	ttl time.Duration,
	logger *zap.Logger,
) *JobUseCase {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JobUseCase{
		streamRepo: streamRepo,
		cacheRepo:  cacheRepo,
		ttl:        ttl,
		logger:     logger,
	}
}

// Submit сохраняет задачу в статусе queued и публикует событие в стрим
func (uc *JobUseCase) Submit(ctx context.Context, req *dto.VoxelJobRequest) (*dto.JobSubmitResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	options, err := json.Marshal(req.Options)
	if err != nil {
		return nil, errors.ErrInvalidRequest.Wrap(err)
	}

	job := &dto.JobResult{
		JobID:       uuid.New(),
		Dataset:     req.Dataset,
		Status:      dto.JobStatusQueued,
		SubmittedAt: time.Now().UTC(),
	}
	if err := uc.StoreResult(ctx, job); err != nil {
		return nil, err
	}

	event := domain.VoxelJobEvent{
		JobID:      job.JobID,
		Dataset:    req.Dataset,
		Categories: req.Categories,
		BBox:       req.BBox,
		Options:    options,
	}
	if err := uc.streamRepo.PublishToStream(ctx, domain.StreamVoxelJobs, event); err != nil {
		uc.logger.Error("Failed to publish voxel job",
			zap.String("job_id", job.JobID.String()),
			zap.Error(err))
		uc.markUnpublished(ctx, job, err)
		return nil, errors.ErrInternalServer.Wrap(err)
	}

	uc.logger.Info("Voxel job submitted",
		zap.String("job_id", job.JobID.String()),
		zap.String("dataset", req.Dataset))

	return &dto.JobSubmitResponse{JobID: job.JobID, Status: job.Status}, nil
}

// markUnpublished помечает задачу failed, если событие не попало в стрим
func (uc *JobUseCase) markUnpublished(ctx context.Context, job *dto.JobResult, cause error) {
	completed := time.Now().UTC()
	job.Status = dto.JobStatusFailed
	job.Error = fmt.Sprintf("job was not queued: %v", cause)
	job.CompletedAt = &completed
	if err := uc.StoreResult(ctx, job); err != nil {
		uc.logger.Warn("Failed to mark unpublished job as failed",
			zap.String("job_id", job.JobID.String()),
			zap.Error(err))
	}
}

// GetResult возвращает состояние задачи
func (uc *JobUseCase) GetResult(ctx context.Context, id uuid.UUID) (*dto.JobResult, error) {
	data, err := uc.cacheRepo.Get(ctx, JobKey(id))
	if err != nil {
		return nil, errors.ErrCacheError.Wrap(err)
	}
	if data == nil {
		return nil, errors.ErrResultNotFound.WithDetails(map[string]interface{}{"job_id": id.String()})
	}

	var job dto.JobResult
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, errors.ErrInternalServer.Wrap(fmt.Errorf("unmarshal job result: %w", err))
	}
	return &job, nil
}

// StoreResult сохраняет состояние задачи с TTL результата
func (uc *JobUseCase) StoreResult(ctx context.Context, job *dto.JobResult) error {
	data, err := json.Marshal(job)
	if err != nil {
		return errors.ErrInternalServer.Wrap(fmt.Errorf("marshal job result: %w", err))
	}
	if err := uc.cacheRepo.Set(ctx, JobKey(job.JobID), data, uc.ttl); err != nil {
		uc.logger.Error("Failed to store job result",
			zap.String("job_id", job.JobID.String()),
			zap.Error(err))
		return errors.ErrCacheError.Wrap(err)
	}
	return nil
}
