package voxelize

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voxel-density-service/internal/domain"
	"github.com/voxel-density-service/internal/domain/repository"
	"github.com/voxel-density-service/internal/pkg/errors"
	"github.com/voxel-density-service/internal/usecase"
	"github.com/voxel-density-service/internal/usecase/dto"
	"github.com/voxel-density-service/internal/worker"
)

const retryBackoff = 500 * time.Millisecond

// JobStore - хранилище состояния задач (реализуется usecase.JobUseCase)
type JobStore interface {
	GetResult(ctx context.Context, id uuid.UUID) (*dto.JobResult, error)
	StoreResult(ctx context.Context, job *dto.JobResult) error
}

// JobWorker обрабатывает задачи вокселизации из stream:voxel:jobs
type JobWorker struct {
	*worker.BaseWorker
	streamRepo repository.StreamRepository
	voxelizer  usecase.DatasetVoxelizer
	jobs       JobStore
	maxRetries int
}

// NewJobWorker создает новый JobWorker
func NewJobWorker(
	streamRepo repository.StreamRepository,
	voxelizer usecase.DatasetVoxelizer,
	jobs JobStore,
	consumerGroup string,
	maxRetries int,
	logger *zap.Logger,
) *JobWorker {
	if maxRetries < 1 {
		maxRetries = 1
	}

	return &JobWorker{
		BaseWorker: worker.NewBaseWorker("voxel-jobs", domain.StreamVoxelJobs, consumerGroup, logger),
		streamRepo: streamRepo,
		voxelizer:  voxelizer,
		jobs:       jobs,
		maxRetries: maxRetries,
	}
}

// Start запускает воркер
func (w *JobWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting JobWorker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.Consumer()),
		zap.Int("max_retries", w.maxRetries))

	// Создаем consumer group, если его нет
	if err := w.streamRepo.CreateConsumerGroup(ctx, w.Stream(), w.ConsumerGroup()); err != nil {
		logger.Error("Failed to create consumer group", zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	msgChan, err := w.streamRepo.ConsumeStream(ctx, w.Stream(), w.ConsumerGroup(), w.Consumer())
	if err != nil {
		logger.Error("Failed to consume stream", zap.Error(err))
		return fmt.Errorf("failed to consume stream: %w", err)
	}

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()

		case msg, ok := <-msgChan:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("Message channel closed")
				return fmt.Errorf("message channel closed")
			}

			if err := w.processMessage(ctx, msg); err != nil {
				// сообщение остается в pending и будет перечитано после рестарта
				logger.Error("Failed to process message",
					zap.String("message_id", msg.ID),
					zap.Error(err))
				continue
			}

			if err := w.streamRepo.AckMessage(ctx, w.Stream(), w.ConsumerGroup(), msg.ID); err != nil {
				logger.Error("Failed to acknowledge message",
					zap.String("message_id", msg.ID),
					zap.Error(err))
			}
		}
	}
}

// processMessage выполняет задачу и публикует результат. Ошибка возвращается
// только если результат не удалось сохранить.
func (w *JobWorker) processMessage(ctx context.Context, msg domain.StreamMessage) error {
	logger := w.Logger()

	var event domain.VoxelJobEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil || event.JobID == uuid.Nil {
		// Битое сообщение ACK'аем и пропускаем (dead letter pattern)
		logger.Error("Failed to unmarshal event",
			zap.String("message_id", msg.ID),
			zap.String("raw_data", msg.Data),
			zap.Error(err))
		w.MarkSkipped()
		return nil
	}

	logger = logger.With(zap.String("job_id", event.JobID.String()), zap.String("dataset", event.Dataset))

	job := w.loadJob(ctx, event)
	resp, runErr := w.run(ctx, event)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	done := domain.VoxelJobDoneEvent{
		JobID:     event.JobID,
		Dataset:   event.Dataset,
		ResultKey: usecase.JobKey(event.JobID),
	}
	completed := time.Now().UTC()
	job.CompletedAt = &completed
	if runErr != nil {
		logger.Warn("Voxel job failed", zap.Error(runErr))
		job.Status = dto.JobStatusFailed
		job.Error = runErr.Error()
		done.Error = runErr.Error()
	} else {
		job.Status = dto.JobStatusDone
		job.Result = resp
		done.Statistics = &resp.Statistics
	}

	if err := w.jobs.StoreResult(ctx, job); err != nil {
		return fmt.Errorf("store job result: %w", err)
	}
	if runErr != nil {
		w.MarkFailed()
	} else {
		w.MarkProcessed()
	}

	if err := w.streamRepo.PublishToStream(ctx, domain.StreamVoxelDone, done); err != nil {
		// результат уже сохранен, клиент получит его по job_id
		logger.Error("Failed to publish done event", zap.Error(err))
	}

	logger.Info("Voxel job processed", zap.String("status", job.Status))
	return nil
}

func (w *JobWorker) loadJob(ctx context.Context, event domain.VoxelJobEvent) *dto.JobResult {
	job, err := w.jobs.GetResult(ctx, event.JobID)
	if err != nil {
		if !stderrors.Is(err, errors.ErrResultNotFound) {
			w.Logger().Warn("Failed to load job state", zap.String("job_id", event.JobID.String()), zap.Error(err))
		}
		job = &dto.JobResult{JobID: event.JobID, SubmittedAt: time.Now().UTC()}
	}
	job.Dataset = event.Dataset
	job.Error = ""
	job.Result = nil
	return job
}

// run выполняет вокселизацию, повторяя попытку при временных ошибках
func (w *JobWorker) run(ctx context.Context, event domain.VoxelJobEvent) (*dto.VoxelizeResponse, error) {
	req := &dto.DatasetVoxelizeRequest{
		Dataset:    event.Dataset,
		Categories: event.Categories,
		BBox:       event.BBox,
	}
	if len(event.Options) > 0 {
		if err := json.Unmarshal(event.Options, &req.Options); err != nil {
			return nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
				"field": "options",
			}).Wrap(err)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		resp, err := w.voxelizer.VoxelizeDataset(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable(err) || attempt == w.maxRetries {
			break
		}

		w.Logger().Debug("Retrying voxel job",
			zap.String("job_id", event.JobID.String()),
			zap.Int("attempt", attempt),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryBackoff * time.Duration(attempt)):
		}
	}
	return nil, lastErr
}

// retryable - ошибки клиента (4xx) повторять бессмысленно
func retryable(err error) bool {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.StatusCode >= 500
	}
	return true
}
