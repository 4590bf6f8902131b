package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voxel-density-service/internal/pkg/errors"
	"github.com/voxel-density-service/internal/pkg/utils"
	"github.com/voxel-density-service/internal/usecase/dto"
)

// JobService - асинхронные задачи вокселизации (реализуется usecase.JobUseCase)
type JobService interface {
	Submit(ctx context.Context, req *dto.VoxelJobRequest) (*dto.JobSubmitResponse, error)
	GetResult(ctx context.Context, id uuid.UUID) (*dto.JobResult, error)
}

// JobHandler - обработчик асинхронных задач
type JobHandler struct {
	jobUC  JobService
	logger *zap.Logger
}

// NewJobHandler - создание нового JobHandler
func NewJobHandler(jobUC JobService, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		jobUC:  jobUC,
		logger: logger,
	}
}

// Submit godoc
// @Summary Поставить задачу вокселизации
// @Description Ставит вокселизацию набора данных в очередь (Redis Stream). Результат доступен по job_id.
// @Tags Jobs
// @Accept json
// @Produce json
// @Param request body dto.VoxelJobRequest true "Набор данных и параметры"
// @Success 202 {object} utils.SuccessResponse{data=dto.JobSubmitResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/jobs [post]
func (h *JobHandler) Submit(c *fiber.Ctx) error {
	var req dto.VoxelJobRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.Wrap(err))
	}

	result, err := h.jobUC.Submit(c.UserContext(), &req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendAccepted(c, result)
}

// GetResult godoc
// @Summary Статус и результат задачи
// @Tags Jobs
// @Produce json
// @Param id path string true "ID задачи"
// @Success 200 {object} utils.SuccessResponse{data=dto.JobResult}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/jobs/{id} [get]
func (h *JobHandler) GetResult(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"field": "id",
		}).Wrap(err))
	}

	result, err := h.jobUC.GetResult(c.UserContext(), id)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, nil)
}
