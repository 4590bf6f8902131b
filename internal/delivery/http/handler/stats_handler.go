package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/voxel-density-service/internal/domain"
	"github.com/voxel-density-service/internal/pkg/utils"
	"github.com/voxel-density-service/internal/usecase/dto"
)

// StatsService - статистика наборов данных (реализуется usecase.StatsUseCase)
type StatsService interface {
	GetDatasetStatistics(ctx context.Context, dataset string) (*domain.DatasetStatistics, error)
	RefreshDatasetStatistics(ctx context.Context, dataset string) (*domain.DatasetStatistics, error)
	ListDatasets(ctx context.Context) (*dto.DatasetsResponse, error)
}

// StatsHandler обрабатывает запросы для статистики
type StatsHandler struct {
	statsUC StatsService
	logger  *zap.Logger
}

// NewStatsHandler создает новый экземпляр StatsHandler
func NewStatsHandler(statsUC StatsService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		statsUC: statsUC,
		logger:  logger,
	}
}

// ListDatasets godoc
// @Summary List datasets
// @Description Возвращает наборы данных с количеством записей
// @Tags Statistics
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.DatasetsResponse}
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/datasets [get]
func (h *StatsHandler) ListDatasets(c *fiber.Ctx) error {
	result, err := h.statsUC.ListDatasets(c.UserContext())
	if err != nil {
		h.logger.Error("Failed to list datasets", zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{Total: result.Total})
}

// GetDatasetStatistics godoc
// @Summary Get dataset statistics
// @Description Возвращает статистику сетки плотности набора данных (границы, сетка, min/max/avg/медиана/p90 по ячейкам)
// @Tags Statistics
// @Produce json
// @Param dataset path string true "Имя набора данных"
// @Param refresh query bool false "Пересчитать статистику"
// @Success 200 {object} utils.SuccessResponse{data=domain.DatasetStatistics}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/datasets/{dataset}/stats [get]
func (h *StatsHandler) GetDatasetStatistics(c *fiber.Ctx) error {
	ctx := c.UserContext()
	dataset := c.Params("dataset")

	h.logger.Debug("Handling get dataset statistics request", zap.String("dataset", dataset))

	var (
		stats *domain.DatasetStatistics
		err   error
	)
	if c.QueryBool("refresh", false) {
		stats, err = h.statsUC.RefreshDatasetStatistics(ctx, dataset)
	} else {
		stats, err = h.statsUC.GetDatasetStatistics(ctx, dataset)
	}
	if err != nil {
		h.logger.Debug("Failed to get dataset statistics", zap.String("dataset", dataset), zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, stats, nil)
}
