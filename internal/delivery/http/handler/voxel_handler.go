package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/voxel-density-service/internal/domain"
	"github.com/voxel-density-service/internal/pkg/errors"
	"github.com/voxel-density-service/internal/pkg/utils"
	"github.com/voxel-density-service/internal/usecase/dto"
)

// VoxelService - операции вокселизации (реализуется usecase.VoxelUseCase)
type VoxelService interface {
	Voxelize(ctx context.Context, req *dto.VoxelizeRequest) (*dto.VoxelizeResponse, error)
	VoxelizeDataset(ctx context.Context, req *dto.DatasetVoxelizeRequest) (*dto.VoxelizeResponse, error)
	EstimateVoxelSize(ctx context.Context, req *dto.EstimateRequest) (*dto.EstimateResponse, error)
}

// VoxelHandler - обработчик запросов вокселизации
type VoxelHandler struct {
	voxelUC VoxelService
	logger  *zap.Logger
}

// NewVoxelHandler - создание нового VoxelHandler
func NewVoxelHandler(voxelUC VoxelService, logger *zap.Logger) *VoxelHandler {
	return &VoxelHandler{
		voxelUC: voxelUC,
		logger:  logger,
	}
}

// Voxelize godoc
// @Summary Вокселизация переданных записей
// @Description Строит 3D сетку плотности по точкам и трекам из тела запроса. Возвращает статистику, непустые ячейки и (опционально) адаптивные параметры отрисовки.
// @Tags Voxels
// @Accept json
// @Produce json
// @Param request body dto.VoxelizeRequest true "Записи и параметры вокселизации"
// @Success 200 {object} utils.SuccessResponse{data=dto.VoxelizeResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/voxels [post]
func (h *VoxelHandler) Voxelize(c *fiber.Ctx) error {
	var req dto.VoxelizeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.Wrap(err))
	}

	start := time.Now()
	result, err := h.voxelUC.Voxelize(c.UserContext(), &req)
	if err != nil {
		h.logger.Debug("Voxelize failed", zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		Total:    len(result.Cells),
		TimeMSec: utils.ElapsedMSec(start),
	})
}

// Estimate godoc
// @Summary Оценка размера ячейки
// @Description Подбирает размер ячейки по границам и количеству записей (режимы basic и occupancy) без классификации
// @Tags Voxels
// @Accept json
// @Produce json
// @Param request body dto.EstimateRequest true "Записи или набор данных и параметры оценки"
// @Success 200 {object} utils.SuccessResponse{data=dto.EstimateResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/voxels/estimate [post]
func (h *VoxelHandler) Estimate(c *fiber.Ctx) error {
	var req dto.EstimateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.Wrap(err))
	}

	result, err := h.voxelUC.EstimateVoxelSize(c.UserContext(), &req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, nil)
}

// GetDatasetVoxels godoc
// @Summary Вокселизация набора данных
// @Description Загружает записи набора данных из PostGIS и строит сетку плотности. Результат кешируется.
// @Tags Voxels
// @Produce json
// @Param dataset path string true "Имя набора данных"
// @Param categories query string false "Категории через запятую"
// @Param bbox query string false "Ограничивающий прямоугольник: min_lon,min_lat,max_lon,max_lat"
// @Param limit query int false "Максимальное количество записей"
// @Param voxel_size query number false "Размер ячейки в метрах"
// @Param auto_size query bool false "Автоматический подбор размера ячейки"
// @Param estimator query string false "Режим оценки (basic, occupancy)"
// @Param render_budget query int false "Максимальное количество ячеек в ответе"
// @Param include_empty query bool false "Включать пустые ячейки"
// @Param top_n query int false "Количество самых плотных ячеек для выделения"
// @Param aggregate query bool false "Агрегация по категориям"
// @Param key_field query string false "Свойство для агрегации" default(category)
// @Param adaptive query bool false "Адаптивные параметры отрисовки"
// @Param preset query string false "Пресет (thin, medium, thick, adaptive, topn-focus, uniform)"
// @Param render_mode query string false "Режим отрисовки (standard, inset, emulation-only)"
// @Param tile_index query bool false "Классификация по тайловому индексу"
// @Param zoom query int false "Уровень тайлового индекса"
// @Param at query string false "Момент времени (RFC3339) для треков"
// @Param refresh query bool false "Пересчитать, игнорируя кеш"
// @Success 200 {object} utils.SuccessResponse{data=dto.VoxelizeResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/datasets/{dataset}/voxels [get]
func (h *VoxelHandler) GetDatasetVoxels(c *fiber.Ctx) error {
	req, err := parseDatasetRequest(c)
	if err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"error": err.Error(),
		}).Wrap(err))
	}

	start := time.Now()
	result, err := h.voxelUC.VoxelizeDataset(c.UserContext(), req)
	if err != nil {
		h.logger.Debug("Dataset voxelization failed",
			zap.String("dataset", req.Dataset),
			zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		Total:    len(result.Cells),
		TimeMSec: utils.ElapsedMSec(start),
		Cached:   result.Cached,
	})
}

func parseDatasetRequest(c *fiber.Ctx) (*dto.DatasetVoxelizeRequest, error) {
	req := &dto.DatasetVoxelizeRequest{
		Dataset:    c.Params("dataset"),
		Categories: splitList(c.Query("categories")),
		Limit:      c.QueryInt("limit", 0),
		Refresh:    c.QueryBool("refresh", false),
	}

	if raw := c.Query("bbox"); raw != "" {
		bbox, err := parseBBox(raw)
		if err != nil {
			return nil, err
		}
		req.BBox = bbox
	}

	o := &req.Options
	if raw := c.Query("voxel_size"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid voxel_size %q", raw)
		}
		o.VoxelSize = &v
	}
	o.AutoVoxelSize = queryBool(c, "auto_size")
	o.EstimatorMode = c.Query("estimator")
	o.IncludeEmpty = queryBool(c, "include_empty")
	o.TileIndex = queryBool(c, "tile_index")
	o.IndexZoom = c.QueryInt("zoom", 0)
	if v := c.QueryInt("render_budget", 0); v != 0 {
		o.RenderBudget = &v
	}
	if raw := c.Query("top_n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid top_n %q", raw)
		}
		o.TopN = &v
	}
	if raw := c.Query("at"); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid at %q: %w", raw, err)
		}
		o.ReferenceTime = &at
	}
	if c.QueryBool("aggregate", false) {
		o.Aggregation = &dto.AggregationOptions{
			Enabled:  true,
			KeyField: c.Query("key_field"),
		}
	}
	if c.QueryBool("adaptive", false) {
		o.Adaptive = &dto.AdaptiveOptions{
			Enabled:    true,
			Preset:     c.Query("preset"),
			RenderMode: c.Query("render_mode"),
		}
	}
	return req, nil
}

// parseBBox разбирает "min_lon,min_lat,max_lon,max_lat"
func parseBBox(raw string) (*domain.BoundingBox, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bbox must have 4 values, got %d", len(parts))
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bbox value %q", p)
		}
		v[i] = f
	}
	return &domain.BoundingBox{MinLon: v[0], MinLat: v[1], MaxLon: v[2], MaxLat: v[3]}, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// queryBool возвращает nil, если параметр не передан
func queryBool(c *fiber.Ctx, key string) *bool {
	if c.Query(key) == "" {
		return nil
	}
	v := c.QueryBool(key, false)
	return &v
}
