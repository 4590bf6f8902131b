package dto

import (
	"time"

	"github.com/voxel-density-service/internal/domain"
)

// VoxelOptions - переопределения параметров вокселизации.
// Незаданные поля берутся из конфигурации сервиса.
type VoxelOptions struct {
	VoxelSize     *float64            `json:"voxel_size,omitempty" validate:"omitempty,gt=0,lte=100000"`
	AutoVoxelSize *bool               `json:"auto_voxel_size,omitempty"`
	EstimatorMode string              `json:"estimator_mode,omitempty" validate:"omitempty,oneof=basic occupancy"`
	TargetFill    *float64            `json:"target_fill,omitempty" validate:"omitempty,gt=0,lte=1"`
	RenderBudget  *int                `json:"render_budget,omitempty" validate:"omitempty,gt=0,lte=1000000"`
	IncludeEmpty  *bool               `json:"include_empty,omitempty"`
	TopN          *int                `json:"top_n,omitempty" validate:"omitempty,gte=0"`
	Aggregation   *AggregationOptions `json:"aggregation,omitempty"`
	Adaptive      *AdaptiveOptions    `json:"adaptive,omitempty"`
	ReferenceTime *time.Time          `json:"reference_time,omitempty"`
	TileIndex     *bool               `json:"tile_index,omitempty"`
	IndexZoom     int                 `json:"index_zoom,omitempty" validate:"omitempty,min=0,max=24"`
}

// AggregationOptions - агрегация по категориям
type AggregationOptions struct {
	Enabled  bool   `json:"enabled"`
	KeyField string `json:"key_field,omitempty" validate:"omitempty,max=64"`
	TopN     int    `json:"top_n,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// AdaptiveOptions - параметры адаптивного контроллера
type AdaptiveOptions struct {
	Enabled              bool          `json:"enabled"`
	Preset               string        `json:"preset,omitempty" validate:"preset"`
	RenderMode           string        `json:"render_mode,omitempty" validate:"render_mode"`
	NeighborhoodRadius   *float64      `json:"neighborhood_radius,omitempty" validate:"omitempty,gte=0,lte=200"`
	DensityThreshold     *float64      `json:"density_threshold,omitempty" validate:"omitempty,gte=0"`
	CameraDistanceFactor *float64      `json:"camera_distance_factor,omitempty" validate:"omitempty,gt=0"`
	OverlapRiskFactor    *float64      `json:"overlap_risk_factor,omitempty" validate:"omitempty,gte=0,lte=1"`
	ZScaleCompensation   *bool         `json:"z_scale_compensation,omitempty"`
	OverlapDetection     *bool         `json:"overlap_detection,omitempty"`
	OutlineWidth         *float64      `json:"outline_width,omitempty" validate:"omitempty,gte=0"`
	Opacity              *float64      `json:"opacity,omitempty" validate:"omitempty,gte=0,lte=1"`
	OutlineOpacity       *float64      `json:"outline_opacity,omitempty" validate:"omitempty,gte=0,lte=1"`
	OutlineWidthRange    *domain.Range `json:"outline_width_range,omitempty"`
	BoxOpacityRange      *domain.Range `json:"box_opacity_range,omitempty"`
	OutlineOpacityRange  *domain.Range `json:"outline_opacity_range,omitempty"`
}

// VoxelizeRequest - вокселизация переданных в запросе записей
type VoxelizeRequest struct {
	Records []*domain.PointRecord `json:"records" validate:"max=200000"`
	Tracks  []*domain.TrackRecord `json:"tracks,omitempty" validate:"max=10000"`
	Options VoxelOptions          `json:"options"`
}

// DatasetVoxelizeRequest - вокселизация набора данных из хранилища
type DatasetVoxelizeRequest struct {
	Dataset    string              `json:"dataset" validate:"required,max=128"`
	Categories []string            `json:"categories,omitempty" validate:"omitempty,max=50,dive,required"`
	BBox       *domain.BoundingBox `json:"bbox,omitempty"`
	Limit      int                 `json:"limit,omitempty" validate:"omitempty,min=1,max=1000000"`
	Options    VoxelOptions        `json:"options"`

	// Refresh пропускает чтение из кеша
	Refresh bool `json:"-"`
}

// EstimateRequest - оценка размера ячейки без классификации.
// Источник: записи из запроса или набор данных.
type EstimateRequest struct {
	Records      []*domain.PointRecord `json:"records,omitempty" validate:"required_without=Dataset,max=200000"`
	Dataset      string                `json:"dataset,omitempty" validate:"omitempty,max=128"`
	Categories   []string              `json:"categories,omitempty"`
	BBox         *domain.BoundingBox   `json:"bbox,omitempty"`
	Mode         string                `json:"mode,omitempty" validate:"omitempty,oneof=basic occupancy"`
	MinSize      *float64              `json:"min_size,omitempty" validate:"omitempty,gt=0"`
	MaxSize      *float64              `json:"max_size,omitempty" validate:"omitempty,gt=0"`
	RenderBudget *int                  `json:"render_budget,omitempty" validate:"omitempty,gt=0"`
	TargetFill   *float64              `json:"target_fill,omitempty" validate:"omitempty,gt=0,lte=1"`
}

// VoxelJobRequest - асинхронная задача вокселизации набора данных
type VoxelJobRequest struct {
	Dataset    string              `json:"dataset" validate:"required,max=128"`
	Categories []string            `json:"categories,omitempty" validate:"omitempty,max=50,dive,required"`
	BBox       *domain.BoundingBox `json:"bbox,omitempty"`
	Options    VoxelOptions        `json:"options"`
}
