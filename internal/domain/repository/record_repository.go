package repository

import (
	"context"

	"github.com/voxel-density-service/internal/domain"
)

// RecordFilter - параметры выборки записей набора данных
type RecordFilter struct {
	Dataset    string
	Categories []string
	BBox       *domain.BoundingBox
	Limit      int
}

// RecordRepository определяет методы для чтения геопривязанных записей
type RecordRepository interface {
	// ListByDataset возвращает записи набора данных с учетом фильтра
	ListByDataset(ctx context.Context, filter RecordFilter) ([]*domain.PointRecord, error)

	// ListDatasets возвращает список наборов данных
	ListDatasets(ctx context.Context) ([]*domain.Dataset, error)
}
