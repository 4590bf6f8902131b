package repository

import (
	"context"
	"time"

	"github.com/voxel-density-service/internal/domain"
)

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	// Get получает значение из кеша по ключу
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение в кеше с TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete удаляет значение из кеша
	Delete(ctx context.Context, key string) error

	// Exists проверяет существование ключа
	Exists(ctx context.Context, key string) (bool, error)

	// GetDatasetStats получает статистику набора данных из кеша
	GetDatasetStats(ctx context.Context, dataset string) (*domain.DatasetStatistics, error)

	// SetDatasetStats сохраняет статистику набора данных в кеше
	SetDatasetStats(ctx context.Context, stats *domain.DatasetStatistics, ttl time.Duration) error
}
