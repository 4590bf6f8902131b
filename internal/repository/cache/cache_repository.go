package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/voxel-density-service/internal/domain"
	"github.com/voxel-density-service/internal/domain/repository"
)

const datasetStatsKeyPrefix = "voxel:stats:"

type cacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

func NewCacheRepository(redis *Redis) repository.CacheRepository {
	return &cacheRepository{
		client: redis.Client(),
		logger: redis.logger,
	}
}

// Get возвращает распакованное значение; nil, nil - промах
func (r *cacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, nil // Cache miss
	}
	if err != nil {
		r.logger.Error("Failed to get from cache", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	val, err := decodePayload(raw)
	if err != nil {
		r.logger.Warn("Dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		_ = r.client.Del(ctx, key).Err()
		return nil, nil
	}

	r.logger.Debug("Cache hit", zap.String("key", key), zap.Int("stored_bytes", len(raw)))
	return val, nil
}

func (r *cacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	payload := encodePayload(value)
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		r.logger.Error("Failed to set cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set error: %w", err)
	}

	r.logger.Debug("Cache set",
		zap.String("key", key),
		zap.Int("bytes", len(value)),
		zap.Int("stored_bytes", len(payload)),
		zap.Duration("ttl", ttl))
	return nil
}

func (r *cacheRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Error("Failed to delete from cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache delete error: %w", err)
	}

	r.logger.Debug("Cache deleted", zap.String("key", key))
	return nil
}

func (r *cacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	val, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		r.logger.Error("Failed to check cache existence", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("cache exists error: %w", err)
	}

	return val > 0, nil
}

// GetDatasetStats получает статистику набора данных из кеша
func (r *cacheRepository) GetDatasetStats(ctx context.Context, dataset string) (*domain.DatasetStatistics, error) {
	data, err := r.Get(ctx, datasetStatsKeyPrefix+dataset)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil // Cache miss
	}

	var stats domain.DatasetStatistics
	if err := json.Unmarshal(data, &stats); err != nil {
		r.logger.Error("Failed to unmarshal dataset stats from cache",
			zap.String("dataset", dataset),
			zap.Error(err))
		return nil, fmt.Errorf("unmarshal dataset stats: %w", err)
	}

	return &stats, nil
}

// SetDatasetStats сохраняет статистику набора данных в кеше
func (r *cacheRepository) SetDatasetStats(ctx context.Context, stats *domain.DatasetStatistics, ttl time.Duration) error {
	data, err := json.Marshal(stats)
	if err != nil {
		r.logger.Error("Failed to marshal dataset stats", zap.Error(err))
		return fmt.Errorf("marshal dataset stats: %w", err)
	}

	return r.Set(ctx, datasetStatsKeyPrefix+stats.Dataset, data, ttl)
}
