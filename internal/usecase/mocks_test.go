package usecase_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/voxel-density-service/internal/domain"
	"github.com/voxel-density-service/internal/domain/repository"
	"github.com/voxel-density-service/internal/usecase/dto"
)

// MockRecordRepository is a mock of RecordRepository
type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) ListByDataset(ctx context.Context, filter repository.RecordFilter) ([]*domain.PointRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PointRecord), args.Error(1)
}

func (m *MockRecordRepository) ListDatasets(ctx context.Context) ([]*domain.Dataset, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Dataset), args.Error(1)
}

// MockCacheRepository is a mock of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepository) GetDatasetStats(ctx context.Context, dataset string) (*domain.DatasetStatistics, error) {
	args := m.Called(ctx, dataset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DatasetStatistics), args.Error(1)
}

func (m *MockCacheRepository) SetDatasetStats(ctx context.Context, stats *domain.DatasetStatistics, ttl time.Duration) error {
	args := m.Called(ctx, stats, ttl)
	return args.Error(0)
}

// MockStreamRepository is a mock of StreamRepository
type MockStreamRepository struct {
	mock.Mock
}

func (m *MockStreamRepository) ConsumeStream(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) AckMessage(ctx context.Context, stream, group, messageID string) error {
	args := m.Called(ctx, stream, group, messageID)
	return args.Error(0)
}

func (m *MockStreamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	args := m.Called(ctx, stream, group)
	return args.Error(0)
}

func (m *MockStreamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	args := m.Called(ctx, stream, data)
	return args.Error(0)
}

// MockDatasetVoxelizer is a mock of DatasetVoxelizer
type MockDatasetVoxelizer struct {
	mock.Mock
}

func (m *MockDatasetVoxelizer) VoxelizeDataset(ctx context.Context, req *dto.DatasetVoxelizeRequest) (*dto.VoxelizeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.VoxelizeResponse), args.Error(1)
}

func point(id string, lon, lat, alt float64, category string) *domain.PointRecord {
	return &domain.PointRecord{ID: id, Lon: &lon, Lat: &lat, Alt: alt, Category: category}
}

func tokyoRecords() []*domain.PointRecord {
	return []*domain.PointRecord{
		point("1", 139.700, 35.690, 0, "residential"),
		point("2", 139.701, 35.691, 10, "residential"),
		point("3", 139.705, 35.695, 50, "commercial"),
		point("4", 139.710, 35.700, 100, "industrial"),
	}
}
