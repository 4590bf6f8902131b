package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voxel-density-service/internal/config"
	httpDelivery "github.com/voxel-density-service/internal/delivery/http"
	"github.com/voxel-density-service/internal/delivery/http/handler"
	"github.com/voxel-density-service/internal/domain"
	"github.com/voxel-density-service/internal/pkg/errors"
	"github.com/voxel-density-service/internal/usecase/dto"
)

type MockVoxelService struct {
	mock.Mock
}

func (m *MockVoxelService) Voxelize(ctx context.Context, req *dto.VoxelizeRequest) (*dto.VoxelizeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.VoxelizeResponse), args.Error(1)
}

func (m *MockVoxelService) VoxelizeDataset(ctx context.Context, req *dto.DatasetVoxelizeRequest) (*dto.VoxelizeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.VoxelizeResponse), args.Error(1)
}

func (m *MockVoxelService) EstimateVoxelSize(ctx context.Context, req *dto.EstimateRequest) (*dto.EstimateResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EstimateResponse), args.Error(1)
}

type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) GetDatasetStatistics(ctx context.Context, dataset string) (*domain.DatasetStatistics, error) {
	args := m.Called(ctx, dataset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DatasetStatistics), args.Error(1)
}

func (m *MockStatsService) RefreshDatasetStatistics(ctx context.Context, dataset string) (*domain.DatasetStatistics, error) {
	args := m.Called(ctx, dataset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DatasetStatistics), args.Error(1)
}

func (m *MockStatsService) ListDatasets(ctx context.Context) (*dto.DatasetsResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.DatasetsResponse), args.Error(1)
}

type MockJobService struct {
	mock.Mock
}

func (m *MockJobService) Submit(ctx context.Context, req *dto.VoxelJobRequest) (*dto.JobSubmitResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.JobSubmitResponse), args.Error(1)
}

func (m *MockJobService) GetResult(ctx context.Context, id uuid.UUID) (*dto.JobResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.JobResult), args.Error(1)
}

type healthFunc func(ctx context.Context) error

func (f healthFunc) Health(ctx context.Context) error { return f(ctx) }

type testServer struct {
	server *httpDelivery.Server
	voxel  *MockVoxelService
	stats  *MockStatsService
	jobs   *MockJobService
}

func newTestServer(t *testing.T, checks map[string]httpDelivery.HealthChecker) *testServer {
	t.Helper()
	ts := &testServer{
		voxel: &MockVoxelService{},
		stats: &MockStatsService{},
		jobs:  &MockJobService{},
	}
	logger := zap.NewNop()
	ts.server = httpDelivery.NewServer(
		&config.Config{},
		logger,
		checks,
		handler.NewVoxelHandler(ts.voxel, logger),
		handler.NewStatsHandler(ts.stats, logger),
		handler.NewJobHandler(ts.jobs, logger),
	)
	return ts
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  map[string]any  `json:"meta"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (ts *testServer) do(t *testing.T, method, target string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ts.server.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

func TestServer_Health(t *testing.T) {
	t.Run("all dependencies healthy", func(t *testing.T) {
		ts := newTestServer(t, map[string]httpDelivery.HealthChecker{
			"redis": healthFunc(func(context.Context) error { return nil }),
		})

		req := httptest.NewRequest(nethttp.MethodGet, "/api/v1/health", nil)
		resp, err := ts.server.App().Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("failing dependency", func(t *testing.T) {
		ts := newTestServer(t, map[string]httpDelivery.HealthChecker{
			"postgres": healthFunc(func(context.Context) error { return stderrors.New("refused") }),
		})

		req := httptest.NewRequest(nethttp.MethodGet, "/api/v1/health", nil)
		resp, err := ts.server.App().Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, nethttp.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "degraded", body["status"])
		assert.Equal(t, map[string]any{"postgres": "unhealthy"}, body["dependencies"])
	})
}

func TestVoxelHandler_Voxelize(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.voxel.On("Voxelize", mock.Anything, mock.MatchedBy(func(req *dto.VoxelizeRequest) bool {
			return len(req.Records) == 2 && req.Options.VoxelSize != nil && *req.Options.VoxelSize == 50
		})).Return(&dto.VoxelizeResponse{
			Statistics: domain.VoxelStatistics{TotalRecords: 2},
			Cells:      nil,
		}, nil).Once()

		status, env := ts.do(t, nethttp.MethodPost, "/api/v1/voxels", map[string]any{
			"records": []map[string]any{
				{"id": "1", "lon": 139.70, "lat": 35.69, "alt": 0},
				{"id": "2", "lon": 139.71, "lat": 35.70, "alt": 10},
			},
			"options": map[string]any{"voxel_size": 50},
		})

		assert.Equal(t, nethttp.StatusOK, status)
		var resp dto.VoxelizeResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, 2, resp.Statistics.TotalRecords)
		ts.voxel.AssertExpectations(t)
	})

	t.Run("malformed body", func(t *testing.T) {
		ts := newTestServer(t, nil)

		status, env := ts.do(t, nethttp.MethodPost, "/api/v1/voxels", "{")

		assert.Equal(t, nethttp.StatusBadRequest, status)
		require.NotNil(t, env.Error)
		assert.Equal(t, "INVALID_REQUEST", env.Error.Code)
		ts.voxel.AssertNotCalled(t, "Voxelize", mock.Anything, mock.Anything)
	})

	t.Run("no valid records", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.voxel.On("Voxelize", mock.Anything, mock.Anything).Return(nil, errors.ErrNoValidRecords).Once()

		status, env := ts.do(t, nethttp.MethodPost, "/api/v1/voxels", map[string]any{"records": []any{}})

		assert.Equal(t, nethttp.StatusUnprocessableEntity, status)
		assert.Equal(t, "NO_VALID_RECORDS", env.Error.Code)
	})
}

func TestVoxelHandler_Estimate(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.voxel.On("EstimateVoxelSize", mock.Anything, mock.MatchedBy(func(req *dto.EstimateRequest) bool {
		return req.Dataset == "tokyo" && req.Mode == "occupancy"
	})).Return(&dto.EstimateResponse{Records: 4}, nil).Once()

	status, env := ts.do(t, nethttp.MethodPost, "/api/v1/voxels/estimate", map[string]any{
		"dataset": "tokyo",
		"mode":    "occupancy",
	})

	assert.Equal(t, nethttp.StatusOK, status)
	var resp dto.EstimateResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, 4, resp.Records)
}

func TestVoxelHandler_GetDatasetVoxels(t *testing.T) {
	t.Run("query parameters", func(t *testing.T) {
		ts := newTestServer(t, nil)

		var got *dto.DatasetVoxelizeRequest
		ts.voxel.On("VoxelizeDataset", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { got = args.Get(1).(*dto.DatasetVoxelizeRequest) }).
			Return(&dto.VoxelizeResponse{Dataset: "tokyo", Cached: true}, nil).Once()

		status, env := ts.do(t, nethttp.MethodGet,
			"/api/v1/datasets/tokyo/voxels?categories=residential,%20commercial&bbox=139.6,35.6,139.8,35.8"+
				"&limit=1000&voxel_size=25&top_n=5&aggregate=true&adaptive=true&preset=thin&tile_index=false&refresh=true"+
				"&at=2024-05-01T12:00:00Z", nil)

		assert.Equal(t, nethttp.StatusOK, status)
		assert.Equal(t, true, env.Meta["cached"])
		require.NotNil(t, got)
		assert.Equal(t, "tokyo", got.Dataset)
		assert.Equal(t, []string{"residential", "commercial"}, got.Categories)
		assert.Equal(t, &domain.BoundingBox{MinLon: 139.6, MinLat: 35.6, MaxLon: 139.8, MaxLat: 35.8}, got.BBox)
		assert.Equal(t, 1000, got.Limit)
		assert.True(t, got.Refresh)

		o := got.Options
		require.NotNil(t, o.VoxelSize)
		assert.Equal(t, 25.0, *o.VoxelSize)
		require.NotNil(t, o.TopN)
		assert.Equal(t, 5, *o.TopN)
		require.NotNil(t, o.TileIndex)
		assert.False(t, *o.TileIndex)
		assert.Nil(t, o.AutoVoxelSize)
		require.NotNil(t, o.Aggregation)
		assert.True(t, o.Aggregation.Enabled)
		require.NotNil(t, o.Adaptive)
		assert.Equal(t, "thin", o.Adaptive.Preset)
		require.NotNil(t, o.ReferenceTime)
		assert.Equal(t, 2024, o.ReferenceTime.Year())
	})

	t.Run("invalid bbox", func(t *testing.T) {
		ts := newTestServer(t, nil)

		status, env := ts.do(t, nethttp.MethodGet, "/api/v1/datasets/tokyo/voxels?bbox=1,2,3", nil)

		assert.Equal(t, nethttp.StatusBadRequest, status)
		assert.Equal(t, "INVALID_REQUEST", env.Error.Code)
	})

	t.Run("invalid time", func(t *testing.T) {
		ts := newTestServer(t, nil)

		status, _ := ts.do(t, nethttp.MethodGet, "/api/v1/datasets/tokyo/voxels?at=yesterday", nil)

		assert.Equal(t, nethttp.StatusBadRequest, status)
	})

	t.Run("unknown dataset", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.voxel.On("VoxelizeDataset", mock.Anything, mock.Anything).Return(nil, errors.ErrDatasetNotFound).Once()

		status, env := ts.do(t, nethttp.MethodGet, "/api/v1/datasets/nowhere/voxels", nil)

		assert.Equal(t, nethttp.StatusNotFound, status)
		assert.Equal(t, "DATASET_NOT_FOUND", env.Error.Code)
	})
}

func TestStatsHandler(t *testing.T) {
	t.Run("list datasets", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.stats.On("ListDatasets", mock.Anything).Return(&dto.DatasetsResponse{
			Datasets: []*domain.Dataset{{Name: "tokyo", RecordCount: 4}},
			Total:    1,
		}, nil).Once()

		status, env := ts.do(t, nethttp.MethodGet, "/api/v1/datasets", nil)

		assert.Equal(t, nethttp.StatusOK, status)
		assert.Equal(t, float64(1), env.Meta["total"])
	})

	t.Run("dataset statistics", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.stats.On("GetDatasetStatistics", mock.Anything, "tokyo").
			Return(&domain.DatasetStatistics{Dataset: "tokyo"}, nil).Once()

		status, _ := ts.do(t, nethttp.MethodGet, "/api/v1/datasets/tokyo/stats", nil)

		assert.Equal(t, nethttp.StatusOK, status)
		ts.stats.AssertNotCalled(t, "RefreshDatasetStatistics", mock.Anything, mock.Anything)
	})

	t.Run("refresh", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.stats.On("RefreshDatasetStatistics", mock.Anything, "tokyo").
			Return(&domain.DatasetStatistics{Dataset: "tokyo"}, nil).Once()

		status, _ := ts.do(t, nethttp.MethodGet, "/api/v1/datasets/tokyo/stats?refresh=true", nil)

		assert.Equal(t, nethttp.StatusOK, status)
		ts.stats.AssertExpectations(t)
	})
}

func TestJobHandler(t *testing.T) {
	id := uuid.MustParse("7b0d8a4e-6a0c-4e44-9a55-3d1c2f0e9b11")

	t.Run("submit", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.jobs.On("Submit", mock.Anything, mock.MatchedBy(func(req *dto.VoxelJobRequest) bool {
			return req.Dataset == "tokyo"
		})).Return(&dto.JobSubmitResponse{JobID: id, Status: dto.JobStatusQueued}, nil).Once()

		status, env := ts.do(t, nethttp.MethodPost, "/api/v1/jobs", map[string]any{"dataset": "tokyo"})

		assert.Equal(t, nethttp.StatusAccepted, status)
		var resp dto.JobSubmitResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, id, resp.JobID)
	})

	t.Run("result", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.jobs.On("GetResult", mock.Anything, id).
			Return(&dto.JobResult{JobID: id, Status: dto.JobStatusDone}, nil).Once()

		status, env := ts.do(t, nethttp.MethodGet, "/api/v1/jobs/"+id.String(), nil)

		assert.Equal(t, nethttp.StatusOK, status)
		var resp dto.JobResult
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, dto.JobStatusDone, resp.Status)
	})

	t.Run("result not found", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.jobs.On("GetResult", mock.Anything, id).Return(nil, errors.ErrResultNotFound).Once()

		status, env := ts.do(t, nethttp.MethodGet, "/api/v1/jobs/"+id.String(), nil)

		assert.Equal(t, nethttp.StatusNotFound, status)
		assert.Equal(t, "RESULT_NOT_FOUND", env.Error.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		ts := newTestServer(t, nil)

		status, env := ts.do(t, nethttp.MethodGet, "/api/v1/jobs/not-a-uuid", nil)

		assert.Equal(t, nethttp.StatusBadRequest, status)
		assert.Equal(t, "INVALID_REQUEST", env.Error.Code)
		ts.jobs.AssertNotCalled(t, "GetResult", mock.Anything, mock.Anything)
	})
}

func TestServer_PanicRecovered(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.voxel.On("EstimateVoxelSize", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { panic("estimator exploded") })

	status, env := ts.do(t, nethttp.MethodPost, "/api/v1/voxels/estimate", map[string]any{"dataset": "tokyo"})

	assert.Equal(t, nethttp.StatusInternalServerError, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", env.Error.Code)
}
