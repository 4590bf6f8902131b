package voxel

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voxel-density-service/internal/domain"
	"github.com/voxel-density-service/internal/pkg/errors"
)

func TestEngine_Run(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	ctx := context.Background()

	t.Run("single record", func(t *testing.T) {
		res, err := engine.Run(ctx, records(pt(139.70, 35.69, 50)), Options{VoxelSize: 20})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Grid.TotalCount)
		require.Len(t, res.Cells, 1)
		assert.Equal(t, "0,0,0", res.Cells[0].Key)
		assert.Equal(t, 1, res.Cells[0].Count)
		assert.Equal(t, 1, res.Statistics.NonEmptyCells)
		assert.Nil(t, res.Cells[0].Adaptive)
		assert.False(t, res.Truncated)
	})

	t.Run("no valid records", func(t *testing.T) {
		rs := []domain.Record{&domain.PointRecord{ID: "a"}, panicRecord{}}
		_, err := engine.Run(ctx, rs, Options{})
		assert.True(t, stderrors.Is(err, errors.ErrNoValidRecords))
	})

	t.Run("configuration checked before records", func(t *testing.T) {
		opts := Options{Adaptive: AdaptiveConfig{Enabled: true, Preset: "neon"}}
		_, err := engine.Run(ctx, nil, opts)
		assert.True(t, stderrors.Is(err, errors.ErrInvalidConfiguration))

		_, err = engine.Run(ctx, nil, Options{VoxelSize: -1})
		assert.True(t, stderrors.Is(err, errors.ErrInvalidConfiguration))
	})

	t.Run("auto voxel size", func(t *testing.T) {
		opts := Options{
			AutoVoxelSize: true,
			Estimator:     EstimatorConfig{Mode: EstimatorOccupancy, MinSize: 5, MaxSize: 1000, TargetFill: 0.6},
			RenderBudget:  10000,
		}
		res, err := engine.Run(ctx, gridRecords(2500, 139.70, 35.69, 0.0002), opts)
		require.NoError(t, err)
		require.NotNil(t, res.Estimation)
		assert.Equal(t, EstimatorOccupancy, res.Estimation.Mode)
		assert.Equal(t, res.Estimation.Size, res.Grid.TargetCellSize)
		assert.Equal(t, 2500, res.Statistics.TotalRecords)
	})

	t.Run("render budget keeps the densest cells", func(t *testing.T) {
		rs := gridRecords(2000, 139.70, 35.69, 0.00005)
		for i := 0; i < 50; i++ {
			rs = append(rs, pt(139.70, 35.69, 0))
		}

		res, err := engine.Run(ctx, rs, Options{VoxelSize: 10, RenderBudget: 10, TopN: 1})
		require.NoError(t, err)
		assert.True(t, res.Truncated)
		require.Len(t, res.Cells, 10)

		minKept := res.Cells[0].Count
		kept := make(map[string]bool)
		for _, c := range res.Cells {
			kept[c.Key] = true
			if c.Count < minKept {
				minKept = c.Count
			}
		}
		res.Map.Each(func(c *domain.CellInfo) {
			if !kept[c.Key.String()] {
				assert.LessOrEqual(t, c.Count, minKept)
			}
		})
		assert.True(t, res.Cells[0].IsTopN)
	})

	t.Run("include empty cells", func(t *testing.T) {
		res, err := engine.Run(ctx, records(pt(0, 0, 0), pt(0.002, 0, 0)), Options{VoxelSize: 100, IncludeEmpty: true})
		require.NoError(t, err)
		require.Equal(t, 3, res.Grid.TotalCount)
		require.Len(t, res.Cells, 3)
		assert.Equal(t, "1,0,0", res.Cells[2].Key)
		assert.Zero(t, res.Cells[2].Count)
	})

	t.Run("aggregation and adaptive", func(t *testing.T) {
		adaptive := DefaultAdaptiveConfig()
		adaptive.Enabled = true
		adaptive.Preset = domain.PresetAdaptive
		opts := Options{
			VoxelSize:   15,
			Aggregation: AggregationConfig{Enabled: true, KeyField: "category", TopN: 2},
			Adaptive:    adaptive,
			Render:      DefaultRenderOptions(),
			Workers:     4,
		}
		res, err := engine.Run(ctx, gridRecords(9000, 139.70, 35.69, 0.00002), opts)
		require.NoError(t, err)
		assert.Len(t, res.Statistics.TopCategories, 2)
		for _, c := range res.Cells {
			require.NotNil(t, c.Adaptive)
			assert.NotNil(t, c.Adaptive.OutlineWidth)
			assert.NotEmpty(t, c.TopCategory)
		}
	})

	t.Run("tile index", func(t *testing.T) {
		opts := Options{VoxelSize: 500, Index: NewWebMercatorIndex(100, 0), IncludeEmpty: true}
		res, err := engine.Run(ctx, gridRecords(400, 139.70, 35.69, 0.001), opts)
		require.NoError(t, err)
		assert.True(t, res.ClassifyReport.TileIndexed)
		assert.GreaterOrEqual(t, res.Statistics.EmptyCells, 0)
		assert.Len(t, res.Cells, res.Map.Len(), "no padding in tile mode")
		for _, c := range res.Cells {
			assert.NotEmpty(t, c.TileKey)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := engine.Run(cctx, gridRecords(100, 0, 0, 0.001), Options{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestEngine_Run_RejectsOversizedGrid(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	rs := records(pt(0, 0, 0), pt(180, 80, 10000))

	_, err := engine.Run(context.Background(), rs, Options{VoxelSize: 0.001})
	assert.True(t, stderrors.Is(err, errors.ErrInvalidConfiguration))
}

func TestEngine_Run_SkipsOutOfRangeRecords(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	rs := records(pt(0, 0, 0), pt(1e300, 0, 0))

	res, err := engine.Run(context.Background(), rs, Options{VoxelSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, res.BoundsReport.Resolved)
	assert.Equal(t, 1, res.BoundsReport.Skipped)
	assert.Equal(t, 1, res.Grid.TotalCount)
	assert.LessOrEqual(t, res.Grid.CellSizeX, 20.0)
}
