package config

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxel-density-service/internal/domain"
	"github.com/voxel-density-service/internal/pkg/errors"
	"github.com/voxel-density-service/internal/voxel"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "voxel-workers", cfg.Worker.ConsumerGroup)
	assert.Equal(t, 30*time.Second, cfg.Worker.ShutdownTimeout)
	assert.Equal(t, "http://localhost:3000,http://localhost:5173", cfg.Server.CORSOrigins)
	assert.Equal(t, 20.0, cfg.Voxel.TargetSize)
	assert.Equal(t, "basic", cfg.Voxel.EstimatorMode)
	assert.Equal(t, 50000, cfg.Voxel.RenderBudget)
	assert.Equal(t, "category", cfg.Aggregation.KeyField)
	assert.Equal(t, "uniform", cfg.Adaptive.Preset)
	assert.Equal(t, "standard", cfg.Adaptive.RenderMode)
	assert.True(t, cfg.Adaptive.ZScaleCompensation)
	assert.Nil(t, cfg.SpatialIndex())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("VOXEL_AUTO_SIZE", "true")
	t.Setenv("VOXEL_ESTIMATOR_MODE", "occupancy")
	t.Setenv("VOXEL_TILE_INDEX", "true")
	t.Setenv("ADAPTIVE_ENABLED", "true")
	t.Setenv("ADAPTIVE_PRESET", "topn-focus")
	t.Setenv("ADAPTIVE_Z_SCALE_COMPENSATION", "false")
	t.Setenv("ADAPTIVE_BOX_OPACITY_RANGE", "0.2, 0.9")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.GetServerAddr())
	assert.False(t, cfg.Adaptive.ZScaleCompensation)
	assert.Equal(t, &domain.Range{Min: 0.2, Max: 0.9}, cfg.Adaptive.BoxOpacityRange)
	assert.NotNil(t, cfg.SpatialIndex())

	opts := cfg.EngineOptions()
	assert.True(t, opts.AutoVoxelSize)
	assert.Equal(t, voxel.EstimatorOccupancy, opts.Estimator.Mode)
	assert.Equal(t, domain.PresetTopNFocus, opts.Adaptive.Preset)
	assert.Equal(t, domain.RenderModeStandard, opts.Render.RenderMode)
	assert.Equal(t, 0.8, opts.Render.Opacity)

	_, err = voxel.NewAdaptiveController(opts.Adaptive, opts.Render, nil)
	assert.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"preset":         {"ADAPTIVE_PRESET", "neon"},
		"render mode":    {"ADAPTIVE_RENDER_MODE", "wireframe"},
		"estimator":      {"VOXEL_ESTIMATOR_MODE", "magic"},
		"radius":         {"ADAPTIVE_NEIGHBORHOOD_RADIUS", "500"},
		"target fill":    {"VOXEL_TARGET_FILL", "1.5"},
		"range":          {"ADAPTIVE_OUTLINE_WIDTH_RANGE", "5,1"},
		"range format":   {"ADAPTIVE_BOX_OPACITY_RANGE", "wide"},
		"negative size":  {"VOXEL_TARGET_SIZE", "-3"},
		"max below min":  {"VOXEL_MAX_SIZE", "1"},
		"negative top n": {"VOXEL_TOP_N", "-1"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrInvalidConfiguration))
		})
	}
}

func TestParseRange(t *testing.T) {
	r, err := parseRange("")
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = parseRange("1,4")
	require.NoError(t, err)
	assert.Equal(t, &domain.Range{Min: 1, Max: 4}, r)
}

func TestConnectionStrings(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5433, User: "voxel", Password: "secret", DBName: "records", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=voxel password=secret dbname=records sslmode=disable", db.DSN())

	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: 6380}.Addr())
}
