package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/voxel-density-service/internal/domain"
	"github.com/voxel-density-service/internal/pkg/errors"
	"github.com/voxel-density-service/internal/pkg/validator"
	"github.com/voxel-density-service/internal/voxel"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Cache       CacheConfig
	Log         LogConfig
	Worker      WorkerConfig
	Voxel       VoxelConfig
	Aggregation AggregationConfig
	Adaptive    AdaptiveConfig
}

type ServerConfig struct {
	Host        string
	Port        int `validate:"gte=0,lte=65535"`
	Env         string
	CORSOrigins string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	ResultCacheTTL time.Duration
	StatsCacheTTL  time.Duration
	JobResultTTL   time.Duration
	LocalCacheSize int `validate:"gte=0"`
}

type LogConfig struct {
	Level string
}

type WorkerConfig struct {
	Enabled         bool
	ConsumerGroup   string
	ShutdownTimeout time.Duration
	MaxRetries      int
}

// VoxelConfig - параметры сетки и оценки размера ячейки
type VoxelConfig struct {
	TargetSize    float64 `validate:"gt=0"`
	AutoSize      bool
	EstimatorMode string  `validate:"oneof=basic occupancy"`
	TargetFill    float64 `validate:"gt=0,lte=1"`
	RenderBudget  int     `validate:"gt=0"`
	MinSize       float64 `validate:"gt=0"`
	MaxSize       float64 `validate:"gtefield=MinSize"`
	IncludeEmpty  bool
	TopN          int `validate:"gte=0"`
	Workers       int `validate:"gte=0"`
	TileIndex     bool
	AltitudeStep  float64 `validate:"gt=0"`
}

type AggregationConfig struct {
	Enabled  bool
	KeyField string
	TopN     int `validate:"gte=0"`
}

// AdaptiveConfig - параметры адаптивного контроллера по умолчанию
type AdaptiveConfig struct {
	Enabled              bool
	Preset               string  `validate:"preset"`
	RenderMode           string  `validate:"render_mode"`
	NeighborhoodRadius   float64 `validate:"gte=0,lte=200"`
	DensityThreshold     float64 `validate:"gte=0"`
	CameraDistanceFactor float64 `validate:"gt=0"`
	OverlapRiskFactor    float64 `validate:"gte=0,lte=1"`
	ZScaleCompensation   bool
	OverlapDetection     bool
	OutlineWidth         float64 `validate:"gte=0"`
	Opacity              float64 `validate:"gte=0,lte=1"`
	OutlineOpacity       float64 `validate:"gte=0,lte=1"`
	OutlineWidthRange    *domain.Range
	BoxOpacityRange      *domain.Range
	OutlineOpacityRange  *domain.Range
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) && !stderrors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        viper.GetString("API_HOST"),
			Port:        viper.GetInt("API_PORT"),
			Env:         viper.GetString("API_ENV"),
			CORSOrigins: viper.GetString("API_CORS_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConns:        viper.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(viper.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(viper.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			ResultCacheTTL: time.Duration(viper.GetInt("RESULT_CACHE_TTL")) * time.Second,
			StatsCacheTTL:  time.Duration(viper.GetInt("STATS_CACHE_TTL")) * time.Second,
			JobResultTTL:   time.Duration(viper.GetInt("JOB_RESULT_TTL")) * time.Second,
			LocalCacheSize: viper.GetInt("LOCAL_CACHE_SIZE"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Worker: WorkerConfig{
			Enabled:         viper.GetBool("WORKER_ENABLED"),
			ConsumerGroup:   viper.GetString("WORKER_CONSUMER_GROUP"),
			ShutdownTimeout: time.Duration(viper.GetInt("WORKER_SHUTDOWN_TIMEOUT")) * time.Second,
			MaxRetries:      viper.GetInt("WORKER_MAX_RETRIES"),
		},
		Voxel: VoxelConfig{
			TargetSize:    viper.GetFloat64("VOXEL_TARGET_SIZE"),
			AutoSize:      viper.GetBool("VOXEL_AUTO_SIZE"),
			EstimatorMode: viper.GetString("VOXEL_ESTIMATOR_MODE"),
			TargetFill:    viper.GetFloat64("VOXEL_TARGET_FILL"),
			RenderBudget:  viper.GetInt("VOXEL_RENDER_BUDGET"),
			MinSize:       viper.GetFloat64("VOXEL_MIN_SIZE"),
			MaxSize:       viper.GetFloat64("VOXEL_MAX_SIZE"),
			IncludeEmpty:  viper.GetBool("VOXEL_INCLUDE_EMPTY"),
			TopN:          viper.GetInt("VOXEL_TOP_N"),
			Workers:       viper.GetInt("VOXEL_WORKERS"),
			TileIndex:     viper.GetBool("VOXEL_TILE_INDEX"),
			AltitudeStep:  viper.GetFloat64("VOXEL_ALTITUDE_STEP"),
		},
		Aggregation: AggregationConfig{
			Enabled:  viper.GetBool("AGGREGATION_ENABLED"),
			KeyField: viper.GetString("AGGREGATION_KEY_FIELD"),
			TopN:     viper.GetInt("AGGREGATION_TOP_N"),
		},
		Adaptive: AdaptiveConfig{
			Enabled:              viper.GetBool("ADAPTIVE_ENABLED"),
			Preset:               viper.GetString("ADAPTIVE_PRESET"),
			RenderMode:           viper.GetString("ADAPTIVE_RENDER_MODE"),
			NeighborhoodRadius:   viper.GetFloat64("ADAPTIVE_NEIGHBORHOOD_RADIUS"),
			DensityThreshold:     viper.GetFloat64("ADAPTIVE_DENSITY_THRESHOLD"),
			CameraDistanceFactor: viper.GetFloat64("ADAPTIVE_CAMERA_DISTANCE_FACTOR"),
			OverlapRiskFactor:    viper.GetFloat64("ADAPTIVE_OVERLAP_RISK_FACTOR"),
			ZScaleCompensation:   viper.GetBool("ADAPTIVE_Z_SCALE_COMPENSATION"),
			OverlapDetection:     viper.GetBool("ADAPTIVE_OVERLAP_DETECTION"),
			OutlineWidth:         viper.GetFloat64("ADAPTIVE_OUTLINE_WIDTH"),
			Opacity:              viper.GetFloat64("ADAPTIVE_OPACITY"),
			OutlineOpacity:       viper.GetFloat64("ADAPTIVE_OUTLINE_OPACITY"),
		},
	}

	ranges := []struct {
		key string
		dst **domain.Range
	}{
		{"ADAPTIVE_OUTLINE_WIDTH_RANGE", &cfg.Adaptive.OutlineWidthRange},
		{"ADAPTIVE_BOX_OPACITY_RANGE", &cfg.Adaptive.BoxOpacityRange},
		{"ADAPTIVE_OUTLINE_OPACITY_RANGE", &cfg.Adaptive.OutlineOpacityRange},
	}
	for _, r := range ranges {
		rng, err := parseRange(viper.GetString(r.key))
		if err != nil {
			return nil, errors.ErrInvalidConfiguration.WithDetails(map[string]interface{}{
				"field": r.key,
				"error": err.Error(),
			}).Wrap(err)
		}
		*r.dst = rng
	}

	cfg.applyDefaults()

	if err := validator.Validate(cfg); err != nil {
		return nil, errors.ErrInvalidConfiguration.WithDetails(map[string]interface{}{
			"fields": validator.Fields(err),
		}).Wrap(err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	// Set default values if not provided
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Server.CORSOrigins == "" {
		c.Server.CORSOrigins = "http://localhost:3000,http://localhost:5173"
	}
	if c.Cache.ResultCacheTTL == 0 {
		c.Cache.ResultCacheTTL = 10 * time.Minute
	}
	if c.Cache.StatsCacheTTL == 0 {
		c.Cache.StatsCacheTTL = time.Hour
	}
	if c.Cache.JobResultTTL == 0 {
		c.Cache.JobResultTTL = 24 * time.Hour
	}
	if c.Cache.LocalCacheSize == 0 {
		c.Cache.LocalCacheSize = 128
	}
	if c.Worker.ConsumerGroup == "" {
		c.Worker.ConsumerGroup = "voxel-workers"
	}
	if c.Worker.ShutdownTimeout == 0 {
		c.Worker.ShutdownTimeout = 30 * time.Second
	}
	if c.Worker.MaxRetries == 0 {
		c.Worker.MaxRetries = 3
	}

	est := voxel.DefaultEstimatorConfig()
	if c.Voxel.TargetSize == 0 {
		c.Voxel.TargetSize = 20
	}
	if c.Voxel.EstimatorMode == "" {
		c.Voxel.EstimatorMode = string(est.Mode)
	}
	if c.Voxel.TargetFill == 0 {
		c.Voxel.TargetFill = est.TargetFill
	}
	if c.Voxel.RenderBudget == 0 {
		c.Voxel.RenderBudget = est.RenderBudget
	}
	if c.Voxel.MinSize == 0 {
		c.Voxel.MinSize = est.MinSize
	}
	if c.Voxel.MaxSize == 0 {
		c.Voxel.MaxSize = est.MaxSize
	}
	if c.Voxel.AltitudeStep == 0 {
		c.Voxel.AltitudeStep = 10
	}
	if c.Aggregation.KeyField == "" {
		c.Aggregation.KeyField = "category"
	}
	if c.Aggregation.TopN == 0 {
		c.Aggregation.TopN = voxel.DefaultTopCategories
	}

	adaptive := voxel.DefaultAdaptiveConfig()
	render := voxel.DefaultRenderOptions()
	if c.Adaptive.Preset == "" {
		c.Adaptive.Preset = string(adaptive.Preset)
	}
	if c.Adaptive.RenderMode == "" {
		c.Adaptive.RenderMode = string(render.RenderMode)
	}
	if c.Adaptive.NeighborhoodRadius == 0 {
		c.Adaptive.NeighborhoodRadius = adaptive.NeighborhoodRadius
	}
	if c.Adaptive.DensityThreshold == 0 {
		c.Adaptive.DensityThreshold = adaptive.DensityThreshold
	}
	if c.Adaptive.CameraDistanceFactor == 0 {
		c.Adaptive.CameraDistanceFactor = adaptive.CameraDistanceFactor
	}
	if c.Adaptive.OverlapRiskFactor == 0 {
		c.Adaptive.OverlapRiskFactor = adaptive.OverlapRiskFactor
	}
	if !viper.IsSet("ADAPTIVE_Z_SCALE_COMPENSATION") {
		c.Adaptive.ZScaleCompensation = adaptive.ZScaleCompensation
	}
	if c.Adaptive.OutlineWidth == 0 {
		c.Adaptive.OutlineWidth = render.OutlineWidth
	}
	if c.Adaptive.Opacity == 0 {
		c.Adaptive.Opacity = render.Opacity
	}
	if c.Adaptive.OutlineOpacity == 0 {
		c.Adaptive.OutlineOpacity = render.OutlineOpacity
	}
}

// parseRange разбирает интервал вида "min,max"; пустая строка - без ограничений
func parseRange(s string) (*domain.Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var r domain.Range
	if _, err := fmt.Sscanf(strings.ReplaceAll(s, " ", ""), "%g,%g", &r.Min, &r.Max); err != nil {
		return nil, fmt.Errorf("invalid range %q: %w", s, err)
	}
	if r.Min > r.Max {
		return nil, fmt.Errorf("invalid range %q: min > max", s)
	}
	return &r, nil
}

// EngineOptions собирает параметры движка по умолчанию из конфигурации
func (c *Config) EngineOptions() voxel.Options {
	return voxel.Options{
		VoxelSize:     c.Voxel.TargetSize,
		AutoVoxelSize: c.Voxel.AutoSize,
		Estimator: voxel.EstimatorConfig{
			Mode:         voxel.EstimatorMode(c.Voxel.EstimatorMode),
			MinSize:      c.Voxel.MinSize,
			MaxSize:      c.Voxel.MaxSize,
			RenderBudget: c.Voxel.RenderBudget,
			TargetFill:   c.Voxel.TargetFill,
		},
		RenderBudget: c.Voxel.RenderBudget,
		IncludeEmpty: c.Voxel.IncludeEmpty,
		TopN:         c.Voxel.TopN,
		Workers:      c.Voxel.Workers,
		Aggregation: voxel.AggregationConfig{
			Enabled:  c.Aggregation.Enabled,
			KeyField: c.Aggregation.KeyField,
			TopN:     c.Aggregation.TopN,
		},
		Adaptive: voxel.AdaptiveConfig{
			Enabled:              c.Adaptive.Enabled,
			Preset:               domain.OutlinePreset(c.Adaptive.Preset),
			NeighborhoodRadius:   c.Adaptive.NeighborhoodRadius,
			DensityThreshold:     c.Adaptive.DensityThreshold,
			CameraDistanceFactor: c.Adaptive.CameraDistanceFactor,
			OverlapRiskFactor:    c.Adaptive.OverlapRiskFactor,
			ZScaleCompensation:   c.Adaptive.ZScaleCompensation,
			OverlapDetection:     c.Adaptive.OverlapDetection,
			OutlineWidthRange:    c.Adaptive.OutlineWidthRange,
			BoxOpacityRange:      c.Adaptive.BoxOpacityRange,
			OutlineOpacityRange:  c.Adaptive.OutlineOpacityRange,
		},
		Render: voxel.RenderOptions{
			OutlineWidth:   c.Adaptive.OutlineWidth,
			Opacity:        c.Adaptive.Opacity,
			OutlineOpacity: c.Adaptive.OutlineOpacity,
			RenderMode:     domain.RenderMode(c.Adaptive.RenderMode),
		},
	}
}

// SpatialIndex возвращает тайловый индекс, если он включен
func (c *Config) SpatialIndex() voxel.SpatialIndex {
	if !c.Voxel.TileIndex {
		return nil
	}
	return voxel.NewWebMercatorIndex(c.Voxel.AltitudeStep, 0)
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DSN - строка подключения в формате key=value (libpq / pgx)
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
