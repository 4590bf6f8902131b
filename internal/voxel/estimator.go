package voxel

import (
	"math"

	"github.com/voxel-density-service/internal/domain"
	"github.com/voxel-density-service/internal/pkg/errors"
	"github.com/voxel-density-service/internal/pkg/utils"
	"go.uber.org/zap"
)

// EstimatorMode selects the voxel size estimation strategy.
type EstimatorMode string

const (
	EstimatorBasic     EstimatorMode = "basic"
	EstimatorOccupancy EstimatorMode = "occupancy"
)

const (
	minVerticalSpan   = 10.0
	minHorizontalSpan = 1.0

	occupancyMaxIterations = 10
	occupancyTolerance     = 0.05
	occupancyDamping       = 0.3
)

// EstimatorConfig bounds and targets the estimation.
type EstimatorConfig struct {
	Mode         EstimatorMode `json:"mode"`
	MinSize      float64       `json:"min_size"`
	MaxSize      float64       `json:"max_size"`
	RenderBudget int           `json:"render_budget"`
	TargetFill   float64       `json:"target_fill"`
}

// DefaultEstimatorConfig returns the defaults used when nothing is configured.
func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		Mode:         EstimatorBasic,
		MinSize:      5,
		MaxSize:      1000,
		RenderBudget: 50000,
		TargetFill:   0.6,
	}
}

// Estimation is the outcome of an estimator run.
type Estimation struct {
	Size       float64       `json:"size"`
	Mode       EstimatorMode `json:"mode"`
	Iterations int           `json:"iterations"`
	Converged  bool          `json:"converged"`
	Fill       float64       `json:"fill,omitempty"`
}

// Estimator picks a target cell size for a set of bounds.
type Estimator struct {
	cfg    EstimatorConfig
	logger *zap.Logger
}

// NewEstimator validates cfg and builds an Estimator.
func NewEstimator(cfg EstimatorConfig, logger *zap.Logger) (*Estimator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Mode == "" {
		cfg.Mode = EstimatorBasic
	}
	bad := func(field string, v interface{}) error {
		return errors.ErrInvalidConfiguration.WithDetails(map[string]interface{}{"field": field, "value": v})
	}
	switch {
	case cfg.Mode != EstimatorBasic && cfg.Mode != EstimatorOccupancy:
		return nil, bad("auto_voxel_size_mode", cfg.Mode)
	case !(cfg.MinSize > 0):
		return nil, bad("min_voxel_size", cfg.MinSize)
	case !(cfg.MaxSize >= cfg.MinSize):
		return nil, bad("max_voxel_size", cfg.MaxSize)
	case cfg.Mode == EstimatorOccupancy && cfg.RenderBudget <= 0:
		return nil, bad("render_budget", cfg.RenderBudget)
	case cfg.Mode == EstimatorOccupancy && !(cfg.TargetFill > 0 && cfg.TargetFill <= 1):
		return nil, bad("target_fill", cfg.TargetFill)
	}
	return &Estimator{cfg: cfg, logger: logger}, nil
}

// Estimate runs the configured strategy.
func (e *Estimator) Estimate(b domain.Bounds, records int) Estimation {
	if e.cfg.Mode == EstimatorOccupancy {
		return EstimateOccupancy(b, records, e.cfg, e.logger)
	}
	return Estimation{
		Size:      EstimateBasic(b, records, e.cfg.MinSize, e.cfg.MaxSize),
		Mode:      EstimatorBasic,
		Converged: true,
	}
}

// EstimateBasic maps record density (records per cubic meter) to a cell size
// in three density bands. For fixed bounds the result never grows as the
// record count increases.
func EstimateBasic(b domain.Bounds, records int, minSize, maxSize float64) float64 {
	sx, sy, sz := SpanMeters(b)
	volume := math.Max(sx, minHorizontalSpan) * math.Max(sy, minHorizontalSpan) * math.Max(sz, minVerticalSpan)
	density := float64(records) / volume

	var size float64
	switch {
	case density > 1e-3:
		size = utils.Clamp(20/math.Sqrt(density*1e3), 10, 20)
	case density > 1e-4:
		size = utils.Clamp(50/math.Sqrt(density*1e4), 20, 50)
	case density > 0:
		size = utils.Clamp(100/math.Sqrt(density*1e5), 50, 100)
	default:
		size = 100
	}
	return utils.Clamp(size, minSize, maxSize)
}

// EstimateOccupancy starts from the basic estimate and adjusts the size until
// the expected number of occupied cells fills the render budget to
// cfg.TargetFill. Expected occupancy uses N·(1−e^(−records/N)); each step
// multiplies the size by (fill/target)^0.3. The last clamped size is returned
// when the iteration cap is hit.
func EstimateOccupancy(b domain.Bounds, records int, cfg EstimatorConfig, logger *zap.Logger) Estimation {
	if logger == nil {
		logger = zap.NewNop()
	}
	size := EstimateBasic(b, records, cfg.MinSize, cfg.MaxSize)
	est := Estimation{Size: size, Mode: EstimatorOccupancy}
	if records <= 0 || cfg.RenderBudget <= 0 || !(cfg.TargetFill > 0) {
		est.Converged = true
		return est
	}

	n := float64(records)
	for i := 0; i < occupancyMaxIterations; i++ {
		grid, err := CalculateGrid(b, size)
		if err != nil {
			break
		}
		total := float64(grid.TotalCount)
		expected := total * (1 - math.Exp(-n/total))
		fill := math.Min(1, expected/float64(cfg.RenderBudget))

		est.Iterations = i + 1
		est.Fill = fill
		if math.Abs(fill-cfg.TargetFill) < occupancyTolerance {
			est.Converged = true
			break
		}
		size = utils.Clamp(size*math.Pow(fill/cfg.TargetFill, occupancyDamping), cfg.MinSize, cfg.MaxSize)
		est.Size = size
	}

	if !est.Converged {
		logger.Debug("Occupancy estimation did not converge",
			zap.Int("iterations", est.Iterations),
			zap.Float64("fill", est.Fill),
			zap.Float64("size", est.Size))
	}
	return est
}
