package voxel

import (
	"context"
	"math"
	"runtime"

	"github.com/voxel-density-service/internal/domain"
	"github.com/voxel-density-service/internal/pkg/errors"
	"github.com/voxel-density-service/internal/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// assumedCellPitch converts the meter-based neighborhood radius into cells.
	assumedCellPitch      = 20.0
	maxNeighborhoodRadius = 200.0

	flatAspectRatio  = 0.1
	zScaleGain       = 3.0
	minZScaleFactor  = 0.7
	maxZScaleFactor  = 1.3
	overlapThreshold = 0.5
	minInset         = 0.5
	maxInset         = 2.0
	emulationWidth   = 2.0
	minOutlineWidth  = 1.0
)

var faceNeighbors = [6]domain.CellKey{
	{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1},
}

// AdaptiveConfig is the tuning surface of the controller.
type AdaptiveConfig struct {
	Enabled              bool                 `json:"enabled"`
	Preset               domain.OutlinePreset `json:"preset"`
	NeighborhoodRadius   float64              `json:"neighborhood_radius"`
	DensityThreshold     float64              `json:"density_threshold"`
	CameraDistanceFactor float64              `json:"camera_distance_factor"`
	OverlapRiskFactor    float64              `json:"overlap_risk_factor"`
	ZScaleCompensation   bool                 `json:"z_scale_compensation"`
	OverlapDetection     bool                 `json:"overlap_detection"`
	OutlineWidthRange    *domain.Range        `json:"outline_width_range,omitempty"`
	BoxOpacityRange      *domain.Range        `json:"box_opacity_range,omitempty"`
	OutlineOpacityRange  *domain.Range        `json:"outline_opacity_range,omitempty"`
}

// RenderOptions are the renderer's base values the presets scale from.
type RenderOptions struct {
	OutlineWidth   float64           `json:"outline_width"`
	Opacity        float64           `json:"opacity"`
	OutlineOpacity float64           `json:"outline_opacity"`
	RenderMode     domain.RenderMode `json:"render_mode"`
}

// DefaultAdaptiveConfig returns the controller defaults (disabled).
func DefaultAdaptiveConfig() AdaptiveConfig {
	return AdaptiveConfig{
		Preset:               domain.PresetUniform,
		NeighborhoodRadius:   50,
		DensityThreshold:     5,
		CameraDistanceFactor: 1,
		OverlapRiskFactor:    0.4,
		ZScaleCompensation:   true,
	}
}

// DefaultRenderOptions returns the base render values.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		OutlineWidth:   2,
		Opacity:        0.8,
		OutlineOpacity: 1,
		RenderMode:     domain.RenderModeStandard,
	}
}

// AdaptiveController derives per-cell visual parameters. It never mutates
// the map or statistics it reads and is safe for concurrent use.
type AdaptiveController struct {
	cfg    AdaptiveConfig
	base   RenderOptions
	radius int
	logger *zap.Logger
}

// NewAdaptiveController validates cfg and base.
func NewAdaptiveController(cfg AdaptiveConfig, base RenderOptions, logger *zap.Logger) (*AdaptiveController, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Preset == "" {
		cfg.Preset = domain.PresetUniform
	}
	if base.RenderMode == "" {
		base.RenderMode = domain.RenderModeStandard
	}
	if cfg.CameraDistanceFactor == 0 {
		cfg.CameraDistanceFactor = 1
	}

	bad := func(field string, v interface{}) error {
		return errors.ErrInvalidConfiguration.WithDetails(map[string]interface{}{"field": field, "value": v})
	}
	switch {
	case !domain.IsValidPreset(string(cfg.Preset)):
		return nil, bad("preset", cfg.Preset)
	case !domain.IsValidRenderMode(string(base.RenderMode)):
		return nil, bad("render_mode", base.RenderMode)
	case cfg.NeighborhoodRadius < 0 || cfg.NeighborhoodRadius > maxNeighborhoodRadius:
		return nil, bad("neighborhood_radius", cfg.NeighborhoodRadius)
	case cfg.DensityThreshold < 0:
		return nil, bad("density_threshold", cfg.DensityThreshold)
	case !(cfg.CameraDistanceFactor > 0):
		return nil, bad("camera_distance_factor", cfg.CameraDistanceFactor)
	case cfg.OverlapRiskFactor < 0 || cfg.OverlapRiskFactor > 1:
		return nil, bad("overlap_risk_factor", cfg.OverlapRiskFactor)
	case invalidRange(cfg.OutlineWidthRange, 0, math.Inf(1)):
		return nil, bad("outline_width_range", cfg.OutlineWidthRange)
	case invalidRange(cfg.BoxOpacityRange, 0, 1):
		return nil, bad("box_opacity_range", cfg.BoxOpacityRange)
	case invalidRange(cfg.OutlineOpacityRange, 0, 1):
		return nil, bad("outline_opacity_range", cfg.OutlineOpacityRange)
	}

	radius := int(math.Floor(cfg.NeighborhoodRadius / assumedCellPitch))
	if radius < 1 {
		radius = 1
	}
	return &AdaptiveController{cfg: cfg, base: base, radius: radius, logger: logger}, nil
}

func invalidRange(r *domain.Range, lo, hi float64) bool {
	return r != nil && (r.Min > r.Max || r.Min < lo || r.Max > hi)
}

// Compute returns the adaptive parameters of cell. When the controller is
// disabled every value is nil.
func (a *AdaptiveController) Compute(
	cell *domain.CellInfo,
	m *domain.ClassifiedMap,
	stats domain.VoxelStatistics,
	grid domain.Grid,
	isTopN bool,
) domain.AdaptiveParams {
	if !a.cfg.Enabled || cell == nil {
		return domain.AdaptiveParams{}
	}

	nd := NormalizedDensity(cell.Count, stats)
	hood := a.Neighborhood(cell.Key, m)
	zScale := a.ZScaleFactor(grid)
	overlap := a.Overlap(cell.Key, m)

	width, box, outline := a.applyPreset(isTopN, nd, hood.IsDenseArea)
	if a.cfg.OverlapDetection && overlap.OverlapRisk > 0 {
		box *= 1 - overlap.OverlapRisk*a.cfg.OverlapRiskFactor
	}

	width = width * a.cfg.CameraDistanceFactor * zScale
	width = math.Max(minOutlineWidth, a.cfg.OutlineWidthRange.Clamp(width))
	box = clamp01(a.cfg.BoxOpacityRange.Clamp(clamp01(box)))
	outline = clamp01(a.cfg.OutlineOpacityRange.Clamp(clamp01(outline)))

	emulate := hood.IsDenseArea || (width > emulationWidth && a.base.RenderMode != domain.RenderModeStandard)

	return domain.AdaptiveParams{
		OutlineWidth:       &width,
		BoxOpacity:         &box,
		OutlineOpacity:     &outline,
		ShouldUseEmulation: emulate,
		Debug: &domain.AdaptiveDebug{
			NormalizedDensity: nd,
			Neighborhood:      hood,
			ZScaleFactor:      zScale,
			Overlap:           overlap,
		},
	}
}

// ComputeAll evaluates keys concurrently against the same snapshot. The
// result is aligned with keys.
func (a *AdaptiveController) ComputeAll(
	ctx context.Context,
	keys []domain.CellKey,
	m *domain.ClassifiedMap,
	stats domain.VoxelStatistics,
	grid domain.Grid,
	topN map[domain.CellKey]bool,
) ([]domain.AdaptiveParams, error) {
	out := make([]domain.AdaptiveParams, len(keys))
	if !a.cfg.Enabled {
		return out, nil
	}

	workers := runtime.GOMAXPROCS(0)
	chunk := (len(keys) + workers - 1) / workers
	if chunk < 256 {
		chunk = 256
	}

	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < len(keys); lo += chunk {
		lo, hi := lo, lo+chunk
		if hi > len(keys) {
			hi = len(keys)
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				cell, ok := m.Get(keys[i])
				if !ok {
					continue
				}
				out[i] = a.Compute(cell, m, stats, grid, topN[keys[i]])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// NormalizedDensity maps count into [0,1] between the global min and max.
func NormalizedDensity(count int, stats domain.VoxelStatistics) float64 {
	span := stats.MaxCount - stats.MinCount
	if span <= 0 {
		return 0
	}
	return utils.Clamp(float64(count-stats.MinCount)/float64(span), 0, 1)
}

// Neighborhood averages the counts of populated cells within the search
// radius around k, excluding k itself.
func (a *AdaptiveController) Neighborhood(k domain.CellKey, m *domain.ClassifiedMap) domain.NeighborhoodResult {
	r := a.radius
	total, n := 0, 0

	side := 2*r + 1
	if side*side*side > m.Len() {
		m.Each(func(c *domain.CellInfo) {
			if c.Key == k {
				return
			}
			if absInt(c.X-k.X) <= r && absInt(c.Y-k.Y) <= r && absInt(c.Z-k.Z) <= r {
				total += c.Count
				n++
			}
		})
	} else {
		for dx := -r; dx <= r; dx++ {
			for dy := -r; dy <= r; dy++ {
				for dz := -r; dz <= r; dz++ {
					if dx == 0 && dy == 0 && dz == 0 {
						continue
					}
					if c, ok := m.Get(domain.CellKey{X: k.X + dx, Y: k.Y + dy, Z: k.Z + dz}); ok {
						total += c.Count
						n++
					}
				}
			}
		}
	}

	avg := 0.0
	if n > 0 {
		avg = float64(total) / float64(n)
	}
	return domain.NeighborhoodResult{
		IsDenseArea:         avg > a.cfg.DensityThreshold,
		AvgNeighborDensity:  avg,
		NeighborCount:       n,
		SearchRadiusInCells: r,
	}
}

// ZScaleFactor compensates extremely flat cells: when the vertical cell size
// is under a tenth of the horizontal one the factor grows from 1 up to 1.3.
func (a *AdaptiveController) ZScaleFactor(grid domain.Grid) float64 {
	if !a.cfg.ZScaleCompensation || grid.CellSizeX <= 0 || grid.CellSizeY <= 0 || grid.CellSizeZ <= 0 {
		return 1
	}
	ratio := grid.CellSizeZ / ((grid.CellSizeX + grid.CellSizeY) / 2)
	if ratio >= flatAspectRatio {
		return 1
	}
	return utils.Clamp(1+(flatAspectRatio-ratio)*zScaleGain, minZScaleFactor, maxZScaleFactor)
}

// Overlap counts populated face neighbors of k. A recommendation is only
// made when overlap detection is enabled.
func (a *AdaptiveController) Overlap(k domain.CellKey, m *domain.ClassifiedMap) domain.OverlapRecommendation {
	adjacent := 0
	for _, d := range faceNeighbors {
		if m.Has(domain.CellKey{X: k.X + d.X, Y: k.Y + d.Y, Z: k.Z + d.Z}) {
			adjacent++
		}
	}
	rec := domain.OverlapRecommendation{
		AdjacentCount: adjacent,
		OverlapRisk:   float64(adjacent) / float64(len(faceNeighbors)),
	}
	if a.cfg.OverlapDetection && rec.OverlapRisk > overlapThreshold && a.base.RenderMode != domain.RenderModeEmulationOnly {
		rec.RecommendedMode = domain.RenderModeInset
		rec.RecommendedInset = math.Max(minInset, maxInset-rec.OverlapRisk)
	}
	return rec
}

func clamp01(v float64) float64 {
	return utils.Clamp(v, 0, 1)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
