package voxel

import (
	"context"
	"time"

	"github.com/voxel-density-service/internal/domain"
	"github.com/voxel-density-service/internal/pkg/errors"
	"go.uber.org/zap"
)

const (
	defaultVoxelSize   = 20.0
	zoomTolerancePct   = 10.0
	defaultEmptyBudget = 50000
)

// Options configures a single Engine run.
type Options struct {
	VoxelSize     float64           `json:"voxel_size"`
	AutoVoxelSize bool              `json:"auto_voxel_size"`
	Estimator     EstimatorConfig   `json:"estimator"`
	RenderBudget  int               `json:"render_budget"`
	IncludeEmpty  bool              `json:"include_empty"`
	TopN          int               `json:"top_n"`
	Aggregation   AggregationConfig `json:"aggregation"`
	Adaptive      AdaptiveConfig    `json:"adaptive"`
	Render        RenderOptions     `json:"render"`
	ReferenceTime time.Time         `json:"reference_time"`
	Workers       int               `json:"workers"`

	// Index switches classification to a tile index. IndexZoom <= 0 picks
	// the zoom from the target cell size.
	Index     SpatialIndex `json:"-"`
	IndexZoom int          `json:"index_zoom"`
}

// Cell is one cell handed to the renderer.
type Cell struct {
	Key            string                 `json:"key"`
	X              int                    `json:"x"`
	Y              int                    `json:"y"`
	Z              int                    `json:"z"`
	Count          int                    `json:"count"`
	Weight         float64                `json:"weight"`
	CategoryTotals map[string]int         `json:"category_totals,omitempty"`
	TopCategory    string                 `json:"top_category,omitempty"`
	TileKey        string                 `json:"tile_key,omitempty"`
	IsTopN         bool                   `json:"is_top_n,omitempty"`
	Adaptive       *domain.AdaptiveParams `json:"adaptive,omitempty"`
}

// Result is the output of a run.
type Result struct {
	Bounds         domain.Bounds          `json:"bounds"`
	Grid           domain.Grid            `json:"grid"`
	Statistics     domain.VoxelStatistics `json:"statistics"`
	Estimation     *Estimation            `json:"estimation,omitempty"`
	BoundsReport   BoundsReport           `json:"bounds_report"`
	ClassifyReport ClassifyReport         `json:"classify_report"`
	Cells          []Cell                 `json:"cells"`
	Truncated      bool                   `json:"truncated"`

	Map *domain.ClassifiedMap `json:"-"`
}

// Engine runs the full pipeline: bounds, grid, classification, statistics
// and adaptive parameters.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates an Engine.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Run processes records. Configuration is validated before any work is done;
// ctx is checked between stages.
func (e *Engine) Run(ctx context.Context, records []domain.Record, opts Options) (*Result, error) {
	started := time.Now()

	controller, err := NewAdaptiveController(opts.Adaptive, opts.Render, e.logger)
	if err != nil {
		return nil, err
	}
	var estimator *Estimator
	if opts.AutoVoxelSize {
		cfg := opts.Estimator
		if cfg.RenderBudget == 0 {
			cfg.RenderBudget = opts.RenderBudget
		}
		if estimator, err = NewEstimator(cfg, e.logger); err != nil {
			return nil, err
		}
	} else if opts.VoxelSize < 0 {
		return nil, errors.ErrInvalidConfiguration.WithDetails(map[string]interface{}{
			"field": "voxel_size",
			"value": opts.VoxelSize,
		})
	}

	bounds, boundsReport, err := CalculateBounds(records, opts.ReferenceTime)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Bounds: bounds, BoundsReport: boundsReport}

	size := opts.VoxelSize
	if size == 0 {
		size = defaultVoxelSize
	}
	if estimator != nil {
		est := estimator.Estimate(bounds, boundsReport.Resolved)
		res.Estimation = &est
		size = est.Size
	}

	grid, err := CalculateGrid(bounds, size)
	if err != nil {
		return nil, err
	}
	res.Grid = grid

	classifierOpts := ClassifierOptions{
		Aggregation:   opts.Aggregation,
		ReferenceTime: opts.ReferenceTime,
	}
	if opts.Index != nil {
		if err := opts.Index.LoadProvider(ctx); err != nil {
			return nil, err
		}
		zoom := opts.IndexZoom
		if zoom <= 0 {
			zoom = opts.Index.CalculateOptimalZoom(size, bounds.CenterY, zoomTolerancePct)
		}
		classifierOpts.Index = opts.Index
		classifierOpts.Zoom = zoom
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	classifier := NewClassifier(classifierOpts, e.logger)
	var m *domain.ClassifiedMap
	if opts.Workers > 1 {
		m, res.ClassifyReport, err = classifier.ClassifyParallel(ctx, records, bounds, grid, opts.Workers)
	} else {
		m, res.ClassifyReport, err = classifier.Classify(ctx, records, bounds, grid)
	}
	if err != nil {
		return nil, err
	}
	res.Map = m

	topK := 0
	if opts.Aggregation.Enabled {
		topK = opts.Aggregation.TopN
		if topK <= 0 {
			topK = DefaultTopCategories
		}
	}
	res.Statistics = Aggregate(m, grid, StatsOptions{TopCategories: topK})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	topN := make(map[domain.CellKey]bool)
	for _, k := range TopNKeys(m, opts.TopN) {
		topN[k] = true
	}

	keys := e.selectCells(m, opts.RenderBudget)
	res.Truncated = len(keys) < m.Len()

	params, err := controller.ComputeAll(ctx, keys, m, res.Statistics, grid, topN)
	if err != nil {
		return nil, err
	}

	res.Cells = make([]Cell, 0, len(keys))
	for i, k := range keys {
		c, _ := m.Get(k)
		cell := Cell{
			Key:            k.String(),
			X:              c.X,
			Y:              c.Y,
			Z:              c.Z,
			Count:          c.Count,
			Weight:         c.Weight,
			CategoryTotals: c.CategoryTotals,
			TopCategory:    c.TopCategory,
			TileKey:        c.TileKey,
			IsTopN:         topN[k],
		}
		if opts.Adaptive.Enabled {
			p := params[i]
			cell.Adaptive = &p
		}
		res.Cells = append(res.Cells, cell)
	}

	if opts.IncludeEmpty && opts.Index == nil {
		res.Cells = appendEmptyCells(res.Cells, m, grid, opts.RenderBudget)
	}

	e.logger.Info("Voxelization completed",
		zap.Int("records", len(records)),
		zap.Int("skipped", boundsReport.Skipped+res.ClassifyReport.SkippedOutOfBounds+res.ClassifyReport.SkippedIndex),
		zap.Float64("voxel_size", size),
		zap.Int("total_cells", grid.TotalCount),
		zap.Int("non_empty_cells", res.Statistics.NonEmptyCells),
		zap.Int("emitted_cells", len(res.Cells)),
		zap.Duration("took", time.Since(started)))

	return res, nil
}

// selectCells keeps at most budget cells, preferring the densest. Output
// keeps the map's insertion order.
func (e *Engine) selectCells(m *domain.ClassifiedMap, budget int) []domain.CellKey {
	if budget <= 0 || m.Len() <= budget {
		return m.Keys()
	}
	keep := make(map[domain.CellKey]bool, budget)
	for _, k := range TopNKeys(m, budget) {
		keep[k] = true
	}
	out := make([]domain.CellKey, 0, budget)
	for _, k := range m.Keys() {
		if keep[k] {
			out = append(out, k)
		}
	}
	e.logger.Debug("Cells truncated to render budget",
		zap.Int("non_empty_cells", m.Len()),
		zap.Int("budget", budget))
	return out
}

func appendEmptyCells(cells []Cell, m *domain.ClassifiedMap, grid domain.Grid, budget int) []Cell {
	if budget <= 0 {
		budget = defaultEmptyBudget
	}
	for x := 0; x < grid.CountX; x++ {
		for y := 0; y < grid.CountY; y++ {
			for z := 0; z < grid.CountZ; z++ {
				if len(cells) >= budget {
					return cells
				}
				k := domain.CellKey{X: x, Y: y, Z: z}
				if m.Has(k) {
					continue
				}
				cells = append(cells, Cell{Key: k.String(), X: x, Y: y, Z: z})
			}
		}
	}
	return cells
}
