package voxel

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/voxel-density-service/internal/domain"
	"github.com/voxel-density-service/internal/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultCategory is used when aggregation has neither a key function
	// nor a key field.
	DefaultCategory = "default"
	// UnknownCategory collects records whose key could not be resolved.
	UnknownCategory = "unknown"

	boundsEpsilon   = 1e-9
	ctxCheckEvery   = 4096
	minShardRecords = 2048
)

// KeyFunc resolves the aggregation category of a record.
type KeyFunc func(rec domain.Record, at time.Time) (string, error)

// AggregationConfig controls per-cell category tallies.
type AggregationConfig struct {
	Enabled  bool    `json:"enabled"`
	KeyField string  `json:"key_field,omitempty"`
	KeyFunc  KeyFunc `json:"-"`
	TopN     int     `json:"top_n,omitempty"`
}

// ClassifierOptions configures a Classifier.
type ClassifierOptions struct {
	Aggregation   AggregationConfig
	ReferenceTime time.Time
	// Index, when set, replaces the uniform grid for cell lookup.
	Index SpatialIndex
	Zoom  int
}

// ClassifyReport counts the outcome per record.
type ClassifyReport struct {
	Processed          int  `json:"processed"`
	Classified         int  `json:"classified"`
	SkippedNoPosition  int  `json:"skipped_no_position"`
	SkippedOutOfBounds int  `json:"skipped_out_of_bounds"`
	SkippedIndex       int  `json:"skipped_index"`
	UnknownCategory    int  `json:"unknown_category"`
	TileIndexed        bool `json:"tile_indexed"`
}

func (r *ClassifyReport) add(o ClassifyReport) {
	r.Processed += o.Processed
	r.Classified += o.Classified
	r.SkippedNoPosition += o.SkippedNoPosition
	r.SkippedOutOfBounds += o.SkippedOutOfBounds
	r.SkippedIndex += o.SkippedIndex
	r.UnknownCategory += o.UnknownCategory
}

// Skipped returns the number of records that did not land in a cell.
func (r ClassifyReport) Skipped() int {
	return r.SkippedNoPosition + r.SkippedOutOfBounds + r.SkippedIndex
}

// Classifier assigns records to grid cells.
type Classifier struct {
	opts   ClassifierOptions
	logger *zap.Logger
}

// NewClassifier builds a Classifier. A nil logger disables logging.
func NewClassifier(opts ClassifierOptions, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{opts: opts, logger: logger}
}

// Classify assigns every record with a position inside bounds to one cell and
// returns the sparse map of non-empty cells.
func (c *Classifier) Classify(
	ctx context.Context,
	records []domain.Record,
	bounds domain.Bounds,
	grid domain.Grid,
) (*domain.ClassifiedMap, ClassifyReport, error) {
	if err := validateGrid(grid); err != nil {
		return nil, ClassifyReport{}, err
	}

	m := domain.NewClassifiedMap()
	report, err := c.classifyInto(ctx, m, records, bounds, grid)
	if err != nil {
		return nil, report, err
	}
	m.Each(func(cell *domain.CellInfo) { cell.ResolveTopCategory() })

	c.logClassified(report, m)
	return m, report, nil
}

// ClassifyParallel shards records across workers and merges the partial maps
// in shard order. The result is identical to Classify on the same input.
func (c *Classifier) ClassifyParallel(
	ctx context.Context,
	records []domain.Record,
	bounds domain.Bounds,
	grid domain.Grid,
	workers int,
) (*domain.ClassifiedMap, ClassifyReport, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if shards := len(records) / minShardRecords; shards < workers {
		workers = shards
	}
	if workers <= 1 {
		return c.Classify(ctx, records, bounds, grid)
	}
	if err := validateGrid(grid); err != nil {
		return nil, ClassifyReport{}, err
	}

	parts := make([]*domain.ClassifiedMap, workers)
	reports := make([]ClassifyReport, workers)
	chunk := (len(records) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		lo := i * chunk
		hi := lo + chunk
		if hi > len(records) {
			hi = len(records)
		}
		i := i
		g.Go(func() error {
			parts[i] = domain.NewClassifiedMap()
			r, err := c.classifyInto(gctx, parts[i], records[lo:hi], bounds, grid)
			reports[i] = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, ClassifyReport{}, err
	}

	m := domain.NewClassifiedMap()
	var report ClassifyReport
	for i := range parts {
		m.Merge(parts[i])
		report.add(reports[i])
	}
	report.TileIndexed = c.opts.Index != nil
	m.Each(func(cell *domain.CellInfo) { cell.ResolveTopCategory() })

	c.logClassified(report, m)
	return m, report, nil
}

func (c *Classifier) classifyInto(
	ctx context.Context,
	m *domain.ClassifiedMap,
	records []domain.Record,
	bounds domain.Bounds,
	grid domain.Grid,
) (ClassifyReport, error) {
	report := ClassifyReport{TileIndexed: c.opts.Index != nil}
	at := c.opts.ReferenceTime

	for i, rec := range records {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return report, err
			}
		}
		report.Processed++

		p, err := resolvePosition(rec, at)
		if err != nil {
			report.SkippedNoPosition++
			continue
		}
		if !withinBounds(p, bounds) {
			report.SkippedOutOfBounds++
			continue
		}

		var cell *domain.CellInfo
		if c.opts.Index != nil {
			tc, err := c.opts.Index.ResolveCellForPosition(p.Lon, p.Lat, p.Alt, c.opts.Zoom)
			if err != nil {
				report.SkippedIndex++
				continue
			}
			cell = m.Cell(tc.Index)
			if cell.TileKey == "" {
				cell.TileKey = tc.TileKey
			}
		} else {
			key := domain.CellKey{
				X: axisIndex(p.Lon, bounds.MinX, bounds.SpanX(), grid.CountX),
				Y: axisIndex(p.Lat, bounds.MinY, bounds.SpanY(), grid.CountY),
				Z: axisIndex(p.Alt, bounds.MinZ, bounds.SpanZ(), grid.CountZ),
			}
			if !grid.Contains(key) {
				report.SkippedOutOfBounds++
				continue
			}
			cell = m.Cell(key)
		}

		cell.Count++
		cell.Weight += recordWeight(rec)
		report.Classified++

		if c.opts.Aggregation.Enabled {
			cat, ok := c.categoryKey(rec, at)
			if !ok {
				report.UnknownCategory++
			}
			cell.AddCategory(cat, 1)
		}
	}
	return report, nil
}

// categoryKey resolves the aggregation key; false means it fell back to
// UnknownCategory.
func (c *Classifier) categoryKey(rec domain.Record, at time.Time) (string, bool) {
	agg := c.opts.Aggregation
	switch {
	case agg.KeyFunc != nil:
		key, err := safeKeyFunc(agg.KeyFunc, rec, at)
		if err != nil || key == "" {
			return UnknownCategory, false
		}
		return key, true
	case agg.KeyField != "":
		v, err := resolveProperty(rec, agg.KeyField, at)
		if err != nil || v == nil {
			return UnknownCategory, false
		}
		key := fmt.Sprint(v)
		if key == "" {
			return UnknownCategory, false
		}
		return key, true
	default:
		return DefaultCategory, true
	}
}

func (c *Classifier) logClassified(report ClassifyReport, m *domain.ClassifiedMap) {
	c.logger.Debug("Records classified",
		zap.Int("processed", report.Processed),
		zap.Int("classified", report.Classified),
		zap.Int("skipped", report.Skipped()),
		zap.Int("unknown_category", report.UnknownCategory),
		zap.Int("non_empty_cells", m.Len()),
		zap.Bool("tile_indexed", report.TileIndexed))
}

func safeKeyFunc(fn KeyFunc, rec domain.Record, at time.Time) (key string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("key function panicked: %v", r)
		}
	}()
	return fn(rec, at)
}

func validateGrid(g domain.Grid) error {
	if g.CountX < 1 || g.CountY < 1 || g.CountZ < 1 {
		return errors.ErrInvalidConfiguration.WithDetails(map[string]interface{}{
			"field": "grid",
			"value": fmt.Sprintf("%dx%dx%d", g.CountX, g.CountY, g.CountZ),
		})
	}
	return nil
}

func withinBounds(p domain.Position, b domain.Bounds) bool {
	return axisWithin(p.Lon, b.MinX, b.MaxX) &&
		axisWithin(p.Lat, b.MinY, b.MaxY) &&
		axisWithin(p.Alt, b.MinZ, b.MaxZ)
}

func axisWithin(v, lo, hi float64) bool {
	eps := boundsEpsilon * math.Max(1, math.Abs(hi-lo))
	return v >= lo-eps && v <= hi+eps
}

// axisIndex normalizes v into [0, count). A zero-span axis always maps to 0.
func axisIndex(v, lo, span float64, count int) int {
	if span <= 0 || count <= 1 {
		return 0
	}
	i := int(math.Floor((v - lo) / span * float64(count)))
	if i < 0 {
		return 0
	}
	if i >= count {
		return count - 1
	}
	return i
}
