package voxel

import (
	"math"

	"github.com/voxel-density-service/internal/domain"
	"github.com/voxel-density-service/internal/pkg/errors"
	"github.com/voxel-density-service/internal/pkg/utils"
)

// SpanMeters converts the angular spans of b to meters using a single
// reference latitude at the bounds center. This is only accurate for regions
// much smaller than the Earth's radius; continental extents will distort the
// longitude axis.
func SpanMeters(b domain.Bounds) (x, y, z float64) {
	x = b.SpanX() * utils.MetersPerDegreeLon(b.CenterY)
	y = b.SpanY() * utils.MetersPerDegreeLat
	z = b.SpanZ()
	return math.Abs(x), y, z
}

// MaxGridCells bounds the nominal cell count of a grid. Up to 2^53 the
// count and every axis count stay exact in float64.
const MaxGridCells float64 = 1 << 53

// CalculateGrid partitions b into cells no larger than targetCellSize meters.
// A zero-span axis gets a single cell of size max(targetCellSize, 1).
// Grids above MaxGridCells are rejected as an invalid voxel size.
func CalculateGrid(b domain.Bounds, targetCellSize float64) (domain.Grid, error) {
	if !(targetCellSize > 0) || math.IsInf(targetCellSize, 0) {
		return domain.Grid{}, invalidVoxelSize(targetCellSize, nil)
	}

	sx, sy, sz := SpanMeters(b)
	fx, fy, fz := axisCount(sx, targetCellSize), axisCount(sy, targetCellSize), axisCount(sz, targetCellSize)
	if total := fx * fy * fz; !(total <= MaxGridCells) {
		return domain.Grid{}, invalidVoxelSize(targetCellSize, map[string]interface{}{
			"cells":     total,
			"max_cells": MaxGridCells,
		})
	}

	cx, sizeX := axisCells(sx, fx, targetCellSize)
	cy, sizeY := axisCells(sy, fy, targetCellSize)
	cz, sizeZ := axisCells(sz, fz, targetCellSize)

	return domain.Grid{
		CountX:         cx,
		CountY:         cy,
		CountZ:         cz,
		TotalCount:     cx * cy * cz,
		CellSizeX:      sizeX,
		CellSizeY:      sizeY,
		CellSizeZ:      sizeZ,
		TargetCellSize: targetCellSize,
	}, nil
}

// axisCount is the cell count of one axis as a float so oversized grids
// are detected before any int conversion.
func axisCount(span, target float64) float64 {
	if span <= 0 {
		return 1
	}
	return math.Max(1, math.Ceil(span/target))
}

func axisCells(span, count, target float64) (int, float64) {
	if span <= 0 {
		return 1, math.Max(target, 1)
	}
	return int(count), span / count
}

func invalidVoxelSize(target float64, extra map[string]interface{}) error {
	details := map[string]interface{}{
		"field": "voxel_size",
		"value": target,
	}
	for k, v := range extra {
		details[k] = v
	}
	return errors.ErrInvalidConfiguration.WithDetails(details)
}
