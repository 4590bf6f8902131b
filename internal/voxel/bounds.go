// Package voxel turns geolocated records into a density-aggregated 3D grid
// and derives per-cell rendering parameters from it.
package voxel

import (
	"math"
	"time"

	"github.com/voxel-density-service/internal/domain"
	"github.com/voxel-density-service/internal/pkg/errors"
)

// BoundsReport counts what CalculateBounds saw.
type BoundsReport struct {
	Resolved int `json:"resolved"`
	Skipped  int `json:"skipped"`
}

// CalculateBounds reduces the resolvable positions of records to an
// axis-aligned bounding volume. Records without a position are skipped.
func CalculateBounds(records []domain.Record, at time.Time) (domain.Bounds, BoundsReport, error) {
	var report BoundsReport
	b := domain.Bounds{
		MinX: math.Inf(1), MaxX: math.Inf(-1),
		MinY: math.Inf(1), MaxY: math.Inf(-1),
		MinZ: math.Inf(1), MaxZ: math.Inf(-1),
	}

	for _, rec := range records {
		p, err := resolvePosition(rec, at)
		if err != nil {
			report.Skipped++
			continue
		}
		report.Resolved++
		b.MinX = math.Min(b.MinX, p.Lon)
		b.MaxX = math.Max(b.MaxX, p.Lon)
		b.MinY = math.Min(b.MinY, p.Lat)
		b.MaxY = math.Max(b.MaxY, p.Lat)
		b.MinZ = math.Min(b.MinZ, p.Alt)
		b.MaxZ = math.Max(b.MaxZ, p.Alt)
	}

	if report.Resolved == 0 {
		return domain.Bounds{}, report, errors.ErrNoValidRecords.WithDetails(map[string]interface{}{
			"records": len(records),
			"skipped": report.Skipped,
		})
	}

	b.CenterX = (b.MinX + b.MaxX) / 2
	b.CenterY = (b.MinY + b.MaxY) / 2
	b.CenterZ = (b.MinZ + b.MaxZ) / 2
	return b, report, nil
}
