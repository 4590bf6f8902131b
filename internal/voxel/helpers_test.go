package voxel

import (
	"time"

	"github.com/voxel-density-service/internal/domain"
)

func pt(lon, lat, alt float64) *domain.PointRecord {
	return &domain.PointRecord{Lon: &lon, Lat: &lat, Alt: alt}
}

func catPt(lon, lat, alt float64, category string) *domain.PointRecord {
	p := pt(lon, lat, alt)
	p.Category = category
	return p
}

func records(rs ...*domain.PointRecord) []domain.Record {
	out := make([]domain.Record, len(rs))
	for i, r := range rs {
		out[i] = r
	}
	return out
}

// panicRecord blows up on every access.
type panicRecord struct{}

func (panicRecord) Position(time.Time) (domain.Position, error) { panic("boom") }

func (panicRecord) Property(string, time.Time) (any, error) { panic("boom") }

// gridRecords spreads n records over a lon/lat square starting at (lon, lat).
func gridRecords(n int, lon, lat, step float64) []domain.Record {
	out := make([]domain.Record, 0, n)
	side := 1
	for side*side < n {
		side++
	}
	cats := []string{"res", "com", "ind"}
	for i := 0; i < n; i++ {
		r := catPt(lon+float64(i%side)*step, lat+float64(i/side)*step, float64(i%7)*3, cats[i%len(cats)])
		out = append(out, r)
	}
	return out
}
