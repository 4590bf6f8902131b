package voxel

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/voxel-density-service/internal/domain"
	"github.com/voxel-density-service/internal/pkg/errors"
)

// TileCell is the cell a tile index assigns to a position.
type TileCell struct {
	TileKey          string            `json:"tile_key"`
	Index            domain.CellKey    `json:"index"`
	BoundaryVertices []domain.Position `json:"boundary_vertices,omitempty"`
}

// SpatialIndex is a pluggable tile-based alternative to the uniform grid.
type SpatialIndex interface {
	// LoadProvider prepares the backend before the first lookup.
	LoadProvider(ctx context.Context) error

	// ResolveCellForPosition maps a position to a tile cell at zoom.
	ResolveCellForPosition(lon, lat, alt float64, zoom int) (TileCell, error)

	// CalculateOptimalZoom returns the zoom whose tile edge best matches
	// targetSizeMeters at latitude.
	CalculateOptimalZoom(targetSizeMeters, latitude, tolerancePct float64) int
}

const (
	earthCircumference = 40075016.686
	maxMercatorLat     = 85.05112878
	maxTileZoom        = 24
)

// WebMercatorIndex indexes positions into slippy-map tiles with altitude bins.
type WebMercatorIndex struct {
	// AltitudeStep is the height of one altitude bin in meters.
	AltitudeStep float64
	// BaseAltitude is the lower edge of bin 0.
	BaseAltitude float64
}

// NewWebMercatorIndex builds an index with the given altitude bin height.
func NewWebMercatorIndex(altitudeStep, baseAltitude float64) *WebMercatorIndex {
	if !(altitudeStep > 0) {
		altitudeStep = 1
	}
	return &WebMercatorIndex{AltitudeStep: altitudeStep, BaseAltitude: baseAltitude}
}

// LoadProvider is a no-op: the tiling is computed.
func (w *WebMercatorIndex) LoadProvider(ctx context.Context) error {
	return ctx.Err()
}

func (w *WebMercatorIndex) ResolveCellForPosition(lon, lat, alt float64, zoom int) (TileCell, error) {
	if zoom < 0 || zoom > maxTileZoom {
		return TileCell{}, errors.ErrInvalidConfiguration.WithDetails(map[string]interface{}{
			"field": "zoom",
			"value": zoom,
		})
	}
	if lon < -180 || lon > 180 || math.IsNaN(lat) || math.IsNaN(lon) {
		return TileCell{}, errors.ErrInvalidCoordinates
	}
	lat = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))

	n := 1 << uint(zoom)
	x, y := lonLatToTile(lon, lat, n)
	z := int(math.Floor((alt - w.BaseAltitude) / w.AltitudeStep))

	return TileCell{
		TileKey:          fmt.Sprintf("%s/%d", quadKey(x, y, zoom), z),
		Index:            domain.CellKey{X: x, Y: y, Z: z},
		BoundaryVertices: tileVertices(x, y, n, w.BaseAltitude+float64(z)*w.AltitudeStep),
	}, nil
}

// CalculateOptimalZoom scans zoom levels for the tile edge closest to
// targetSizeMeters and stops early once within tolerancePct percent.
func (w *WebMercatorIndex) CalculateOptimalZoom(targetSizeMeters, latitude, tolerancePct float64) int {
	if !(targetSizeMeters > 0) {
		return 0
	}
	cosLat := math.Cos(latitude * math.Pi / 180)
	best, bestDiff := 0, math.Inf(1)
	for z := 0; z <= maxTileZoom; z++ {
		edge := earthCircumference * cosLat / float64(int(1)<<uint(z))
		diff := math.Abs(edge-targetSizeMeters) / targetSizeMeters
		if diff < bestDiff {
			best, bestDiff = z, diff
		}
		if diff*100 <= tolerancePct {
			return z
		}
	}
	return best
}

func lonLatToTile(lon, lat float64, n int) (int, int) {
	latRad := lat * math.Pi / 180
	x := int(math.Floor((lon + 180) / 360 * float64(n)))
	y := int(math.Floor((1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * float64(n)))
	if x >= n {
		x = n - 1
	}
	if y >= n {
		y = n - 1
	}
	if y < 0 {
		y = 0
	}
	return x, y
}

func tileToLonLat(x, y, n int) (float64, float64) {
	lon := float64(x)/float64(n)*360 - 180
	lat := math.Atan(math.Sinh(math.Pi*(1-2*float64(y)/float64(n)))) * 180 / math.Pi
	return lon, lat
}

func tileVertices(x, y, n int, alt float64) []domain.Position {
	west, north := tileToLonLat(x, y, n)
	east, south := tileToLonLat(x+1, y+1, n)
	return []domain.Position{
		{Lon: west, Lat: north, Alt: alt},
		{Lon: east, Lat: north, Alt: alt},
		{Lon: east, Lat: south, Alt: alt},
		{Lon: west, Lat: south, Alt: alt},
	}
}

func quadKey(x, y, zoom int) string {
	if zoom == 0 {
		return "0"
	}
	var sb strings.Builder
	sb.Grow(zoom)
	for i := zoom; i > 0; i-- {
		digit := byte('0')
		mask := 1 << uint(i-1)
		if x&mask != 0 {
			digit++
		}
		if y&mask != 0 {
			digit += 2
		}
		sb.WriteByte(digit)
	}
	return sb.String()
}
