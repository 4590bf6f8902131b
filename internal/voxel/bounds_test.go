package voxel

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxel-density-service/internal/domain"
	"github.com/voxel-density-service/internal/pkg/errors"
)

func TestCalculateBounds(t *testing.T) {
	t.Run("single record yields zero span", func(t *testing.T) {
		b, report, err := CalculateBounds(records(pt(139.70, 35.69, 50)), time.Time{})
		require.NoError(t, err)
		assert.Equal(t, 1, report.Resolved)
		assert.Equal(t, 0.0, b.SpanX())
		assert.Equal(t, 0.0, b.SpanY())
		assert.Equal(t, 0.0, b.SpanZ())
		assert.Equal(t, 139.70, b.CenterX)
		assert.Equal(t, 35.69, b.CenterY)
		assert.Equal(t, 50.0, b.CenterZ)
	})

	t.Run("min max and center over all axes", func(t *testing.T) {
		b, _, err := CalculateBounds(records(
			pt(10, 20, 5),
			pt(12, 18, 30),
			pt(11, 25, -5),
		), time.Time{})
		require.NoError(t, err)
		assert.Equal(t, domain.Bounds{
			MinX: 10, MaxX: 12,
			MinY: 18, MaxY: 25,
			MinZ: -5, MaxZ: 30,
			CenterX: 11, CenterY: 21.5, CenterZ: 12.5,
		}, b)
	})

	t.Run("unresolvable records are skipped", func(t *testing.T) {
		rs := []domain.Record{
			&domain.PointRecord{ID: "no-position"},
			panicRecord{},
			nil,
			pt(1, 2, 3),
		}
		b, report, err := CalculateBounds(rs, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, 1, report.Resolved)
		assert.Equal(t, 3, report.Skipped)
		assert.Equal(t, 1.0, b.MinX)
	})

	t.Run("out of range coordinates are skipped", func(t *testing.T) {
		rs := records(
			pt(0, 0, 0),
			pt(1e300, 0, 0),
			pt(180.5, 10, 0),
			pt(10, 90.5, 0),
			pt(-181, -10, 0),
			pt(10, -91, 0),
			pt(180, 90, 0),
		)
		b, report, err := CalculateBounds(rs, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, 2, report.Resolved)
		assert.Equal(t, 5, report.Skipped)
		assert.Equal(t, 180.0, b.MaxX)
		assert.Equal(t, 90.0, b.MaxY)
	})

	t.Run("no valid records", func(t *testing.T) {
		_, report, err := CalculateBounds([]domain.Record{&domain.PointRecord{}, panicRecord{}}, time.Time{})
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, errors.ErrNoValidRecords))
		assert.Equal(t, 2, report.Skipped)
	})

	t.Run("empty input", func(t *testing.T) {
		_, _, err := CalculateBounds(nil, time.Time{})
		assert.True(t, stderrors.Is(err, errors.ErrNoValidRecords))
	})
}
