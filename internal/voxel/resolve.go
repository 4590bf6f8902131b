package voxel

import (
	"fmt"
	"time"

	"github.com/voxel-density-service/internal/domain"
	"github.com/voxel-density-service/internal/pkg/utils"
)

// resolvePosition calls rec.Position and turns a panic into an error so a
// single broken record never aborts a run. Non-finite positions and
// coordinates outside lon [-180,180], lat [-90,90] count as absent.
func resolvePosition(rec domain.Record, at time.Time) (pos domain.Position, err error) {
	if rec == nil {
		return domain.Position{}, domain.ErrNoPosition
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("position resolver panicked: %v", r)
		}
	}()
	pos, err = rec.Position(at)
	if err == nil && (!pos.Valid() || !utils.ValidateCoordinates(pos.Lat, pos.Lon)) {
		err = domain.ErrNoPosition
	}
	return pos, err
}

func resolveProperty(rec domain.Record, name string, at time.Time) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("property resolver panicked: %v", r)
		}
	}()
	return rec.Property(name, at)
}

func recordWeight(rec domain.Record) float64 {
	if w, ok := rec.(domain.Weighted); ok {
		return w.Weight()
	}
	return 1
}
