package usecase

import (
	"github.com/voxel-density-service/internal/domain"
	"github.com/voxel-density-service/internal/usecase/dto"
	"github.com/voxel-density-service/internal/voxel"
)

// buildOptions накладывает переопределения запроса на параметры по умолчанию
func buildOptions(base voxel.Options, index voxel.SpatialIndex, o dto.VoxelOptions) voxel.Options {
	opts := base
	opts.Index = index

	if o.VoxelSize != nil {
		opts.VoxelSize = *o.VoxelSize
		opts.AutoVoxelSize = false
	}
	if o.AutoVoxelSize != nil {
		opts.AutoVoxelSize = *o.AutoVoxelSize
	}
	if o.EstimatorMode != "" {
		opts.Estimator.Mode = voxel.EstimatorMode(o.EstimatorMode)
	}
	if o.TargetFill != nil {
		opts.Estimator.TargetFill = *o.TargetFill
	}
	if o.RenderBudget != nil {
		opts.RenderBudget = *o.RenderBudget
		opts.Estimator.RenderBudget = *o.RenderBudget
	}
	if o.IncludeEmpty != nil {
		opts.IncludeEmpty = *o.IncludeEmpty
	}
	if o.TopN != nil {
		opts.TopN = *o.TopN
	}
	if o.ReferenceTime != nil {
		opts.ReferenceTime = *o.ReferenceTime
	}
	if o.TileIndex != nil {
		if !*o.TileIndex {
			opts.Index = nil
		} else if opts.Index == nil {
			opts.Index = voxel.NewWebMercatorIndex(defaultAltitudeStep, 0)
		}
	}
	opts.IndexZoom = o.IndexZoom

	if a := o.Aggregation; a != nil {
		opts.Aggregation.Enabled = a.Enabled
		if a.KeyField != "" {
			opts.Aggregation.KeyField = a.KeyField
		}
		if a.TopN > 0 {
			opts.Aggregation.TopN = a.TopN
		}
	}

	if a := o.Adaptive; a != nil {
		ac := &opts.Adaptive
		ac.Enabled = a.Enabled
		if a.Preset != "" {
			ac.Preset = domain.OutlinePreset(a.Preset)
		}
		if a.RenderMode != "" {
			opts.Render.RenderMode = domain.RenderMode(a.RenderMode)
		}
		setFloat(&ac.NeighborhoodRadius, a.NeighborhoodRadius)
		setFloat(&ac.DensityThreshold, a.DensityThreshold)
		setFloat(&ac.CameraDistanceFactor, a.CameraDistanceFactor)
		setFloat(&ac.OverlapRiskFactor, a.OverlapRiskFactor)
		setFloat(&opts.Render.OutlineWidth, a.OutlineWidth)
		setFloat(&opts.Render.Opacity, a.Opacity)
		setFloat(&opts.Render.OutlineOpacity, a.OutlineOpacity)
		if a.ZScaleCompensation != nil {
			ac.ZScaleCompensation = *a.ZScaleCompensation
		}
		if a.OverlapDetection != nil {
			ac.OverlapDetection = *a.OverlapDetection
		}
		if a.OutlineWidthRange != nil {
			ac.OutlineWidthRange = a.OutlineWidthRange
		}
		if a.BoxOpacityRange != nil {
			ac.BoxOpacityRange = a.BoxOpacityRange
		}
		if a.OutlineOpacityRange != nil {
			ac.OutlineOpacityRange = a.OutlineOpacityRange
		}
	}
	return opts
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
