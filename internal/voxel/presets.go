package voxel

import (
	"github.com/voxel-density-service/internal/domain"
	"github.com/voxel-density-service/internal/pkg/utils"
)

// applyPreset maps the cell context to raw (width, box opacity, outline
// opacity) before camera/Z scaling and clamping.
func (a *AdaptiveController) applyPreset(isTopN bool, nd float64, dense bool) (float64, float64, float64) {
	w := a.base.OutlineWidth
	box := a.base.Opacity
	outline := a.base.OutlineOpacity

	switch a.cfg.Preset {
	case domain.PresetThin:
		w *= 0.5
		outline *= 0.8

	case domain.PresetMedium:
		if isTopN {
			w *= 1.2
		}

	case domain.PresetThick:
		w *= 2
		if dense {
			box *= 0.85
		}

	case domain.PresetAdaptive:
		if dense {
			// dense areas get thinner outlines and a more transparent fill
			w *= utils.Clamp(0.95-0.35*nd, 0.6, 0.95)
			box *= 1 - 0.3*nd
		} else {
			w *= 1 + 0.5*nd
		}
		outline *= 0.6 + 0.4*nd
		if isTopN {
			outline = a.base.OutlineOpacity
		}

	case domain.PresetTopNFocus:
		if isTopN {
			w *= 1.5
			outline = 1
		} else {
			w *= 0.6
			box *= 0.6
			outline *= 0.5
		}

	case domain.PresetUniform:
	}
	return w, box, outline
}
