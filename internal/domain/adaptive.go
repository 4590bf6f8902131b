package domain

// OutlinePreset - именованный набор правил для адаптивных параметров
type OutlinePreset string

const (
	PresetThin      OutlinePreset = "thin"
	PresetMedium    OutlinePreset = "medium"
	PresetThick     OutlinePreset = "thick"
	PresetAdaptive  OutlinePreset = "adaptive"
	PresetTopNFocus OutlinePreset = "topn-focus"
	PresetUniform   OutlinePreset = "uniform"
)

// ValidPresets - список всех поддерживаемых пресетов
var ValidPresets = []OutlinePreset{
	PresetThin, PresetMedium, PresetThick, PresetAdaptive, PresetTopNFocus, PresetUniform,
}

// IsValidPreset проверяет имя пресета
func IsValidPreset(p string) bool {
	for _, v := range ValidPresets {
		if string(v) == p {
			return true
		}
	}
	return false
}

// RenderMode - стратегия отрисовки контура у внешнего рендерера
type RenderMode string

const (
	RenderModeStandard      RenderMode = "standard"
	RenderModeInset         RenderMode = "inset"
	RenderModeEmulationOnly RenderMode = "emulation-only"
)

// IsValidRenderMode проверяет режим отрисовки
func IsValidRenderMode(m string) bool {
	switch RenderMode(m) {
	case RenderModeStandard, RenderModeInset, RenderModeEmulationOnly:
		return true
	}
	return false
}

// Range - замкнутый интервал [Min, Max]
type Range struct {
	Min float64 `json:"min" mapstructure:"min"`
	Max float64 `json:"max" mapstructure:"max" validate:"gtefield=Min"`
}

// Clamp ограничивает v интервалом
func (r *Range) Clamp(v float64) float64 {
	if r == nil {
		return v
	}
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// NeighborhoodResult - итог поиска соседей
type NeighborhoodResult struct {
	IsDenseArea         bool    `json:"is_dense_area"`
	AvgNeighborDensity  float64 `json:"avg_neighbor_density"`
	NeighborCount       int     `json:"neighbor_count"`
	SearchRadiusInCells int     `json:"search_radius_cells"`
}

// OverlapRecommendation - рекомендация по режиму отрисовки при плотном соседстве
type OverlapRecommendation struct {
	AdjacentCount    int        `json:"adjacent_count"`
	OverlapRisk      float64    `json:"overlap_risk"`
	RecommendedMode  RenderMode `json:"recommended_mode,omitempty"`
	RecommendedInset float64    `json:"recommended_inset,omitempty"`
}

// AdaptiveDebug - промежуточные значения расчета
type AdaptiveDebug struct {
	NormalizedDensity float64               `json:"normalized_density"`
	Neighborhood      NeighborhoodResult    `json:"neighborhood"`
	ZScaleFactor      float64               `json:"z_scale_factor"`
	Overlap           OverlapRecommendation `json:"overlap"`
}

// AdaptiveParams - визуальные параметры ячейки. При выключенном адаптивном
// режиме все значения nil.
type AdaptiveParams struct {
	OutlineWidth       *float64       `json:"outline_width"`
	BoxOpacity         *float64       `json:"box_opacity"`
	OutlineOpacity     *float64       `json:"outline_opacity"`
	ShouldUseEmulation bool           `json:"should_use_emulation"`
	Debug              *AdaptiveDebug `json:"debug,omitempty"`
}
