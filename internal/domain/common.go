package domain

import "time"

type Point struct {
	Lat float64 `json:"lat" db:"lat"`
	Lon float64 `json:"lon" db:"lon"`
}

type BoundingBox struct {
	MinLat float64 `json:"min_lat" db:"min_lat" validate:"min=-90,max=90"`
	MinLon float64 `json:"min_lon" db:"min_lon" validate:"min=-180,max=180"`
	MaxLat float64 `json:"max_lat" db:"max_lat" validate:"min=-90,max=90,gtefield=MinLat"`
	MaxLon float64 `json:"max_lon" db:"max_lon" validate:"min=-180,max=180,gtefield=MinLon"`
}

// CategoryTotal - суммарное количество записей категории
type CategoryTotal struct {
	Key   string `json:"key"`
	Total int    `json:"total"`
}

// VoxelStatistics - сводная статистика по классифицированной сетке
type VoxelStatistics struct {
	TotalCells    int             `json:"total_cells"`
	NonEmptyCells int             `json:"non_empty_cells"`
	EmptyCells    int             `json:"empty_cells"`
	TotalRecords  int             `json:"total_records"`
	MinCount      int             `json:"min_count"`
	MaxCount      int             `json:"max_count"`
	AvgCount      float64         `json:"avg_count"`
	MedianCount   float64         `json:"median_count"`
	P90Count      float64         `json:"p90_count"`
	TopCategories []CategoryTotal `json:"top_categories,omitempty"`
}

// Dataset - набор записей в хранилище
type Dataset struct {
	Name        string    `json:"name" db:"dataset"`
	RecordCount int       `json:"record_count" db:"record_count"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// DatasetStatistics - статистика набора данных, отдаваемая API
type DatasetStatistics struct {
	Dataset      string          `json:"dataset"`
	Bounds       Bounds          `json:"bounds"`
	Grid         Grid            `json:"grid"`
	Voxels       VoxelStatistics `json:"voxels"`
	SkippedCount int             `json:"skipped_count"`
	ComputedAt   time.Time       `json:"computed_at"`
}
