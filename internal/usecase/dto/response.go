package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/voxel-density-service/internal/domain"
	"github.com/voxel-density-service/internal/voxel"
)

// ProcessingReport - сколько записей обработано и пропущено
type ProcessingReport struct {
	Processed          int  `json:"processed"`
	Classified         int  `json:"classified"`
	Skipped            int  `json:"skipped"`
	SkippedNoPosition  int  `json:"skipped_no_position"`
	SkippedOutOfBounds int  `json:"skipped_out_of_bounds"`
	SkippedIndex       int  `json:"skipped_index"`
	UnknownCategory    int  `json:"unknown_category"`
	TileIndexed        bool `json:"tile_indexed"`
}

// VoxelizeResponse - результат вокселизации
type VoxelizeResponse struct {
	Dataset    string                 `json:"dataset,omitempty"`
	Bounds     domain.Bounds          `json:"bounds"`
	Grid       domain.Grid            `json:"grid"`
	Statistics domain.VoxelStatistics `json:"statistics"`
	Estimation *voxel.Estimation      `json:"estimation,omitempty"`
	Report     ProcessingReport       `json:"report"`
	Cells      []voxel.Cell           `json:"cells"`
	Truncated  bool                   `json:"truncated"`
	ComputedAt time.Time              `json:"computed_at"`
	Cached     bool                   `json:"cached"`
}

// NewVoxelizeResponse собирает ответ из результата движка
func NewVoxelizeResponse(dataset string, res *voxel.Result) *VoxelizeResponse {
	cr := res.ClassifyReport
	return &VoxelizeResponse{
		Dataset:    dataset,
		Bounds:     res.Bounds,
		Grid:       res.Grid,
		Statistics: res.Statistics,
		Estimation: res.Estimation,
		Report: ProcessingReport{
			Processed:          cr.Processed,
			Classified:         cr.Classified,
			Skipped:            cr.Skipped(),
			SkippedNoPosition:  cr.SkippedNoPosition,
			SkippedOutOfBounds: cr.SkippedOutOfBounds,
			SkippedIndex:       cr.SkippedIndex,
			UnknownCategory:    cr.UnknownCategory,
			TileIndexed:        cr.TileIndexed,
		},
		Cells:      res.Cells,
		Truncated:  res.Truncated,
		ComputedAt: time.Now().UTC(),
	}
}

// EstimateResponse - результат оценки размера ячейки
type EstimateResponse struct {
	Bounds     domain.Bounds    `json:"bounds"`
	Records    int              `json:"records"`
	Skipped    int              `json:"skipped"`
	Estimation voxel.Estimation `json:"estimation"`
	Grid       domain.Grid      `json:"grid"`
}

// DatasetsResponse - список наборов данных
type DatasetsResponse struct {
	Datasets []*domain.Dataset `json:"datasets"`
	Total    int               `json:"total"`
}

// Job statuses
const (
	JobStatusQueued = "queued"
	JobStatusDone   = "done"
	JobStatusFailed = "failed"
)

// JobSubmitResponse - ответ на постановку задачи
type JobSubmitResponse struct {
	JobID  uuid.UUID `json:"job_id"`
	Status string    `json:"status"`
}

// JobResult - состояние и результат задачи
type JobResult struct {
	JobID       uuid.UUID         `json:"job_id"`
	Dataset     string            `json:"dataset"`
	Status      string            `json:"status"`
	Error       string            `json:"error,omitempty"`
	Result      *VoxelizeResponse `json:"result,omitempty"`
	SubmittedAt time.Time         `json:"submitted_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}
