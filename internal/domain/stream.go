package domain

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Stream names
const (
	StreamVoxelJobs = "stream:voxel:jobs"
	StreamVoxelDone = "stream:voxel:done"
)

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}

// VoxelJobEvent - входящее событие на вокселизацию набора данных.
// Options передаются как есть в use case (см. dto.VoxelOptions).
type VoxelJobEvent struct {
	JobID      uuid.UUID       `json:"job_id"`
	Dataset    string          `json:"dataset"`
	Categories []string        `json:"categories,omitempty"`
	BBox       *BoundingBox    `json:"bbox,omitempty"`
	Options    json.RawMessage `json:"options,omitempty"`
}

// VoxelJobDoneEvent - результат задачи вокселизации
type VoxelJobDoneEvent struct {
	JobID      uuid.UUID        `json:"job_id"`
	Dataset    string           `json:"dataset"`
	ResultKey  string           `json:"result_key,omitempty"`
	Statistics *VoxelStatistics `json:"statistics,omitempty"`
	Error      string           `json:"error,omitempty"`
}
