package worker

import (
	"context"
)

// Worker - потребитель Redis Stream, управляемый WorkerManager.
// Start блокируется до остановки; Stop можно вызывать повторно.
type Worker interface {
	Start(ctx context.Context) error
	Stop() error
	Name() string
}

// Stats - счетчики сообщений воркера
type Stats struct {
	Processed uint64 `json:"processed"`
	Failed    uint64 `json:"failed"`
	Skipped   uint64 `json:"skipped"`
}

// StatsReporter реализуют воркеры, которые ведут Stats (BaseWorker)
type StatsReporter interface {
	Stats() Stats
}
