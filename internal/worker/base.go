package worker

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// BaseWorker - общая часть воркеров, читающих один стрим через consumer group
type BaseWorker struct {
	name          string
	stream        string
	consumerGroup string
	consumer      string
	logger        *zap.Logger

	stopChan chan struct{}
	stopOnce sync.Once

	processed atomic.Uint64
	failed    atomic.Uint64
	skipped   atomic.Uint64
}

// NewBaseWorker создает BaseWorker. Имя consumer'а уникально для процесса
// (hostname + PID), чтобы несколько реплик делили одну группу.
func NewBaseWorker(name, stream, consumerGroup string, logger *zap.Logger) *BaseWorker {
	hostname, _ := os.Hostname()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BaseWorker{
		name:          name,
		stream:        stream,
		consumerGroup: consumerGroup,
		consumer:      fmt.Sprintf("%s-%d", hostname, os.Getpid()),
		logger:        logger.With(zap.String("worker", name)),
		stopChan:      make(chan struct{}),
	}
}

func (w *BaseWorker) Name() string { return w.name }

// Stream - имя входящего стрима
func (w *BaseWorker) Stream() string { return w.stream }

func (w *BaseWorker) ConsumerGroup() string { return w.consumerGroup }

func (w *BaseWorker) Consumer() string { return w.consumer }

func (w *BaseWorker) Logger() *zap.Logger { return w.logger }

// Stop сигнализирует циклу чтения о завершении
func (w *BaseWorker) Stop() error {
	w.stopOnce.Do(func() {
		w.logger.Info("Stopping worker")
		close(w.stopChan)
	})
	return nil
}

// StopChan закрывается после Stop
func (w *BaseWorker) StopChan() <-chan struct{} {
	return w.stopChan
}

// MarkProcessed, MarkFailed и MarkSkipped обновляют счетчики сообщений
func (w *BaseWorker) MarkProcessed() { w.processed.Add(1) }

func (w *BaseWorker) MarkFailed() { w.failed.Add(1) }

func (w *BaseWorker) MarkSkipped() { w.skipped.Add(1) }

// Stats возвращает снимок счетчиков
func (w *BaseWorker) Stats() Stats {
	return Stats{
		Processed: w.processed.Load(),
		Failed:    w.failed.Load(),
		Skipped:   w.skipped.Load(),
	}
}
