package repository

import (
	"context"

	"github.com/voxel-density-service/internal/domain"
)

// StreamRepository - очередь задач поверх Redis Streams.
// Сообщение остается в pending, пока не вызван AckMessage.
type StreamRepository interface {
	// ConsumeStream отдает сообщения группы, начиная с неподтвержденных.
	// Канал закрывается при отмене ctx.
	ConsumeStream(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error)

	AckMessage(ctx context.Context, stream, group, messageID string) error

	// CreateConsumerGroup идемпотентна (BUSYGROUP не ошибка)
	CreateConsumerGroup(ctx context.Context, stream, group string) error

	// PublishToStream кладет data как JSON в поле "data"
	PublishToStream(ctx context.Context, stream string, data interface{}) error
}
