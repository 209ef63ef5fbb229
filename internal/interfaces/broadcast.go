package interfaces

import (
	"context"

	"github.com/iwtcode/linacService/internal/domain/models"
)

// KafkaService определяет контракт для отправки данных во внешние системы
type KafkaService interface {
	Produce(ctx context.Context, key, value []byte) error
	Close() error
}

// Broadcaster - широковещательная шина уведомлений об изменении общего состояния между дисплеями.
type Broadcaster interface {
	// Publish отправляет уведомление всем слушателям, включая другие процессы
	Publish(ctx context.Context, notice models.StateNotice) error
	// Listen блокируется и вызывает handler для каждого уведомления до отмены ctx
	Listen(ctx context.Context, handler func(models.StateNotice)) error
	Close() error
}

// StudySink принимает события жизненного цикла сценария для сбора данных исследования.
type StudySink interface {
	Publish(ctx context.Context, eventType string, scenarioID string, payload interface{}) error
	Close() error
}
