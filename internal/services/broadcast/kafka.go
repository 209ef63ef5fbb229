package broadcast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/iwtcode/linacService/internal/config"
	"github.com/iwtcode/linacService/internal/domain/models"
	"github.com/iwtcode/linacService/internal/interfaces"
	"github.com/iwtcode/linacService/internal/middleware/logging"

	"github.com/segmentio/kafka-go"
)

// KafkaBroadcaster рассылает уведомления через топик KAFKA_STATE_TOPIC.
// Каждый процесс читает топик своей consumer group, поэтому получает все уведомления.
type KafkaBroadcaster struct {
	brokers []string
	topic   string
	groupID string
	writer  *kafka.Writer
	logger  *logging.Logger

	mu      sync.Mutex
	readers []*kafka.Reader
	closed  bool
}

var _ interfaces.Broadcaster = (*KafkaBroadcaster)(nil)

func NewKafkaBroadcaster(cfg *config.AppConfig, logger *logging.Logger) (*KafkaBroadcaster, error) {
	if cfg.Kafka.Broker == "" || cfg.Kafka.StateTopic == "" {
		return nil, fmt.Errorf("не заданы брокер или топик Kafka для уведомлений")
	}
	return &KafkaBroadcaster{
		brokers: []string{cfg.Kafka.Broker},
		topic:   cfg.Kafka.StateTopic,
		groupID: "linac-display-" + uuid.NewString(),
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Kafka.Broker),
			Topic:                  cfg.Kafka.StateTopic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		logger: logger.WithPrefix("KAFKA-BUS"),
	}, nil
}

func (b *KafkaBroadcaster) Publish(ctx context.Context, notice models.StateNotice) error {
	body, err := encodeNotice(notice)
	if err != nil {
		return err
	}
	return b.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(notice.ScenarioID),
		Value: body,
	})
}

func (b *KafkaBroadcaster) Listen(ctx context.Context, handler func(models.StateNotice)) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.brokers,
		Topic:       b.topic,
		GroupID:     b.groupID,
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    1 << 20,
	})
	b.readers = append(b.readers, reader)
	b.mu.Unlock()

	b.logger.Info("Listening for state notices", "topic", b.topic, "group", b.groupID)
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return ctx.Err()
			}
			return fmt.Errorf("ошибка чтения уведомлений из Kafka: %w", err)
		}
		notice, err := decodeNotice(msg.Value)
		if err != nil {
			b.logger.Warn("Skipping state notice", "offset", msg.Offset, "error", err)
			continue
		}
		handler(notice)
	}
}

func (b *KafkaBroadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	var firstErr error
	for _, r := range b.readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := b.writer.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
