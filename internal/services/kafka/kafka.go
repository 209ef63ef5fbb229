package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iwtcode/linacService/internal/config"
	"github.com/iwtcode/linacService/internal/interfaces"

	"github.com/segmentio/kafka-go"
)

// Типы событий исследования
const (
	EventScenarioStart = "scenario_start"
	EventScenarioEnd   = "scenario_end"
	EventRecord        = "record"
)

// StudyEvent - сообщение в топике событий исследования
type StudyEvent struct {
	Type       string          `json:"type"`
	ScenarioID string          `json:"scenario_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	SentAt     time.Time       `json:"sent_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducer struct {
	writer messageWriter
}

// NewKafkaProducer создает продюсер событий исследования в топик KAFKA_STUDY_TOPIC
func NewKafkaProducer(cfg *config.AppConfig) (*KafkaProducer, error) {
	if cfg.Kafka.Broker == "" {
		return nil, fmt.Errorf("не задан адрес брокера Kafka")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Kafka.Broker),
		Topic:                  cfg.Kafka.StudyTopic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaProducer{writer: writer}, nil
}

var (
	_ interfaces.KafkaService = (*KafkaProducer)(nil)
	_ interfaces.StudySink    = (*KafkaProducer)(nil)
)

// Produce отправляет сообщение в Kafka
func (p *KafkaProducer) Produce(ctx context.Context, key, value []byte) error {
	return p.writer.WriteMessages(ctx,
		kafka.Message{
			Key:   key,
			Value: value,
		},
	)
}

// Publish сериализует событие сценария; ключ сообщения - id сценария, чтобы события шли по порядку
func (p *KafkaProducer) Publish(ctx context.Context, eventType, scenarioID string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("не удалось сериализовать событие %s: %w", eventType, err)
	}
	value, err := json.Marshal(StudyEvent{
		Type:       eventType,
		ScenarioID: scenarioID,
		Payload:    raw,
		SentAt:     time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return p.Produce(ctx, []byte(scenarioID), value)
}

// Close закрывает соединение с Kafka
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
