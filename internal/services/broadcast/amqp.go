package broadcast

import (
	"context"
	"fmt"
	"sync"

	"github.com/iwtcode/linacService/internal/config"
	"github.com/iwtcode/linacService/internal/domain/models"
	"github.com/iwtcode/linacService/internal/interfaces"
	"github.com/iwtcode/linacService/internal/middleware/logging"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPBroadcaster рассылает уведомления через fanout exchange RabbitMQ.
// Каждый Listen объявляет свою эксклюзивную очередь, привязанную к exchange.
type AMQPBroadcaster struct {
	conn     *amqp.Connection
	exchange string
	logger   *logging.Logger

	mu     sync.Mutex
	pubCh  *amqp.Channel
	subChs []*amqp.Channel
	closed bool
}

var _ interfaces.Broadcaster = (*AMQPBroadcaster)(nil)

func NewAMQPBroadcaster(cfg *config.AppConfig, logger *logging.Logger) (*AMQPBroadcaster, error) {
	conn, err := amqp.Dial(cfg.AMQP.URL)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("не удалось открыть канал RabbitMQ: %w", err)
	}
	if err := declareExchange(ch, cfg.AMQP.Exchange); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &AMQPBroadcaster{
		conn:     conn,
		exchange: cfg.AMQP.Exchange,
		logger:   logger.WithPrefix("AMQP-BUS"),
		pubCh:    ch,
	}, nil
}

func declareExchange(ch *amqp.Channel, name string) error {
	err := ch.ExchangeDeclare(
		name,
		amqp.ExchangeFanout, // type
		false,               // durable
		false,               // auto-delete
		false,               // internal
		false,               // no-wait
		nil,                 // arguments
	)
	if err != nil {
		return fmt.Errorf("не удалось объявить exchange '%s': %w", name, err)
	}
	return nil
}

func (b *AMQPBroadcaster) Publish(ctx context.Context, notice models.StateNotice) error {
	body, err := encodeNotice(notice)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	return b.pubCh.PublishWithContext(ctx,
		b.exchange,
		"",    // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		})
}

func (b *AMQPBroadcaster) Listen(ctx context.Context, handler func(models.StateNotice)) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	ch, err := b.conn.Channel()
	if err != nil {
		b.mu.Unlock()
		return fmt.Errorf("не удалось открыть канал RabbitMQ: %w", err)
	}
	b.subChs = append(b.subChs, ch)
	b.mu.Unlock()

	q, err := ch.QueueDeclare(
		"",    // name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("не удалось объявить очередь уведомлений: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", b.exchange, false, nil); err != nil {
		return fmt.Errorf("не удалось привязать очередь к '%s': %w", b.exchange, err)
	}
	deliveries, err := ch.Consume(
		q.Name, // queue
		"",     // consumer
		true,   // autoAck
		true,   // exclusive
		false,  // noLocal
		false,  // noWait
		nil,    // args
	)
	if err != nil {
		return fmt.Errorf("не удалось начать чтение очереди: %w", err)
	}

	b.logger.Info("Listening for state notices", "exchange", b.exchange, "queue", q.Name)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				// канал закрыт сервером или через Close
				return nil
			}
			notice, err := decodeNotice(d.Body)
			if err != nil {
				b.logger.Warn("Skipping state notice", "error", err)
				continue
			}
			handler(notice)
		}
	}
}

func (b *AMQPBroadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, ch := range b.subChs {
		_ = ch.Close()
	}
	_ = b.pubCh.Close()
	return b.conn.Close()
}
