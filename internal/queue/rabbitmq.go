package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/abkawan/cpf-ledger/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const (
	// queue for ledger events
	EventQueue = "ledger_events"
)

// handles RabbitMQ operations
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	logger  *zap.Logger

	// serializes publishes from concurrent handlers
	mu sync.Mutex
}

func NewRabbitMQ(uri string, logger *zap.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	q, err := ch.QueueDeclare(
		EventQueue, // name
		true,       // durable
		false,      // delete when unused
		false,      // exclusive
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare a queue: %w", err)
	}

	return &RabbitMQ{
		conn:    conn,
		channel: ch,
		queue:   q,
		logger:  logger,
	}, nil
}

func (r *RabbitMQ) Close() error {
	if err := r.channel.Close(); err != nil {
		return err
	}
	return r.conn.Close()
}

// publishes a ledger event to the queue
func (r *RabbitMQ) PublishEvent(ctx context.Context, event *models.LedgerEvent) error {
	body, err := EncodeEvent(event)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.channel.Publish(
		"",         // exchange
		EventQueue, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    event.ID,
			Type:         string(event.Type),
			Timestamp:    event.OccurredAt,
			Body:         body,
			DeliveryMode: amqp.Persistent, // make message persistent
		})
	if err != nil {
		return fmt.Errorf("failed to publish a message: %w", err)
	}

	return nil
}

// consumes ledger events from the queue
func (r *RabbitMQ) ConsumeEvents(ctx context.Context) (<-chan models.LedgerEvent, error) {
	msgs, err := r.channel.Consume(
		EventQueue, // queue
		"",         // consumer
		false,      // auto-ack
		false,      // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register a consumer: %w", err)
	}

	events := make(chan models.LedgerEvent)

	go func() {
		defer close(events)

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				event, err := DecodeEvent(msg.Body)
				if err != nil {
					r.logger.Error("dropping undecodable ledger event",
						zap.String("message_id", msg.MessageId),
						zap.Error(err),
					)
					msg.Reject(false) // Don't requeue
					continue
				}

				select {
				case events <- *event:
					msg.Ack(false)
				case <-ctx.Done():
					msg.Nack(false, true)
					return
				}
			}
		}
	}()

	return events, nil
}

// EncodeEvent is the wire format of a ledger event.
func EncodeEvent(event *models.LedgerEvent) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ledger event: %w", err)
	}
	return body, nil
}

func DecodeEvent(body []byte) (*models.LedgerEvent, error) {
	var event models.LedgerEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger event: %w", err)
	}
	if event.ID == "" || event.Type == "" {
		return nil, fmt.Errorf("ledger event is missing id or type")
	}
	return &event, nil
}
