package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/akimenko/graphflow/internal/events"
)

// Envelope — сообщение в exchange событий.
type Envelope struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип события шины.
	Type events.Type `json:"type"`

	// Source — метка источника события (scoped-фасад шины).
	Source string `json:"source,omitempty"`

	// Payload — полезная нагрузка события.
	Payload any `json:"payload,omitempty"`

	// Timestamp — момент излучения события.
	Timestamp time.Time `json:"timestamp"`
}

// Publisher публикует события движка в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// PublishEvent публикует событие шины.
// Routing key = тип события, что позволяет потребителям
// подписываться топик-паттернами ("execution.#", "node.*").
func (p *Publisher) PublishEvent(ctx context.Context, ev events.Event) error {
	env := Envelope{
		ID:        uuid.New().String(),
		Type:      ev.Type,
		Source:    ev.Source,
		Payload:   ev.Payload,
		Timestamp: ev.Timestamp,
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(ExchangeEvents),
			string(ev.Type), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    env.ID,
				Timestamp:    env.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish %s: %w", ev.Type, err)
		}

		p.logger.Debug("published event",
			"type", ev.Type,
			"message_id", env.ID,
		)

		return nil
	})
}
