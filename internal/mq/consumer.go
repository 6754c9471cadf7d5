package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StreamHandler — обработчик события из потока.
type StreamHandler func(env Envelope)

// Stream читает поток событий из exchange через эксклюзивную очередь.
//
// Используется CLI для живого просмотра событий исполнения: очередь
// создаётся на время подписки и удаляется при отключении.
type Stream struct {
	conn   *Connection
	logger *slog.Logger
}

// NewStream создаёт новый Stream.
func NewStream(conn *Connection, logger *slog.Logger) *Stream {
	return &Stream{conn: conn, logger: logger}
}

// Run подписывается на события по топик-паттерну и вызывает handler
// для каждого. Блокируется до отмены ctx или разрыва соединения.
func (s *Stream) Run(ctx context.Context, pattern string, handler StreamHandler) error {
	var deliveries <-chan amqp.Delivery

	err := s.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		q, err := ch.QueueDeclare(
			"",    // имя генерирует брокер
			false, // durable
			true,  // delete when unused
			true,  // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("declare stream queue: %w", err)
		}

		if err := ch.QueueBind(q.Name, pattern, string(ExchangeEvents), false, nil); err != nil {
			return fmt.Errorf("bind stream queue: %w", err)
		}

		deliveries, err = ch.Consume(
			q.Name,
			"",    // consumer tag
			true,  // auto-ack: поток наблюдения, потеря сообщений допустима
			true,  // exclusive
			false, // no-local
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("consume stream queue: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("event stream started", "pattern", pattern)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("stream channel closed")
			}

			var env Envelope
			if err := json.Unmarshal(d.Body, &env); err != nil {
				s.logger.Warn("failed to decode event", "error", err)
				continue
			}

			handler(env)
		}
	}
}
