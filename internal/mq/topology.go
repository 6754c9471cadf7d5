package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

const (
	// ExchangeEvents — topic-exchange со всеми событиями движка.
	// Routing key сообщения = тип события шины.
	ExchangeEvents Exchange = "graphflow.events"
)

const (
	// QueueRunsArchive — durable очередь завершённых запусков.
	// Потребляется внешними системами (архивация, нотификации).
	QueueRunsArchive Queue = "graphflow.runs.archive"
)

// SetupTopology объявляет exchange и постоянные очереди.
// Идемпотентна: повторное объявление с теми же параметрами безопасно.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.ExchangeDeclare(
			string(ExchangeEvents),
			"topic",
			true,  // durable
			false, // auto-deleted
			false, // internal
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ExchangeEvents, err)
		}

		_, err = ch.QueueDeclare(
			string(QueueRunsArchive),
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", QueueRunsArchive, err)
		}

		// Архив интересуют только итоги исполнения
		for _, pattern := range []string{"execution.completed", "execution.cancelled"} {
			if err := ch.QueueBind(
				string(QueueRunsArchive),
				pattern,
				string(ExchangeEvents),
				false,
				nil,
			); err != nil {
				return fmt.Errorf("bind queue %s: %w", QueueRunsArchive, err)
			}
		}

		return nil
	})
}
