package mq

import (
	"context"
	"log/slog"

	"github.com/akimenko/graphflow/internal/events"
)

// relayedTypes — события, уходящие во внешний exchange.
// Внутренние события редактирования графа наружу не ретранслируются.
var relayedTypes = []events.Type{
	events.ExecutionStarted,
	events.ExecutionNodeStarted,
	events.ExecutionNodeCompleted,
	events.ExecutionNodeSkipped,
	events.ExecutionNodeError,
	events.ExecutionProgress,
	events.ExecutionCompleted,
	events.ExecutionCancelled,
	events.ExecutionPaused,
	events.ExecutionResumed,
}

// Relay подписывается на внутреннюю шину событий и публикует
// события исполнения в RabbitMQ.
type Relay struct {
	bus       *events.Bus
	publisher *Publisher
	logger    *slog.Logger

	subID events.SubscriptionID
}

// NewRelay создаёт Relay и подписывает его на шину.
func NewRelay(ctx context.Context, bus *events.Bus, publisher *Publisher, logger *slog.Logger) *Relay {
	r := &Relay{
		bus:       bus,
		publisher: publisher,
		logger:    logger,
	}

	r.subID = bus.SubscribeWith(relayedTypes, func(ev events.Event) {
		// Шина синхронная: публикация не должна блокировать исполнение,
		// поэтому ошибки логируются, а не возвращаются
		if err := r.publisher.PublishEvent(ctx, ev); err != nil {
			r.logger.Warn("failed to relay event",
				"type", ev.Type,
				"error", err,
			)
		}
	}, events.SubscribeOptions{})

	return r
}

// Stop отписывает Relay от шины.
func (r *Relay) Stop() {
	r.bus.Unsubscribe(r.subID)
}
