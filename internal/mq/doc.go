// Package mq ретранслирует события движка во внешний мир через RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением (reconnect, graceful shutdown)
//   - topology.go   — объявление exchange, очередей, bindings
//   - publisher.go  — публикация событий в exchange
//   - consumer.go   — подписка на поток событий (используется CLI)
//   - relay.go      — мост между внутренней шиной событий и RabbitMQ
//
// Топология: один topic-exchange graphflow.events; routing key сообщения
// совпадает с типом события шины ("execution.started", "node.completed"
// и т.д.), так что внешние потребители подписываются паттернами вида
// "execution.#".
package mq
