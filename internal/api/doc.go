// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go           — Handler с DI (репозитории, executor, tracker, logger)
//   - routes.go            — регистрация маршрутов
//   - middleware.go        — middleware (logging, recovery, CORS)
//   - response.go          — унифицированные JSON-ответы и обработка ошибок
//   - dto.go               — Data Transfer Objects (request/response)
//   - workflow_handler.go  — обработчики для /workflows
//   - chain_handler.go     — обработчики для /chains
//   - run_handler.go       — обработчики для /runs
//   - execution_handler.go — состояние и метрики текущего исполнения
//   - ws.go                — WebSocket-трансляция событий
//
// API предоставляет REST endpoints для управления workflows, цепочками
// и запусками, плюс живой поток событий исполнения по WebSocket.
package api
