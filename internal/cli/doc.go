// Package cli реализует инструмент командной строки graphflow.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с graphflow API.
// Команды управления ресурсами работают через HTTP; живой поток
// событий (events tail) читается из RabbitMQ.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для graphflow API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	workflows, err := client.ListWorkflows()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: graphflow workflow list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - workflow: list, create, show, update, delete, push, pull
//   - chain: list, create, show, update, delete, enable, disable, execute, runs, interrupt
//   - run: list, show
//   - exec: status, progress, nodes, metrics
//   - events: tail
//
// Каждая группа создаётся через фабричную функцию (NewWorkflowCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
