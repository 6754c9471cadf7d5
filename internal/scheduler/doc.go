// Package scheduler реализует планировщик цепочек.
//
// Scheduler периодически проверяет включённые цепочки с истекшим
// next_due_at и создаёт для них запуски.
//
// Структура:
//   - scheduler.go — основная логика (Tick, processChain)
//   - cron.go      — парсинг cron-выражений и вычисление следующего времени
//
// Использование:
//
//	sched := scheduler.New(scheduler.Config{
//	    ChainRepo: chainRepo,
//	    RunRepo:   runRepo,
//	    Launcher:  launcher,
//	    Logger:    logger,
//	})
//
//	// Вызывается каждый тик (обычно раз в секунду)
//	if err := sched.Tick(ctx); err != nil {
//	    logger.Error("scheduler tick failed", "error", err)
//	}
//
// Leader Election:
//
// Scheduler не реализует leader election самостоятельно.
// При нескольких экземплярах сервера дубликаты запусков отсекаются
// idempotency-ключом в chain_runs.
package scheduler
