package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/akimenko/graphflow/internal/chain"
	"github.com/akimenko/graphflow/internal/domain"
	"github.com/akimenko/graphflow/internal/repo"
)

// Launcher — запуск цепочки на исполнение.
//
// Сервер реализует его очередью исполнителя: Launch ставит запуск
// в очередь и возвращается, не дожидаясь выполнения.
type Launcher interface {
	Launch(ctx context.Context, c *domain.Chain, run *domain.ChainRun) error
}

// Scheduler — планировщик, обрабатывающий due цепочки.
type Scheduler struct {
	chainRepo *repo.ChainRepo
	runRepo   *repo.RunRepo
	launcher  Launcher
	logger    *slog.Logger
	batchSize int
}

// Config — конфигурация Scheduler.
type Config struct {
	ChainRepo *repo.ChainRepo
	RunRepo   *repo.RunRepo
	Launcher  Launcher
	Logger    *slog.Logger
	BatchSize int // количество цепочек за один тик (default: 100)
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		chainRepo: cfg.ChainRepo,
		runRepo:   cfg.RunRepo,
		launcher:  cfg.Launcher,
		logger:    logger,
		batchSize: batchSize,
	}
}

// Tick выполняет один тик планировщика.
//
// 1. Находит due цепочки (enabled=true, next_due_at <= now)
// 2. Для каждой создаёт запуск (идемпотентно по слоту расписания)
// 3. Обновляет next_due_at
// 4. Передаёт запуск исполнителю
//
// Ошибки одной цепочки не блокируют обработку остальных.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := time.Now()

	chains, err := s.chainRepo.ListDue(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list due chains: %w", err)
	}
	if len(chains) == 0 {
		return nil
	}

	s.logger.Debug("found due chains", "count", len(chains))

	var processed, launched int
	for i := range chains {
		c := &chains[i]

		ok, err := s.processChain(ctx, c, now)
		if err != nil {
			s.logger.Error("failed to process chain",
				"chain_id", c.ID,
				"chain_name", c.Name,
				"error", err,
			)
			continue
		}

		processed++
		if ok {
			launched++
		}
	}

	s.logger.Info("scheduler tick completed",
		"due", len(chains),
		"processed", processed,
		"runs_launched", launched,
	)

	return nil
}

// processChain обрабатывает одну due цепочку.
// Возвращает true, если запуск был создан (не был дубликатом).
func (s *Scheduler) processChain(ctx context.Context, c *domain.Chain, now time.Time) (bool, error) {
	if c.NextDueAt == nil {
		return false, fmt.Errorf("chain has no next_due_at")
	}

	// Idempotency key "{chain_id}_{next_due_unix}": один слот
	// расписания порождает не больше одного запуска.
	idempKey := fmt.Sprintf("%s_%d", c.ID, c.NextDueAt.Unix())

	run := &domain.ChainRun{
		ID:             uuid.New(),
		ChainID:        c.ID,
		ExecutionID:    chain.NewExecutionID(),
		Status:         domain.RunStatusPending,
		IdempotencyKey: idempKey,
		CreatedAt:      now,
	}

	created := true
	if err := s.runRepo.Create(ctx, run); err != nil {
		if !errors.Is(err, repo.ErrAlreadyExists) {
			return false, fmt.Errorf("create run: %w", err)
		}
		s.logger.Debug("run already exists (idempotency)",
			"chain_id", c.ID,
			"idempotency_key", idempKey,
		)
		created = false
	}

	// Вычисляем следующее время расписания
	nextDue, err := CalculateNextDue(c, now)
	if err != nil {
		// Выражение испортили после создания — next_due_at не трогаем,
		// цепочку поправит ручное обновление
		s.logger.Error("failed to calculate next due",
			"chain_id", c.ID,
			"error", err,
		)
		return created, nil
	}

	if err := s.chainRepo.RecordRun(ctx, c.ID, run.ID, nextDue); err != nil {
		return created, fmt.Errorf("record chain run: %w", err)
	}

	if created {
		s.logger.Info("launching scheduled chain",
			"chain_id", c.ID,
			"chain_name", c.Name,
			"run_id", run.ID,
			"next_due", nextDue,
		)
		if err := s.launcher.Launch(ctx, c, run); err != nil {
			// Запуск уже в БД со статусом PENDING; его можно
			// перезапустить вручную через API
			s.logger.Warn("failed to launch scheduled run",
				"run_id", run.ID,
				"error", err,
			)
		}
	}

	return created, nil
}
