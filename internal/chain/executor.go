package chain

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akimenko/graphflow/internal/comfy"
	"github.com/akimenko/graphflow/internal/domain"
	"github.com/akimenko/graphflow/internal/engine"
	"github.com/akimenko/graphflow/internal/telemetry"
	"github.com/akimenko/graphflow/internal/tracker"
)

// defaultSettleDelay — пауза между узлами цепочки: даёт бэкенду
// дописать большие выходные файлы перед их копированием в кэш.
const defaultSettleDelay = 10 * time.Second

// Backend — операции бэкенда, нужные исполнителю.
type Backend interface {
	SubmitPrompt(ctx context.Context, prompt domain.PromptGraph) (string, error)
	Interrupt(ctx context.Context) error
}

// Watcher — наблюдение за исполнением prompt.
type Watcher interface {
	WaitOutputs(ctx context.Context, promptID string, outputIDs []string, hooks comfy.Hooks) ([]comfy.Output, error)
}

// RunStore — персистентность запусков цепочек.
type RunStore interface {
	Update(ctx context.Context, run *domain.ChainRun) error
}

// Config — конфигурация исполнителя.
type Config struct {
	Backend  Backend
	Watcher  Watcher
	Store    RunStore // может быть nil
	Tracker  *tracker.Tracker
	Registry *domain.TypeRegistry

	// OutputDir — выходной каталог бэкенда для кэширования файлов.
	OutputDir string

	// SettleDelay — пауза между узлами (default: 10s).
	SettleDelay time.Duration

	// ExecutionTimeout — таймаут ожидания одного prompt (default: 10m).
	ExecutionTimeout time.Duration

	Logger *slog.Logger
}

// Executor выполняет цепочки workflows последовательно.
//
// Одновременно выполняется не больше одной цепочки: бэкенд
// обрабатывает prompt'ы по одному, параллельный запуск только
// перепутал бы события WebSocket.
type Executor struct {
	backend  Backend
	watcher  Watcher
	store    RunStore
	tracker  *tracker.Tracker
	registry *domain.TypeRegistry

	outputDir   string
	settleDelay time.Duration
	execTimeout time.Duration

	running     atomic.Bool
	interrupted atomic.Bool

	mu       sync.Mutex
	progress *Progress

	logger *slog.Logger
}

// NewExecutor создаёт исполнитель цепочек.
func NewExecutor(cfg Config) *Executor {
	settle := cfg.SettleDelay
	if settle <= 0 {
		settle = defaultSettleDelay
	}
	timeout := cfg.ExecutionTimeout
	if timeout <= 0 {
		timeout = comfy.DefaultExecutionTimeout
	}
	registry := cfg.Registry
	if registry == nil {
		registry = domain.NewTypeRegistry()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{
		backend:     cfg.Backend,
		watcher:     cfg.Watcher,
		store:       cfg.Store,
		tracker:     cfg.Tracker,
		registry:    registry,
		outputDir:   cfg.OutputDir,
		settleDelay: settle,
		execTimeout: timeout,
		logger:      logger,
	}
}

// NewExecutionID генерирует идентификатор исполнения цепочки.
func NewExecutionID() string {
	return fmt.Sprintf("exec-%d", time.Now().UnixMilli())
}

// Run выполняет цепочку и записывает итог в run.
//
// Узлы выполняются строго последовательно; первая ошибка останавливает
// цепочку. Возвращает ErrExecutorBusy, если другая цепочка ещё идёт.
func (e *Executor) Run(ctx context.Context, c *domain.Chain, run *domain.ChainRun) error {
	if len(c.Nodes) == 0 {
		run.MarkFailed("no workflow nodes in chain", nil)
		e.persist(ctx, run)
		return ErrEmptyChain
	}

	if !e.running.CompareAndSwap(false, true) {
		return ErrExecutorBusy
	}
	defer e.running.Store(false)
	e.interrupted.Store(false)

	logger := telemetry.WithChainID(e.logger, c.ID.String())
	logger.Info("chain execution started",
		"chain", c.Name, "execution_id", run.ExecutionID, "nodes", len(c.Nodes))

	// Снимок прогресса остаётся доступным и после завершения,
	// его перетрёт следующий запуск.
	e.setProgress(newProgress(c, run.ExecutionID))

	run.MarkRunning()
	e.persist(ctx, run)

	cache := NewOutputCache(e.outputDir, logger)
	results := make([]domain.NodeResult, 0, len(c.Nodes))

	for i := range c.Nodes {
		node := &c.Nodes[i]

		if e.interrupted.Load() {
			logger.Info("chain interrupted", "at_node", i)
			e.finishProgress(false)
			run.MarkCancelled()
			e.persist(ctx, run)
			telemetry.ChainRunsTotal.WithLabelValues("cancelled").Inc()
			return ErrInterrupted
		}

		e.markNode(i, NodeRunning)
		result := e.runNode(ctx, c, node, i, run.ExecutionID, cache, logger)
		results = append(results, result)

		if !result.Success {
			e.markNode(i, NodeFailed)
			e.finishProgress(false)
			run.MarkFailed(fmt.Sprintf("workflow node %d failed: %s", i+1, result.Error), results)
			e.persist(ctx, run)
			telemetry.ChainRunsTotal.WithLabelValues("failed").Inc()
			return fmt.Errorf("%w: node %d: %s", ErrNodeFailed, i+1, result.Error)
		}

		e.markNode(i, NodeCompleted)

		// Пауза после каждого узла, кроме последнего
		if i < len(c.Nodes)-1 {
			e.markNode(i+1, NodeWaiting)
			if err := e.settle(ctx); err != nil {
				e.finishProgress(false)
				run.MarkCancelled()
				e.persist(ctx, run)
				telemetry.ChainRunsTotal.WithLabelValues("cancelled").Inc()
				return err
			}
		}
	}

	e.finishProgress(true)
	run.MarkSucceeded(results)
	e.persist(ctx, run)
	telemetry.ChainRunsTotal.WithLabelValues("succeeded").Inc()

	logger.Info("chain execution completed", "execution_id", run.ExecutionID)
	return nil
}

// runNode выполняет один узел цепочки.
func (e *Executor) runNode(
	ctx context.Context,
	c *domain.Chain,
	node *domain.ChainNode,
	index int,
	executionID string,
	cache *OutputCache,
	logger *slog.Logger,
) domain.NodeResult {
	result := domain.NodeResult{NodeID: node.ID, NodeName: node.Name}

	if len(node.Prompt) == 0 {
		result.Error = "no API workflow format found"
		return result
	}

	// Подстановки входов, затем уплощение переменных
	prompt := ResolveBindings(node, c.Nodes, cache, logger)
	prompt, err := engine.ResolveVariables(prompt, e.registry)
	if err != nil {
		result.Error = fmt.Sprintf("variable resolution: %v", err)
		return result
	}

	outputIDs := comfy.DetectOutputNodes(prompt)
	if len(outputIDs) == 0 {
		logger.Warn("no output nodes detected", "node", node.ID)
	}

	promptID, err := e.backend.SubmitPrompt(ctx, prompt)
	if err != nil {
		result.Error = fmt.Sprintf("submit: %v", err)
		return result
	}
	result.PromptID = promptID
	logger.Info("prompt submitted", "node", node.ID, "prompt_id", promptID)

	if e.tracker != nil {
		e.tracker.Start(promptRefs(prompt))
	}

	telemetry.ChainNodesInFlight.Inc()
	defer telemetry.ChainNodesInFlight.Dec()

	nodeTypes := make(map[string]string, len(prompt))
	for id, n := range prompt {
		nodeTypes[id] = n.ClassType
	}

	hooks := comfy.Hooks{
		NodeStarted: func(id string) {
			if e.tracker != nil {
				e.tracker.StartNode(id)
			}
		},
		NodeCompleted: func(id string, _ comfy.NodeOutput) {
			if e.tracker != nil {
				e.tracker.CompleteNode(id, nil)
				if info, ok := e.tracker.NodeInfo(id); ok {
					telemetry.NodeDuration.WithLabelValues(nodeTypes[id]).
						Observe(info.Duration.Seconds())
				}
			}
		},
	}

	waitCtx, cancel := context.WithTimeout(ctx, e.execTimeout)
	defer cancel()

	outputs, err := e.watcher.WaitOutputs(waitCtx, promptID, outputIDs, hooks)
	if err != nil {
		if e.tracker != nil {
			e.tracker.Fail(err.Error())
		}
		result.Error = err.Error()
		return result
	}

	if e.tracker != nil {
		e.tracker.Complete()
	}

	result.Outputs = cache.Store(executionID, node.ID, outputs)
	result.Success = true
	return result
}

// Interrupt запрашивает остановку цепочки и прерывает текущий prompt
// на бэкенде. Остановка кооперативная: цепочка завершится перед
// следующим узлом.
func (e *Executor) Interrupt(ctx context.Context) error {
	if !e.running.Load() {
		return nil
	}
	e.interrupted.Store(true)
	return e.backend.Interrupt(ctx)
}

// Running возвращает true, если цепочка выполняется.
func (e *Executor) Running() bool {
	return e.running.Load()
}

// settle ждёт паузу между узлами, уважая контекст и прерывание.
func (e *Executor) settle(ctx context.Context) error {
	timer := time.NewTimer(e.settleDelay)
	defer timer.Stop()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case <-ticker.C:
			if e.interrupted.Load() {
				return ErrInterrupted
			}
		}
	}
}

// persist сохраняет запуск, если хранилище подключено.
func (e *Executor) persist(ctx context.Context, run *domain.ChainRun) {
	if e.store == nil {
		return
	}
	if err := e.store.Update(ctx, run); err != nil {
		e.logger.Error("run persistence failed", "run_id", run.ID, "error", err)
	}
}

// promptRefs строит детерминированный снимок порядка узлов prompt.
func promptRefs(p domain.PromptGraph) []tracker.NodeRef {
	ids := make([]string, 0, len(p))
	for id := range p {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return ids[i] < ids[j]
	})

	refs := make([]tracker.NodeRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, tracker.NodeRef{ID: id, Type: p[id].ClassType})
	}
	return refs
}
