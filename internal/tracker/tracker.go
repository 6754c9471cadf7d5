package tracker

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/akimenko/graphflow/internal/domain"
	"github.com/akimenko/graphflow/internal/events"
	"github.com/akimenko/graphflow/internal/telemetry"
)

// NodeRef — узел в снимке порядка исполнения.
type NodeRef struct {
	// ID — идентификатор исполнения узла (с учётом вложенности).
	ID string

	// Type — имя типа узла (для метрик по типам).
	Type string
}

// NodeInfo — учётная запись узла в текущем исполнении.
type NodeInfo struct {
	// ID — идентификатор исполнения узла.
	ID string `json:"id"`

	// Type — имя типа узла.
	Type string `json:"type"`

	// State — текущее состояние.
	State NodeState `json:"state"`

	// StartedAt — момент начала выполнения (нулевой до StartNode).
	StartedAt time.Time `json:"started_at,omitzero"`

	// FinishedAt — момент завершения.
	FinishedAt time.Time `json:"finished_at,omitzero"`

	// Duration — длительность выполнения, всегда неотрицательная.
	Duration time.Duration `json:"duration"`

	// Output — результат узла, если бэкенд его прислал.
	Output any `json:"output,omitempty"`

	// Error — текст ошибки для упавших узлов.
	Error string `json:"error,omitempty"`
}

// TypeMetrics — скользящие метрики по типу узла.
//
// Метрики накапливаются между исполнениями: Start их не сбрасывает.
type TypeMetrics struct {
	// Count — количество успешных выполнений.
	Count int `json:"count"`

	// Errors — количество ошибок.
	Errors int `json:"errors"`

	// Total — суммарная длительность успешных выполнений.
	Total time.Duration `json:"total"`

	// Min — минимальная длительность.
	Min time.Duration `json:"min"`

	// Max — максимальная длительность.
	Max time.Duration `json:"max"`
}

// Average возвращает среднюю длительность выполнения типа.
func (m *TypeMetrics) Average() time.Duration {
	if m.Count == 0 {
		return 0
	}
	return m.Total / time.Duration(m.Count)
}

// ErrorEntry — запись журнала ошибок исполнения.
type ErrorEntry struct {
	// NodeID — идентификатор упавшего узла.
	NodeID string `json:"node_id"`

	// Message — текст ошибки.
	Message string `json:"message"`

	// Details — произвольные детали от бэкенда.
	Details any `json:"details,omitempty"`

	// At — момент регистрации.
	At time.Time `json:"at"`
}

// Progress — срез прогресса исполнения.
type Progress struct {
	// Done — количество завершённых и пропущенных узлов.
	Done int `json:"done"`

	// Total — общее количество узлов в снимке порядка.
	Total int `json:"total"`

	// Percent — доля завершённого, 0–100.
	Percent float64 `json:"percent"`

	// Elapsed — время с начала исполнения.
	Elapsed time.Duration `json:"elapsed"`

	// EstimatedRemaining — линейная экстраполяция оставшегося
	// времени по средней стоимости уже завершённых узлов.
	// Оценка, не гарантия.
	EstimatedRemaining time.Duration `json:"estimated_remaining"`
}

// Tracker — машина состояний одного исполнения графа.
//
// Tracker только ведёт учёт: он не запускает узлы и не прерывает
// внешние вычисления. Отмена — кооперативная запись в журнале,
// решение об остановке остаётся за вызывающим кодом.
//
// Tracker безопасен для конкурентного использования.
type Tracker struct {
	mu sync.Mutex

	state      State
	order      []string
	nodes      map[string]*NodeInfo
	errors     []ErrorEntry
	startedAt  time.Time
	finishedAt time.Time

	// Скользящие метрики и счётчики прогонов живут дольше одного
	// исполнения.
	metrics       map[string]*TypeMetrics
	runsSucceeded int
	runsFailed    int

	bus    *events.Bus
	logger *slog.Logger
}

// New создаёт трекер. Шина может быть nil — тогда события не излучаются.
func New(bus *events.Bus, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		state:   StateIdle,
		nodes:   make(map[string]*NodeInfo),
		metrics: make(map[string]*TypeMetrics),
		bus:     bus,
		logger:  logger,
	}
}

// State возвращает общее состояние исполнения.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Start начинает новое исполнение: сбрасывает состояние предыдущего
// прогона, снимает порядок исполнения и инициализирует все узлы
// в Pending. Скользящие метрики по типам сохраняются.
func (t *Tracker) Start(nodes []NodeRef) {
	t.mu.Lock()

	t.state = StatePreparing
	t.order = make([]string, 0, len(nodes))
	t.nodes = make(map[string]*NodeInfo, len(nodes))
	t.errors = nil
	t.startedAt = time.Now()
	t.finishedAt = time.Time{}

	for _, ref := range nodes {
		t.order = append(t.order, ref.ID)
		t.nodes[ref.ID] = &NodeInfo{ID: ref.ID, Type: ref.Type, State: NodePending}
	}

	t.state = StateRunning
	total := len(t.order)
	t.mu.Unlock()

	t.logger.Debug("execution started", "nodes", total)
	t.emit(events.ExecutionStarted, map[string]any{"total": total})
}

// QueueNode отмечает постановку узла в очередь бэкенда.
func (t *Tracker) QueueNode(id string) {
	t.mu.Lock()
	if info := t.nodes[id]; info != nil && info.State == NodePending {
		info.State = NodeQueued
	}
	t.mu.Unlock()
}

// StartNode переводит узел в Executing и запоминает момент старта.
func (t *Tracker) StartNode(id string) {
	t.mu.Lock()
	info := t.nodes[id]
	if info == nil {
		t.mu.Unlock()
		return
	}
	info.State = NodeExecuting
	info.StartedAt = time.Now()
	t.mu.Unlock()

	t.emit(events.ExecutionNodeStarted, map[string]any{"node": id})
}

// CompleteNode переводит узел в Completed, записывает длительность
// и сворачивает её в метрику типа.
func (t *Tracker) CompleteNode(id string, output any) {
	t.mu.Lock()
	info := t.nodes[id]
	if info == nil {
		t.mu.Unlock()
		return
	}

	now := time.Now()
	info.State = NodeCompleted
	info.FinishedAt = now
	info.Output = output
	if !info.StartedAt.IsZero() {
		info.Duration = now.Sub(info.StartedAt)
		if info.Duration < 0 {
			info.Duration = 0
		}
	}

	t.foldMetricLocked(info.Type, info.Duration)
	progress := t.progressLocked()
	t.mu.Unlock()

	t.emit(events.ExecutionNodeCompleted, map[string]any{"node": id, "duration": info.Duration})
	t.emit(events.ExecutionProgress, progress)
}

// ErrorNode переводит узел в Error и дописывает журнал ошибок.
//
// Соседние узлы не отменяются: это чистый учёт, решение об отмене
// остаётся за вызывающим кодом.
func (t *Tracker) ErrorNode(id, message string, details any) {
	t.mu.Lock()
	info := t.nodes[id]
	if info == nil {
		t.mu.Unlock()
		return
	}

	now := time.Now()
	info.State = NodeError
	info.FinishedAt = now
	info.Error = message
	if !info.StartedAt.IsZero() {
		info.Duration = now.Sub(info.StartedAt)
		if info.Duration < 0 {
			info.Duration = 0
		}
	}

	t.errors = append(t.errors, ErrorEntry{NodeID: id, Message: message, Details: details, At: now})

	m := t.metricLocked(info.Type)
	m.Errors++
	t.mu.Unlock()

	t.logger.Warn("node failed", "node", id, "error", message)
	t.emit(events.ExecutionNodeError, map[string]any{"node": id, "error": message})
}

// SkipNode переводит узел сразу в Skipped с нулевой длительностью
// (заглушённые и обойдённые узлы работы не производят).
func (t *Tracker) SkipNode(id string) {
	t.mu.Lock()
	info := t.nodes[id]
	if info == nil {
		t.mu.Unlock()
		return
	}
	info.State = NodeSkipped
	info.FinishedAt = time.Now()
	progress := t.progressLocked()
	t.mu.Unlock()

	t.emit(events.ExecutionNodeSkipped, map[string]any{"node": id})
	t.emit(events.ExecutionProgress, progress)
}

// Complete завершает исполнение: фиксирует общее время и обновляет
// счётчики прогонов — успех, если журнал ошибок пуст.
func (t *Tracker) Complete() {
	t.mu.Lock()
	if t.state.IsTerminal() {
		t.mu.Unlock()
		return
	}

	t.state = StateCompleted
	t.finishedAt = time.Now()
	failed := len(t.errors) > 0
	if failed {
		t.runsFailed++
	} else {
		t.runsSucceeded++
	}
	elapsed := t.finishedAt.Sub(t.startedAt)
	t.mu.Unlock()

	if failed {
		telemetry.ExecutionsTotal.WithLabelValues("failed").Inc()
	} else {
		telemetry.ExecutionsTotal.WithLabelValues("succeeded").Inc()
	}

	t.logger.Info("execution completed", "elapsed", elapsed, "errors", failed)
	t.emit(events.ExecutionCompleted, map[string]any{"elapsed": elapsed, "failed": failed})
}

// Fail прерывает исполнение с общей ошибкой (терминальное StateError).
func (t *Tracker) Fail(message string) {
	t.mu.Lock()
	if t.state.IsTerminal() {
		t.mu.Unlock()
		return
	}

	t.state = StateError
	t.finishedAt = time.Now()
	t.errors = append(t.errors, ErrorEntry{Message: message, At: t.finishedAt})
	t.runsFailed++
	t.mu.Unlock()

	telemetry.ExecutionsTotal.WithLabelValues("failed").Inc()
	t.logger.Error("execution failed", "error", message)
	t.emit(events.ExecutionNodeError, map[string]any{"error": message})
}

// Cancel отменяет исполнение: каждый узел, оставшийся в Pending,
// Queued или Executing, принудительно переводится в Cancelled.
func (t *Tracker) Cancel() {
	t.mu.Lock()
	if t.state.IsTerminal() || t.state == StateIdle {
		t.mu.Unlock()
		return
	}

	t.state = StateCancelled
	t.finishedAt = time.Now()
	t.runsFailed++
	for _, info := range t.nodes {
		if !info.State.IsFinished() {
			info.State = NodeCancelled
			info.FinishedAt = t.finishedAt
		}
	}
	t.mu.Unlock()

	telemetry.ExecutionsTotal.WithLabelValues("cancelled").Inc()
	t.logger.Info("execution cancelled")
	t.emit(events.ExecutionCancelled, nil)
}

// Pause приостанавливает исполнение. Действует только из Running.
func (t *Tracker) Pause() {
	t.mu.Lock()
	if t.state != StateRunning {
		t.mu.Unlock()
		return
	}
	t.state = StatePaused
	t.mu.Unlock()

	t.emit(events.ExecutionPaused, nil)
}

// Resume возобновляет исполнение. Действует только из Paused.
func (t *Tracker) Resume() {
	t.mu.Lock()
	if t.state != StatePaused {
		t.mu.Unlock()
		return
	}
	t.state = StateRunning
	t.mu.Unlock()

	t.emit(events.ExecutionResumed, nil)
}

// Progress возвращает срез прогресса исполнения.
func (t *Tracker) Progress() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progressLocked()
}

func (t *Tracker) progressLocked() Progress {
	p := Progress{Total: len(t.order)}
	completed := 0
	for _, id := range t.order {
		info := t.nodes[id]
		switch info.State {
		case NodeCompleted:
			p.Done++
			completed++
		case NodeSkipped:
			p.Done++
		}
	}

	if p.Total > 0 {
		p.Percent = float64(p.Done) / float64(p.Total) * 100
	}
	if !t.startedAt.IsZero() {
		if t.finishedAt.IsZero() {
			p.Elapsed = time.Since(t.startedAt)
		} else {
			p.Elapsed = t.finishedAt.Sub(t.startedAt)
		}
	}

	// Линейная экстраполяция по средней стоимости завершённых узлов
	if completed > 0 && p.Done < p.Total {
		perNode := p.Elapsed / time.Duration(completed)
		p.EstimatedRemaining = perNode * time.Duration(p.Total-p.Done)
	}

	return p
}

// NodeInfo возвращает копию учётной записи узла.
func (t *Tracker) NodeInfo(id string) (NodeInfo, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	info, ok := t.nodes[id]
	if !ok {
		return NodeInfo{}, false
	}
	return *info, true
}

// AllNodeInfo возвращает записи всех узлов в порядке исполнения.
func (t *Tracker) AllNodeInfo() []NodeInfo {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]NodeInfo, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.nodes[id])
	}
	return out
}

// Errors возвращает копию журнала ошибок текущего исполнения.
func (t *Tracker) Errors() []ErrorEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]ErrorEntry(nil), t.errors...)
}

// Metrics возвращает копию скользящих метрик по типам узлов.
func (t *Tracker) Metrics() map[string]TypeMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]TypeMetrics, len(t.metrics))
	for typ, m := range t.metrics {
		out[typ] = *m
	}
	return out
}

// RunCounters возвращает количество успешных и неуспешных прогонов.
func (t *Tracker) RunCounters() (succeeded, failed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runsSucceeded, t.runsFailed
}

// ResetMetrics очищает скользящие метрики и счётчики прогонов.
func (t *Tracker) ResetMetrics() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics = make(map[string]*TypeMetrics)
	t.runsSucceeded = 0
	t.runsFailed = 0
}

func (t *Tracker) metricLocked(nodeType string) *TypeMetrics {
	m, ok := t.metrics[nodeType]
	if !ok {
		m = &TypeMetrics{}
		t.metrics[nodeType] = m
	}
	return m
}

func (t *Tracker) foldMetricLocked(nodeType string, d time.Duration) {
	m := t.metricLocked(nodeType)
	m.Count++
	m.Total += d
	if m.Count == 1 || d < m.Min {
		m.Min = d
	}
	if d > m.Max {
		m.Max = d
	}
}

// emit излучает событие, если шина подключена.
func (t *Tracker) emit(typ events.Type, payload any) {
	if t.bus != nil {
		t.bus.Emit(typ, payload)
	}
}

// OrderRefs строит снимок порядка исполнения из порядка узлов графа.
func OrderRefs(g *domain.Graph, order []domain.NodeID) []NodeRef {
	refs := make([]NodeRef, 0, len(order))
	for _, id := range order {
		if node := g.Node(id); node != nil {
			refs = append(refs, NodeRef{
				ID:   strconv.FormatInt(int64(id), 10),
				Type: node.Type,
			})
		}
	}
	return refs
}
