package api

import (
	"net/http"

	"github.com/akimenko/graphflow/internal/events"
)

// GetExecutionState возвращает состояние трекера текущего исполнения.
// GET /api/v1/execution
func (h *Handler) GetExecutionState(w http.ResponseWriter, r *http.Request) {
	Success(w, ExecutionStateResponse{
		State:    h.tracker.State().String(),
		Progress: h.tracker.Progress(),
		Errors:   h.tracker.Errors(),
	})
}

// GetChainProgress возвращает снимок прогресса текущей (или последней) цепочки.
// GET /api/v1/execution/progress
func (h *Handler) GetChainProgress(w http.ResponseWriter, r *http.Request) {
	progress, ok := h.executor.Progress()
	if !ok {
		NotFound(w, "no chain has been executed yet")
		return
	}

	Success(w, progress)
}

// ListExecutionNodes возвращает учёт всех узлов текущего исполнения.
// GET /api/v1/execution/nodes
func (h *Handler) ListExecutionNodes(w http.ResponseWriter, r *http.Request) {
	infos := h.tracker.AllNodeInfo()
	List(w, infos, len(infos))
}

// GetExecutionNode возвращает учёт одного узла по id исполнения.
// GET /api/v1/execution/nodes/{id}
func (h *Handler) GetExecutionNode(w http.ResponseWriter, r *http.Request) {
	info, ok := h.tracker.NodeInfo(r.PathValue("id"))
	if !ok {
		NotFound(w, "node not tracked in current execution")
		return
	}

	Success(w, info)
}

// GetExecutionMetrics возвращает накопленные метрики по типам узлов.
// GET /api/v1/execution/metrics
func (h *Handler) GetExecutionMetrics(w http.ResponseWriter, r *http.Request) {
	succeeded, failed := h.tracker.RunCounters()
	Success(w, ExecutionMetricsResponse{
		Metrics:       h.tracker.Metrics(),
		RunsSucceeded: succeeded,
		RunsFailed:    failed,
	})
}

// InterruptExecution прерывает выполняющуюся цепочку.
// POST /api/v1/execution/interrupt
func (h *Handler) InterruptExecution(w http.ResponseWriter, r *http.Request) {
	if !h.executor.Running() {
		InvalidState(w, "no chain is executing")
		return
	}

	if err := h.executor.Interrupt(r.Context()); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	NoContent(w)
}

// GetEventHistory возвращает историю событий шины.
// GET /api/v1/events/history?type=execution.completed
func (h *Handler) GetEventHistory(w http.ResponseWriter, r *http.Request) {
	var history []events.Event
	if typ := r.URL.Query().Get("type"); typ != "" {
		history = h.bus.HistoryByType(events.Type(typ))
	} else {
		history = h.bus.History()
	}

	List(w, history, len(history))
}
