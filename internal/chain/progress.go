package chain

import (
	"time"

	"github.com/akimenko/graphflow/internal/domain"
	"github.com/google/uuid"
)

// NodeStatus — статус узла цепочки для наблюдателей прогресса.
type NodeStatus string

const (
	// NodePending — узел ещё не начинался.
	NodePending NodeStatus = "pending"

	// NodeWaiting — узел ждёт паузу после предыдущего.
	NodeWaiting NodeStatus = "waiting"

	// NodeRunning — узел выполняется.
	NodeRunning NodeStatus = "running"

	// NodeCompleted — узел выполнен.
	NodeCompleted NodeStatus = "completed"

	// NodeFailed — узел упал.
	NodeFailed NodeStatus = "failed"
)

// NodeProgress — прогресс одного узла цепочки.
type NodeProgress struct {
	ID     string     `json:"id"`
	Name   string     `json:"name,omitempty"`
	Status NodeStatus `json:"status"`
}

// Progress — снимок прогресса выполняющейся цепочки.
type Progress struct {
	// ChainID — id цепочки.
	ChainID uuid.UUID `json:"chain_id"`

	// ChainName — имя цепочки.
	ChainName string `json:"chain_name"`

	// ExecutionID — id исполнения.
	ExecutionID string `json:"execution_id"`

	// Nodes — статусы узлов в порядке цепочки.
	Nodes []NodeProgress `json:"nodes"`

	// Finished — цепочка завершилась.
	Finished bool `json:"finished"`

	// Success — итог завершённой цепочки.
	Success bool `json:"success"`

	// StartedAt — момент начала.
	StartedAt time.Time `json:"started_at"`
}

func newProgress(c *domain.Chain, executionID string) *Progress {
	p := &Progress{
		ChainID:     c.ID,
		ChainName:   c.Name,
		ExecutionID: executionID,
		Nodes:       make([]NodeProgress, len(c.Nodes)),
		StartedAt:   time.Now(),
	}
	for i, n := range c.Nodes {
		p.Nodes[i] = NodeProgress{ID: n.ID, Name: n.Name, Status: NodePending}
	}
	return p
}

// clone возвращает копию снимка с собственным слайсом узлов.
func (p *Progress) clone() *Progress {
	out := *p
	out.Nodes = append([]NodeProgress(nil), p.Nodes...)
	return &out
}

// setProgress устанавливает снимок прогресса текущей цепочки.
func (e *Executor) setProgress(p *Progress) {
	e.mu.Lock()
	e.progress = p
	e.mu.Unlock()
}

// markNode обновляет статус узла в снимке прогресса.
func (e *Executor) markNode(index int, status NodeStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.progress == nil || index < 0 || index >= len(e.progress.Nodes) {
		return
	}
	e.progress.Nodes[index].Status = status
}

// finishProgress помечает снимок завершённым.
func (e *Executor) finishProgress(success bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.progress == nil {
		return
	}
	e.progress.Finished = true
	e.progress.Success = success
}

// Progress возвращает копию снимка прогресса последней цепочки.
// ok=false, если цепочки ещё не запускались.
func (e *Executor) Progress() (*Progress, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.progress == nil {
		return nil, false
	}
	return e.progress.clone(), true
}
