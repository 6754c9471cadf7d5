package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChainRun — экземпляр выполнения цепочки.
//
// ChainRun создаётся, когда цепочку запускает пользователь (API/CLI)
// или планировщик по расписанию.
type ChainRun struct {
	// ID — уникальный идентификатор запуска.
	ID uuid.UUID `json:"id"`

	// ChainID — ссылка на цепочку.
	ChainID uuid.UUID `json:"chain_id"`

	// ExecutionID — идентификатор исполнения, под которым кэшируются
	// выходные файлы ("exec-{unix-millis}").
	ExecutionID string `json:"execution_id"`

	// Status — текущий статус выполнения.
	Status RunStatus `json:"status"`

	// NodeResults — результаты по узлам цепочки (JSON).
	NodeResults []NodeResult `json:"node_results,omitempty"`

	// Error — текст ошибки, если запуск завершился с FAILED.
	Error string `json:"error,omitempty"`

	// IdempotencyKey — ключ идемпотентности для scheduled-запусков.
	IdempotencyKey string `json:"idempotency_key,omitempty"`

	// StartedAt — время начала выполнения.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// CreatedAt — время создания записи.
	CreatedAt time.Time `json:"created_at"`
}

// NodeResult — результат выполнения одного узла цепочки.
type NodeResult struct {
	// NodeID — id узла цепочки.
	NodeID string `json:"node_id"`

	// NodeName — имя узла.
	NodeName string `json:"node_name,omitempty"`

	// PromptID — id задания, выданный бэкендом.
	PromptID string `json:"prompt_id,omitempty"`

	// Success — завершился ли узел успешно.
	Success bool `json:"success"`

	// Error — текст ошибки при неудаче.
	Error string `json:"error,omitempty"`

	// Outputs — закэшированные выходные файлы.
	Outputs []CachedOutput `json:"outputs,omitempty"`
}

// CachedOutput — выходной файл, скопированный в кэш цепочки.
type CachedOutput struct {
	// NodeID — id выходного узла графа, породившего файл.
	NodeID string `json:"node_id"`

	// Filename — исходное имя файла.
	Filename string `json:"filename"`

	// Subfolder — подпапка в выходном каталоге бэкенда.
	Subfolder string `json:"subfolder,omitempty"`

	// CachedPath — относительный путь в кэше, пригодный для подстановки
	// во входы следующего workflow.
	CachedPath string `json:"cached_path"`
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если запуск ещё не завершён.
func (r *ChainRun) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// IsFinished возвращает true, если запуск завершён.
func (r *ChainRun) IsFinished() bool {
	return r.Status.IsTerminal()
}

// MarkRunning переводит запуск в статус RUNNING.
func (r *ChainRun) MarkRunning() {
	now := time.Now()
	r.Status = RunStatusRunning
	r.StartedAt = &now
}

// MarkSucceeded переводит запуск в статус SUCCEEDED.
func (r *ChainRun) MarkSucceeded(results []NodeResult) {
	now := time.Now()
	r.Status = RunStatusSucceeded
	r.FinishedAt = &now
	r.NodeResults = results
}

// MarkFailed переводит запуск в статус FAILED с ошибкой.
func (r *ChainRun) MarkFailed(err string, results []NodeResult) {
	now := time.Now()
	r.Status = RunStatusFailed
	r.FinishedAt = &now
	r.Error = err
	r.NodeResults = results
}

// MarkCancelled переводит запуск в статус CANCELLED.
func (r *ChainRun) MarkCancelled() {
	now := time.Now()
	r.Status = RunStatusCancelled
	r.FinishedAt = &now
}
