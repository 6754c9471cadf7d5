package domain

import (
	"time"

	"github.com/google/uuid"
)

// Chain — цепочка workflows, выполняемых последовательно.
//
// Каждый узел цепочки — отдельный workflow в API-формате. Выходные файлы
// одного узла могут подаваться на входы следующих через InputBinding.
type Chain struct {
	// ID — уникальный идентификатор цепочки.
	ID uuid.UUID `json:"id"`

	// Name — имя цепочки.
	Name string `json:"name"`

	// Description — описание назначения.
	Description string `json:"description,omitempty"`

	// Nodes — упорядоченные узлы цепочки.
	Nodes []ChainNode `json:"nodes"`

	// CronExpr — cron-выражение для автоматического запуска.
	// Пустое значение — цепочка запускается только вручную.
	CronExpr string `json:"cron_expr,omitempty"`

	// Timezone — часовой пояс для cron. По умолчанию UTC.
	Timezone string `json:"timezone,omitempty"`

	// Enabled — участвует ли цепочка в расписании.
	Enabled bool `json:"enabled"`

	// NextDueAt — время следующего запуска по расписанию.
	NextDueAt *time.Time `json:"next_due_at,omitempty"`

	// LastRunAt — время последнего запуска.
	LastRunAt *time.Time `json:"last_run_at,omitempty"`

	// LastRunID — id последнего запуска.
	LastRunID *uuid.UUID `json:"last_run_id,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsDue проверяет, пора ли запускать цепочку по расписанию.
func (c *Chain) IsDue(now time.Time) bool {
	if !c.Enabled || c.CronExpr == "" {
		return false
	}
	if c.NextDueAt == nil {
		return false
	}
	return now.After(*c.NextDueAt) || now.Equal(*c.NextDueAt)
}

// RecordRun записывает информацию о запуске по расписанию.
func (c *Chain) RecordRun(runID uuid.UUID, nextDue time.Time) {
	now := time.Now()
	c.LastRunAt = &now
	c.LastRunID = &runID
	c.NextDueAt = &nextDue
	c.UpdatedAt = now
}

// ChainNode — один workflow внутри цепочки.
type ChainNode struct {
	// ID — идентификатор узла цепочки (не путать с id узлов графа).
	ID string `json:"id"`

	// Name — человекочитаемое имя.
	Name string `json:"name,omitempty"`

	// Prompt — workflow в API-формате, готовый к отправке бэкенду.
	Prompt PromptGraph `json:"prompt"`

	// Bindings — подстановки входов: "{id-узла-графа}.{имя-виджета}" → binding.
	Bindings map[string]InputBinding `json:"bindings,omitempty"`
}

// BindingType — тип подстановки входа.
type BindingType string

const (
	// BindingStatic — статическое значение, подставляется как есть.
	BindingStatic BindingType = "static"

	// BindingDynamic — значение берётся из закэшированного выхода
	// предыдущего узла цепочки.
	BindingDynamic BindingType = "dynamic"
)

// InputBinding — подстановка значения во вход workflow перед запуском.
type InputBinding struct {
	// Type — тип подстановки.
	Type BindingType `json:"type"`

	// Value — значение для static binding.
	Value any `json:"value,omitempty"`

	// SourceNodeIndex — индекс узла цепочки, чей выход берём (dynamic).
	SourceNodeIndex int `json:"source_node_index,omitempty"`

	// SourceOutputID — id выходного узла графа внутри того workflow (dynamic).
	SourceOutputID string `json:"source_output_id,omitempty"`
}
