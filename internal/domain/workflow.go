package domain

import (
	"time"

	"github.com/google/uuid"
)

// Workflow — сохранённый workflow редактора.
//
// Workflow — это именованный граф узлов. Один workflow может иметь
// множество версий (WorkflowVersion); цепочки и запуски ссылаются
// на конкретную версию.
type Workflow struct {
	// ID — уникальный идентификатор workflow.
	ID uuid.UUID `json:"id"`

	// Name — имя workflow, уникальное в пределах сервера.
	Name string `json:"name"`

	// Description — описание назначения.
	Description string `json:"description,omitempty"`

	// IsActive — флаг активности. Неактивные workflows скрыты из галереи.
	IsActive bool `json:"is_active"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// WorkflowVersion — версия workflow с конкретным графом.
type WorkflowVersion struct {
	// WorkflowID — ссылка на родительский workflow.
	WorkflowID uuid.UUID `json:"workflow_id"`

	// Version — номер версии (1, 2, 3, ...), автоинкремент.
	Version int `json:"version"`

	// Graph — сохранённый граф в JSON (формат serialize.go).
	Graph []byte `json:"graph"`

	// Prompt — уплощённый API-формат для отправки бэкенду.
	// Может быть пустым: тогда уплощение делается на лету.
	Prompt PromptGraph `json:"prompt,omitempty"`

	// CreatedAt — время создания версии.
	CreatedAt time.Time `json:"created_at"`
}
