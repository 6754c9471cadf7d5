package engine

import (
	"fmt"
	"strings"

	"github.com/akimenko/graphflow/internal/domain"
)

// Ошибки разрешения графа.
var (
	// ErrSlotIndex — запрошенный слот отсутствует на узле.
	ErrSlotIndex = fmt.Errorf("slot does not exist")

	// ErrInvalidLink — id связи не находит запись Link,
	// или узел-источник не зарегистрирован в проходе разрешения.
	ErrInvalidLink = fmt.Errorf("invalid link")

	// ErrRecursion — обнаружен цикл разрешения.
	ErrRecursion = fmt.Errorf("resolution cycle detected")

	// ErrMissingVariable — Get ссылается на незарегистрированную переменную.
	ErrMissingVariable = fmt.Errorf("missing variable")

	// ErrCyclicGraph — граф содержит цикл по связям (для ExecutionOrder).
	ErrCyclicGraph = fmt.Errorf("graph contains a cycle")
)

// SlotIndexError — запрошен несуществующий слот узла.
type SlotIndexError struct {
	// NodeID — узел, на котором запрошен слот.
	NodeID domain.NodeID

	// Slot — запрошенный индекс.
	Slot int

	// Output — true для выходного слота, false для входного.
	Output bool
}

// Error реализует интерфейс error.
func (e *SlotIndexError) Error() string {
	kind := "input"
	if e.Output {
		kind = "output"
	}
	return fmt.Sprintf("node %d has no %s slot %d", e.NodeID, kind, e.Slot)
}

// Unwrap возвращает базовую ошибку.
func (e *SlotIndexError) Unwrap() error {
	return ErrSlotIndex
}

// InvalidLinkError — ссылка на несуществующую связь или незарегистрированный узел.
type InvalidLinkError struct {
	// NodeID — узел, чей вход держит ссылку.
	NodeID domain.NodeID

	// LinkID — проблемный id связи.
	LinkID domain.LinkID

	// Message — описание проблемы.
	Message string
}

// Error реализует интерфейс error.
func (e *InvalidLinkError) Error() string {
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *InvalidLinkError) Unwrap() error {
	return ErrInvalidLink
}

// RecursionError — цикл разрешения: повторное посещение того же
// (путь, узел, направление, слот) в одном проходе.
type RecursionError struct {
	// NodeID — узел, на котором замкнулся цикл.
	NodeID domain.NodeID

	// Title — отображаемое имя узла.
	Title string

	// Path — путь subgraph'ов до узла.
	Path []string
}

// Error реализует интерфейс error.
func (e *RecursionError) Error() string {
	where := fmt.Sprintf("node %d (%s)", e.NodeID, e.Title)
	if len(e.Path) > 0 {
		where += " at subgraph path " + strings.Join(e.Path, ":")
	}
	return "resolution cycle through " + where
}

// Unwrap возвращает базовую ошибку.
func (e *RecursionError) Unwrap() error {
	return ErrRecursion
}

// MissingVariableError — Get запрашивает переменную, которую никто не публикует.
type MissingVariableError struct {
	// Name — имя переменной.
	Name string

	// NodeID — id узла уплощённого графа, запросившего переменную.
	NodeID string
}

// Error реализует интерфейс error.
func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("variable %q requested by node %s is not registered", e.Name, e.NodeID)
}

// Unwrap возвращает базовую ошибку.
func (e *MissingVariableError) Unwrap() error {
	return ErrMissingVariable
}
