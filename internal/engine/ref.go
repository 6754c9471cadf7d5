package engine

import (
	"strconv"
	"strings"

	"github.com/akimenko/graphflow/internal/domain"
)

// ExecRef — обёртка узла в рамках одного прохода разрешения.
//
// ExecRef несёт путь вложенных subgraph'ов от корня до узла.
// Создаётся свежим на каждый проход и выбрасывается после него;
// никаких ссылок на граф между проходами не переживает.
type ExecRef struct {
	// Node — обёрнутый узел.
	Node *domain.Node

	// Graph — граф, в котором живёт узел.
	Graph *domain.Graph

	// Path — id subgraph'ов от корня до узла (корень — пустой путь).
	Path []string
}

// ExecutionID возвращает идентификатор исполнения узла:
// сегменты пути, соединённые с id узла через ":".
//
// Идентификатор уникален в пределах одного прохода даже при
// многократном вложении одного subgraph'а.
func (r *ExecRef) ExecutionID() string {
	id := strconv.FormatInt(int64(r.Node.ID), 10)
	if len(r.Path) == 0 {
		return id
	}
	return strings.Join(r.Path, ":") + ":" + id
}

// DisplayName возвращает отображаемое имя узла.
func (r *ExecRef) DisplayName() string {
	return r.Node.DisplayName()
}

// refKey строит ключ реестра ExecRef для пути и id узла.
// Совпадает с ExecutionID узла на этом пути.
func refKey(path []string, id domain.NodeID) string {
	s := strconv.FormatInt(int64(id), 10)
	if len(path) == 0 {
		return s
	}
	return strings.Join(path, ":") + ":" + s
}
