package engine

import (
	"github.com/akimenko/graphflow/internal/domain"
)

// Имена входов Set/Get узлов в уплощённом формате.
const (
	// variableNameInput — вход с именем переменной у Set и Get узлов.
	variableNameInput = "name"

	// variableValueInput — вход Set-узла со значением или соединением.
	variableValueInput = "value"
)

// variableEntry — запись таблицы переменных одного прохода уплощения.
type variableEntry struct {
	// sourceID — id Set-узла, опубликовавшего переменную.
	sourceID string

	// value — литерал или соединение [id, slot], которое нёс Set-узел.
	value any
}

// ResolveVariables убирает косвенность именованных переменных из
// уплощённого графа.
//
// Три прохода:
//  1. Регистрация: каждый Set-узел публикует имя переменной и то,
//     что он нёс (соединение с источником или литерал).
//  2. Переписывание: каждый вход, чьё соединение указывает на Get-узел,
//     получает напрямую значение опубликованной переменной. Соединение
//     подставляется как есть, включая исходный номер слота источника,
//     а не всегда слот 0.
//  3. Чистка: все Set/Get узлы удаляются из графа.
//
// Исходный граф не мутируется. Повторный вызов на уже уплощённом графе —
// no-op (Get-узлов больше нет).
func ResolveVariables(p domain.PromptGraph, reg *domain.TypeRegistry) (domain.PromptGraph, error) {
	out := p.Clone()

	// Проход 1: регистрируем переменные Set-узлов
	vars := make(map[string]variableEntry)
	for id, node := range out {
		if reg.Tag(node.ClassType) != domain.TagSet {
			continue
		}

		name, ok := node.Inputs[variableNameInput].(string)
		if !ok || name == "" {
			continue
		}

		vars[name] = variableEntry{
			sourceID: id,
			value:    node.Inputs[variableValueInput],
		}
	}

	// Проход 2: переписываем входы, питающиеся от Get-узлов
	for id, node := range out {
		tag := reg.Tag(node.ClassType)
		if tag == domain.TagSet || tag == domain.TagGet {
			continue
		}

		for inputName, value := range node.Inputs {
			srcID, _, isConn := domain.ParseConnection(value)
			if !isConn {
				continue
			}

			src, exists := out[srcID]
			if !exists || reg.Tag(src.ClassType) != domain.TagGet {
				continue
			}

			varName, _ := src.Inputs[variableNameInput].(string)
			entry, registered := vars[varName]
			if !registered {
				return nil, &MissingVariableError{Name: varName, NodeID: id}
			}

			node.Inputs[inputName] = entry.value
		}
	}

	// Проход 3: выбрасываем Set/Get узлы — поведения у них нет
	for id, node := range out {
		tag := reg.Tag(node.ClassType)
		if tag == domain.TagSet || tag == domain.TagGet {
			delete(out, id)
		}
	}

	return out, nil
}
